package wizard

import (
	"reflect"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

func testDraft(t *testing.T) *Draft {
	t.Helper()
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	d := NewDraft("g1", "c1", "u1", "Alice", now, time.UTC)
	d.Name = "Rapport Q1"
	return d
}

func TestNewDraftDefaults(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	d := NewDraft("g1", "c1", "u1", "Alice", now, time.UTC)

	if want := "u1-" + "1775035800000"; d.Key != want {
		t.Errorf("key = %q, want %q", d.Key, want)
	}
	if d.Priority != task.PriorityNormal {
		t.Errorf("priority = %v, want Normale", d.Priority)
	}
	want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if d.StartDate != want {
		t.Errorf("start date = %d, want today UTC midnight %d", d.StartDate, want)
	}
	if d.DueDate != 0 {
		t.Errorf("due date = %d, want unset", d.DueDate)
	}
}

func TestRecapIsIdempotent(t *testing.T) {
	d := testDraft(t)
	d.SpaceID, d.SpaceName = "s1", "Marketing"
	d.ListID, d.ListName = "l1", "Sprint"

	first := Recap(d)
	second := Recap(d)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two renders without edits must be identical")
	}
}

func TestRecapReflectsEdits(t *testing.T) {
	d := testDraft(t)
	d.SpaceID, d.SpaceName = "s1", "Marketing"
	d.ListID, d.ListName = "l1", "Sprint"

	view := Recap(d)
	fields := view.Embeds[0].Fields
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	if byName["Priorité"] != "Normale" {
		t.Errorf("Priorité = %q, want Normale", byName["Priorité"])
	}
	if byName["Début"] != "01/04/2026" {
		t.Errorf("Début = %q", byName["Début"])
	}
	if byName["Échéance"] != "—" {
		t.Errorf("Échéance = %q, want dash", byName["Échéance"])
	}

	d.Priority = task.PriorityUrgent
	d.Category = "Compta"
	view = Recap(d)
	for _, f := range view.Embeds[0].Fields {
		byName[f.Name] = f.Value
	}
	if byName["Priorité"] != "Urgente" || byName["Catégorie"] != "Compta" {
		t.Errorf("recap does not reflect edits: %+v", byName)
	}
}

func TestRecapConfirmDisabledWithoutLocation(t *testing.T) {
	d := testDraft(t)

	view := Recap(d)
	row := view.Components[1].(discordgo.ActionsRow)
	confirm := row.Components[0].(discordgo.Button)
	if confirm.Label != "Confirmer" || !confirm.Disabled {
		t.Fatalf("confirm must be disabled without a location: %+v", confirm)
	}

	d.SpaceID, d.ListID = "s1", "l1"
	view = Recap(d)
	confirm = view.Components[1].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if confirm.Disabled {
		t.Fatal("confirm must be enabled once located")
	}
}

func TestCategorySelectPaginates(t *testing.T) {
	d := testDraft(t)
	for i := 0; i < 60; i++ {
		d.Categories = append(d.Categories, "Cat "+string(rune('A'+i%26)))
	}

	d.CategoryPage = 0
	view := CategorySelect(d)
	menu := view.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 25 {
		t.Fatalf("page 0 options = %d, want 25", len(menu.Options))
	}
	nav := view.Components[1].(discordgo.ActionsRow)
	if prev := nav.Components[0].(discordgo.Button); !prev.Disabled {
		t.Error("prev must be disabled on first page")
	}

	d.CategoryPage = 2 // 60 items -> pages of 25/25/10
	view = CategorySelect(d)
	menu = view.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 10 {
		t.Fatalf("last page options = %d, want 10", len(menu.Options))
	}
	nav = view.Components[1].(discordgo.ActionsRow)
	if next := nav.Components[1].(discordgo.Button); !next.Disabled {
		t.Error("next must be disabled on last page")
	}
}

func TestCategorySelectClampsPage(t *testing.T) {
	d := testDraft(t)
	d.Categories = []string{"A", "B"}
	d.CategoryPage = 99

	view := CategorySelect(d)
	menu := view.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 2 {
		t.Fatalf("options = %d, want 2 on clamped page", len(menu.Options))
	}
}

func TestSpaceSelectCapsAtSelectCeiling(t *testing.T) {
	d := testDraft(t)
	spaces := make([]clickup.Space, 30)
	for i := range spaces {
		spaces[i] = clickup.Space{ID: "s", Name: "Space"}
	}

	view := SpaceSelect(d, spaces)
	menu := view.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != 25 {
		t.Fatalf("options = %d, want 25", len(menu.Options))
	}
}
