// Package pager renders a responsable's open tasks as one paginated embed
// plus a select menu, and mutates the cached task sequence as statuses
// change. The cached sequence, not a re-fetch, is what every render shows.
package pager

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/customid"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

// PageSize is Discord's select-menu option ceiling.
const PageSize = 25

// descriptionBudget is Discord's embed description ceiling.
const descriptionBudget = 4096

// optionLabelBudget is Discord's select-option label ceiling, shared between
// the numeric prefix and the task name.
const optionLabelBudget = 100

// Session is one live pager over a fetched task sequence.
type Session struct {
	Tasks       []task.Summary
	Page        int
	Responsable string
	GuildID     string

	// ChannelID/MessageID track the rendered message for channel-keyed
	// (scheduler) sessions so later actions can edit it in place. Empty for
	// ephemeral interactive sessions, which re-render through the
	// interaction itself.
	ChannelID string
	MessageID string
}

// TotalPages is never zero; an empty session still renders one page.
func (s *Session) TotalPages() int {
	if len(s.Tasks) == 0 {
		return 1
	}
	return (len(s.Tasks) + PageSize - 1) / PageSize
}

// ClampPage forces Page back into [0, TotalPages-1].
func (s *Session) ClampPage() {
	if s.Page < 0 {
		s.Page = 0
	}
	if max := s.TotalPages() - 1; s.Page > max {
		s.Page = max
	}
}

// Advance moves one page in either direction, clamped at the boundaries.
func (s *Session) Advance(arg string) {
	switch arg {
	case "prev":
		s.Page--
	case "next":
		s.Page++
	}
	s.ClampPage()
}

// TaskAt returns the task at an absolute index into the full sequence.
func (s *Session) TaskAt(index int) (task.Summary, bool) {
	if index < 0 || index >= len(s.Tasks) {
		return task.Summary{}, false
	}
	return s.Tasks[index], true
}

// ApplyStatusChange records a successful remote transition: Achevée removes
// the task from the sequence (and re-clamps the page), anything else updates
// the cached status in place.
func (s *Session) ApplyStatusChange(index int, target task.DisplayStatus) {
	if index < 0 || index >= len(s.Tasks) {
		return
	}
	if target == task.StatusDone {
		s.Tasks = append(s.Tasks[:index], s.Tasks[index+1:]...)
		s.ClampPage()
		return
	}
	s.Tasks[index].Status = target
}

// View is one rendered pager state.
type View struct {
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

const legend = "⚪ À faire · 🔵 En cours · ✅ Achevée"

// Render produces the current page: numbered list, task select and
// boundary-aware Prev/Next buttons. key routes interactions back to the
// session (user id or channel id).
func Render(s *Session, key, title string) View {
	s.ClampPage()

	if len(s.Tasks) == 0 {
		return View{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       title,
				Description: "Aucune tâche en cours. 🎉",
				Color:       0x57F287,
			}},
			Components: []discordgo.MessageComponent{},
		}
	}

	start := s.Page * PageSize
	end := start + PageSize
	if end > len(s.Tasks) {
		end = len(s.Tasks)
	}

	list := ""
	options := make([]discordgo.SelectMenuOption, 0, end-start)
	for i := start; i < end; i++ {
		t := s.Tasks[i]
		number := i + 1
		line := formatLine(number, t)
		if list != "" {
			list += "\n"
		}
		list += line

		prefix := fmt.Sprintf("%d. ", number)
		options = append(options, discordgo.SelectMenuOption{
			Label: prefix + truncate(t.Name, optionLabelBudget-len(prefix)),
			Value: strconv.Itoa(i),
		})
	}

	description := list + "\n\n" + legend
	if len(description) > descriptionBudget {
		description = list
	}
	if len(description) > descriptionBudget {
		description = hardTruncate(description, descriptionBudget)
	}

	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.ListPick, key, ""),
		Placeholder: "Changer le statut d'une tâche",
		Options:     options,
	}

	prev := discordgo.Button{
		Label:    "◀",
		Style:    discordgo.SecondaryButton,
		CustomID: customid.Encode(customid.ListPage, key, "prev"),
		Disabled: s.Page == 0,
	}
	next := discordgo.Button{
		Label:    "▶",
		Style:    discordgo.SecondaryButton,
		CustomID: customid.Encode(customid.ListPage, key, "next"),
		Disabled: s.Page == s.TotalPages()-1,
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: description,
			Color:       0x5865F2,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Page %d/%d · %d tâches", s.Page+1, s.TotalPages(), len(s.Tasks)),
			},
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{prev, next}},
		},
	}
}

func formatLine(number int, t task.Summary) string {
	due := ""
	if t.Due != 0 {
		due = " · 📅 " + time.UnixMilli(t.Due).UTC().Format("02/01")
	}
	if t.IsSubtask {
		return fmt.Sprintf("- %d. %s %s%s", number, t.Name, t.Status.Glyph(), due)
	}
	return fmt.Sprintf("**%d. %s** %s%s", number, t.Name, t.Status.Glyph(), due)
}

// StatusView renders the per-task status controls for a selected task.
func StatusView(s *Session, key string, index int) View {
	t, ok := s.TaskAt(index)
	if !ok {
		return Render(s, key, "Tâches")
	}

	buttons := make([]discordgo.MessageComponent, 0, 4)
	for _, target := range []task.DisplayStatus{task.StatusTodo, task.StatusInProgress, task.StatusDone} {
		buttons = append(buttons, discordgo.Button{
			Label:    fmt.Sprintf("%s %s", target.Glyph(), target),
			Style:    discordgo.PrimaryButton,
			CustomID: customid.Encode(customid.ListStatus, key, customid.EncodePair(strconv.Itoa(index), string(target))),
			Disabled: t.Status == target,
		})
	}
	buttons = append(buttons, discordgo.Button{
		Label:    "Retour",
		Style:    discordgo.SecondaryButton,
		CustomID: customid.Encode(customid.ListBack, key, ""),
	})

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       t.Name,
			Description: fmt.Sprintf("Statut actuel : %s %s", t.Status.Glyph(), t.Status),
			Color:       0x5865F2,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	}
}

// BlockedView explains why a task cannot be marked Achevée: its still-open
// subtasks, with status and responsable.
func BlockedView(key, taskName string, incomplete []task.Summary) View {
	description := fmt.Sprintf("**%s** ne peut pas être achevée : des sous-tâches sont encore ouvertes.\n", taskName)
	for _, sub := range incomplete {
		responsable := sub.Responsable
		if responsable == "" {
			responsable = "—"
		}
		description += fmt.Sprintf("\n%s **%s** · %s · %s", sub.Status.Glyph(), sub.Name, sub.Status, responsable)
	}
	if len(description) > descriptionBudget {
		description = hardTruncate(description, descriptionBudget)
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "⛔ Sous-tâches incomplètes",
			Description: description,
			Color:       0xED4245,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Retour",
					Style:    discordgo.SecondaryButton,
					CustomID: customid.Encode(customid.ListBack, key, ""),
				},
			}},
		},
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 1 {
		return ""
	}
	return string(runes[:max-1]) + "…"
}

func hardTruncate(s string, budget int) string {
	runes := []rune(s)
	// budget is in bytes; walk back until the encoded size fits.
	for len(string(runes))+len("…") > budget {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
