package router

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/config"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/crypto"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/customid"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/pager"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/session"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/store"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/wizard"
)

type recordedEdit struct {
	channelID, messageID string
	embeds               []*discordgo.MessageEmbed
	components           []discordgo.MessageComponent
}

type fakeResponder struct {
	responses []*discordgo.InteractionResponse
	edits     []recordedEdit
	owner     string
	msgID     string
}

func (f *fakeResponder) Respond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionMessage(_ *discordgo.Interaction) (*discordgo.Message, error) {
	return &discordgo.Message{ID: f.msgID}, nil
}

func (f *fakeResponder) EditMessage(channelID, messageID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	f.edits = append(f.edits, recordedEdit{channelID, messageID, embeds, components})
	return nil
}

func (f *fakeResponder) SendMessage(channelID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "sent", ChannelID: channelID}, nil
}

func (f *fakeResponder) Pin(string, string) error { return nil }

func (f *fakeResponder) GuildOwner(string) (string, error) { return f.owner, nil }

func (f *fakeResponder) last(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	if len(f.responses) == 0 {
		t.Fatal("no response recorded")
	}
	return f.responses[len(f.responses)-1]
}

type fakeClickUp struct {
	spaces     []clickup.Space
	lists      []clickup.List
	fields     []clickup.CustomField
	detail     clickup.List
	task       clickup.Task
	created    []clickup.CreateTaskRequest
	statusSets []string
	tasks      []clickup.Task
}

func (f *fakeClickUp) Spaces(context.Context, string) ([]clickup.Space, error) { return f.spaces, nil }
func (f *fakeClickUp) Folders(context.Context, string) ([]clickup.Folder, error) {
	return nil, nil
}
func (f *fakeClickUp) SpaceLists(context.Context, string) ([]clickup.List, error) {
	return f.lists, nil
}
func (f *fakeClickUp) FolderLists(context.Context, string) ([]clickup.List, error) {
	return nil, nil
}
func (f *fakeClickUp) ListTasks(context.Context, string, bool) ([]clickup.Task, error) {
	return f.tasks, nil
}
func (f *fakeClickUp) ListDetail(context.Context, string) (clickup.List, error) {
	return f.detail, nil
}
func (f *fakeClickUp) ListFields(context.Context, string) ([]clickup.CustomField, error) {
	return f.fields, nil
}
func (f *fakeClickUp) Task(context.Context, string) (clickup.Task, error) { return f.task, nil }
func (f *fakeClickUp) CreateTask(_ context.Context, _ string, req clickup.CreateTaskRequest) (clickup.Task, error) {
	f.created = append(f.created, req)
	return clickup.Task{ID: "new1", Name: req.Name}, nil
}
func (f *fakeClickUp) SetTaskStatus(_ context.Context, _ string, status string) error {
	f.statusSets = append(f.statusSets, status)
	return nil
}

type fixture struct {
	h     *Handlers
	resp  *fakeResponder
	cu    *fakeClickUp
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("key: %v", err)
	}
	cipher, err := crypto.NewTokenCipher(key)
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	cfg := &config.Config{}
	cfg.General.Timezone = "UTC"
	resp := &fakeResponder{owner: "owner1", msgID: "m-wizard"}
	cu := &fakeClickUp{}

	h := New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		config.NewManager(cfg),
		st, cipher, resp,
		func(string) ClickUp { return cu },
		session.New[*wizard.Draft](time.Hour),
		session.New[*pager.Session](time.Hour),
	)
	h.now = func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) }

	// A configured guild with one responsable channel.
	if err := st.EnsureGuild("g1"); err != nil {
		t.Fatalf("ensure guild: %v", err)
	}
	sealed, err := cipher.Seal("cu-token")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if err := st.SetGuildToken("g1", sealed, "team1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	err = st.UpsertResponsable(store.Responsable{
		GuildID: "g1", Name: "Alice", ChannelID: "chan1", MemberIDs: []string{"u1"},
	})
	if err != nil {
		t.Fatalf("upsert responsable: %v", err)
	}

	return &fixture{h: h, resp: resp, cu: cu, store: st}
}

func command(name, sub string, userID, channelID string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: name,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand, Options: opts},
			},
		},
	}}
}

func component(raw, userID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "chan1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Message:   &discordgo.Message{ID: "m-current"},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: raw,
			Values:   values,
		},
	}}
}

func modal(raw, userID, inputID, value string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   "g1",
		ChannelID: "chan1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: raw,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: inputID, Value: value},
				}},
			},
		},
	}}
}

func ephemeralContent(t *testing.T, resp *discordgo.InteractionResponse) string {
	t.Helper()
	if resp.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Fatalf("response type = %d, want ephemeral message", resp.Type)
	}
	if resp.Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatal("response is not ephemeral")
	}
	return resp.Data.Content
}

func TestCommandRejectedOutsideResponsableChannel(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleInteraction(command("tache", "add", "u1", "random-chan"))

	got := ephemeralContent(t, fx.resp.last(t))
	if got != noticeNoChannel {
		t.Errorf("notice = %q", got)
	}
}

func TestCommandRejectedForNonMember(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleInteraction(command("tache", "add", "stranger", "chan1"))

	if got := ephemeralContent(t, fx.resp.last(t)); got != noticeNotAllowed {
		t.Errorf("notice = %q", got)
	}
}

func TestGuildOwnerBypassesRoster(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleInteraction(command("tache", "add", "owner1", "chan1"))

	if got := fx.resp.last(t); got.Type != discordgo.InteractionResponseModal {
		t.Fatalf("owner should reach the name modal, got type %d", got.Type)
	}
}

func TestNameModalCreatesDraftAndTracksMessage(t *testing.T) {
	fx := newFixture(t)
	fx.cu.spaces = []clickup.Space{{ID: "s1", Name: "Marketing"}}

	fx.h.HandleInteraction(modal(customid.Encode(customid.WizardName, "", ""), "u1", "name", "  Rapport Q1  "))

	if got := fx.resp.last(t); got.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Fatalf("response type = %d", got.Type)
	}
	key := "u1-" + strconv.FormatInt(fx.h.now().UnixMilli(), 10)
	d, ok := fx.h.drafts.Get(key)
	if !ok {
		t.Fatalf("draft %q not stored", key)
	}
	if d.Name != "Rapport Q1" {
		t.Errorf("name = %q, want trimmed", d.Name)
	}
	if d.MessageID != "m-wizard" {
		t.Errorf("message id = %q, want tracked id", d.MessageID)
	}
	if d.Responsable != "Alice" {
		t.Errorf("responsable = %q", d.Responsable)
	}
}

func TestExpiredDraftGetsRestartNotice(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleInteraction(component(customid.Encode(customid.WizardConfirm, "u1-123", ""), "u1"))

	if got := ephemeralContent(t, fx.resp.last(t)); got != noticeExpired {
		t.Errorf("notice = %q", got)
	}
}

func TestDraftOwnershipEnforced(t *testing.T) {
	fx := newFixture(t)
	d := wizard.NewDraft("g1", "chan1", "u1", "Alice", fx.h.now(), time.UTC)
	fx.h.drafts.Put(d.Key, d)

	fx.h.HandleInteraction(component(customid.Encode(customid.WizardCancel, d.Key, ""), "u2"))

	if got := ephemeralContent(t, fx.resp.last(t)); got != noticeNotYours {
		t.Errorf("notice = %q", got)
	}
	if _, ok := fx.h.drafts.Get(d.Key); !ok {
		t.Error("foreign interaction must not delete the draft")
	}
}

func TestConfirmCreatesTaskWithDropdownIndexes(t *testing.T) {
	fx := newFixture(t)
	fx.cu.fields = []clickup.CustomField{
		{ID: "f-resp", Name: "Responsable", Type: "drop_down", TypeConfig: clickup.TypeConfig{
			Options: []clickup.FieldOption{{Name: "Alice", OrderIndex: 2}},
		}},
		{ID: "f-cat", Name: "Catégorie", Type: "drop_down", TypeConfig: clickup.TypeConfig{
			Options: []clickup.FieldOption{{Name: "Compta", OrderIndex: 5}},
		}},
	}

	d := wizard.NewDraft("g1", "chan1", "u1", "Alice", fx.h.now(), time.UTC)
	d.Name = "Rapport Q1"
	d.SpaceID, d.SpaceName = "s1", "Marketing"
	d.ListID, d.ListName = "l1", "Sprint"
	d.Category = "Compta"
	fx.h.drafts.Put(d.Key, d)

	fx.h.HandleInteraction(component(customid.Encode(customid.WizardConfirm, d.Key, ""), "u1"))

	if len(fx.cu.created) != 1 {
		t.Fatalf("created = %d requests", len(fx.cu.created))
	}
	req := fx.cu.created[0]
	if req.Name != "Rapport Q1" || req.Priority != int(task.PriorityNormal) {
		t.Errorf("request = %+v", req)
	}
	if len(req.CustomFields) != 2 {
		t.Fatalf("custom fields = %d, want Responsable + Catégorie", len(req.CustomFields))
	}
	if req.CustomFields[0].Value != 2 || req.CustomFields[1].Value != 5 {
		t.Errorf("dropdown writes must use orderindex: %+v", req.CustomFields)
	}

	if _, ok := fx.h.drafts.Get(d.Key); ok {
		t.Error("draft must be deleted after confirm")
	}
	entries, err := fx.store.ListHistory("g1", 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("history = %v, %v", entries, err)
	}
	if entries[0].Action != "task_create" {
		t.Errorf("history action = %q", entries[0].Action)
	}
}

func TestListeOpensPagerSession(t *testing.T) {
	fx := newFixture(t)
	fx.cu.spaces = []clickup.Space{{ID: "s1", Name: "Marketing"}}
	fx.cu.lists = []clickup.List{{ID: "l1", Name: "Sprint"}}
	fx.cu.tasks = []clickup.Task{
		{ID: "t1", Name: "Ouverte", Status: clickup.Status{Status: "à faire", Type: "open"},
			CustomFields: []clickup.CustomField{respField("Alice")}},
		{ID: "t2", Name: "Autre", Status: clickup.Status{Status: "à faire", Type: "open"},
			CustomFields: []clickup.CustomField{respField("Bob")}},
	}

	fx.h.HandleInteraction(command("tache", "liste", "u1", "chan1"))

	s, ok := fx.h.lists.Get("u1")
	if !ok {
		t.Fatal("no session stored under the invoker key")
	}
	if len(s.Tasks) != 1 || s.Tasks[0].ID != "t1" {
		t.Errorf("tasks = %+v, want only Alice's", s.Tasks)
	}
	if got := fx.resp.last(t); got.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Errorf("response type = %d", got.Type)
	}
}

func respField(value string) clickup.CustomField {
	return clickup.CustomField{
		Name: "Responsable", Type: "drop_down",
		Value: []byte(`"opt1"`),
		TypeConfig: clickup.TypeConfig{Options: []clickup.FieldOption{
			{ID: "opt1", Name: value},
		}},
	}
}

func TestStatusDoneBlockedByOpenSubtasks(t *testing.T) {
	fx := newFixture(t)
	fx.cu.detail = clickup.List{Statuses: []clickup.Status{
		{Status: "à faire", Type: "open"},
		{Status: "achevée", Type: "done"},
	}}
	fx.cu.task = clickup.Task{ID: "t1", Name: "Parent", Subtasks: []clickup.Task{
		{ID: "sub1", Name: "Ouverte", Status: clickup.Status{Status: "à faire", Type: "open"}},
	}}

	s := &pager.Session{
		Tasks:       []task.Summary{{ID: "t1", Name: "Parent", Status: task.StatusTodo, ListID: "l1"}},
		Responsable: "Alice", GuildID: "g1",
	}
	fx.h.lists.Put("u1", s)

	arg := customid.EncodePair("0", string(task.StatusDone))
	fx.h.HandleInteraction(component(customid.Encode(customid.ListStatus, "u1", arg), "u1"))

	if len(fx.cu.statusSets) != 0 {
		t.Fatal("remote status must not change while subtasks are open")
	}
	got := fx.resp.last(t)
	if got.Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("response type = %d", got.Type)
	}
	if !strings.Contains(got.Data.Embeds[0].Description, "Ouverte") {
		t.Errorf("blocked view must list the open subtask: %q", got.Data.Embeds[0].Description)
	}
	if len(s.Tasks) != 1 {
		t.Error("session must stay untouched")
	}
}

func TestStatusDoneRemovesTaskAndRecordsHistory(t *testing.T) {
	fx := newFixture(t)
	fx.cu.detail = clickup.List{Statuses: []clickup.Status{
		{Status: "à faire", Type: "open"},
		{Status: "achevée", Type: "done"},
	}}
	fx.cu.task = clickup.Task{ID: "t1", Name: "Parent"}

	s := &pager.Session{
		Tasks: []task.Summary{
			{ID: "t1", Name: "Parent", Status: task.StatusTodo, ListID: "l1"},
			{ID: "t2", Name: "Autre", Status: task.StatusTodo, ListID: "l1"},
		},
		Responsable: "Alice", GuildID: "g1",
	}
	fx.h.lists.Put("u1", s)

	arg := customid.EncodePair("0", string(task.StatusDone))
	fx.h.HandleInteraction(component(customid.Encode(customid.ListStatus, "u1", arg), "u1"))

	if len(fx.cu.statusSets) != 1 || fx.cu.statusSets[0] != "achevée" {
		t.Fatalf("status sets = %v", fx.cu.statusSets)
	}
	if len(s.Tasks) != 1 || s.Tasks[0].ID != "t2" {
		t.Errorf("session tasks = %+v, want t1 removed", s.Tasks)
	}
	entries, err := fx.store.ListHistory("g1", 10)
	if err != nil || len(entries) != 1 || entries[0].Action != "task_status" {
		t.Fatalf("history = %+v, %v", entries, err)
	}
}

func TestListPageAdvances(t *testing.T) {
	fx := newFixture(t)
	s := &pager.Session{Responsable: "Alice", GuildID: "g1"}
	for n := 0; n < 30; n++ {
		s.Tasks = append(s.Tasks, task.Summary{ID: "t", Name: "Tâche", Status: task.StatusTodo})
	}
	fx.h.lists.Put("u1", s)

	fx.h.HandleInteraction(component(customid.Encode(customid.ListPage, "u1", "next"), "u1"))
	if s.Page != 1 {
		t.Errorf("page = %d, want 1", s.Page)
	}
	fx.h.HandleInteraction(component(customid.Encode(customid.ListPage, "u1", "next"), "u1"))
	if s.Page != 1 {
		t.Errorf("page = %d, want clamp at last page", s.Page)
	}
}

func TestListSessionExpiryIsNotSliding(t *testing.T) {
	fx := newFixture(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	fx.h.lists.SetClock(func() time.Time { return now })

	s := &pager.Session{Responsable: "Alice", GuildID: "g1"}
	for n := 0; n < 30; n++ {
		s.Tasks = append(s.Tasks, task.Summary{ID: "t", Name: "Tâche", Status: task.StatusTodo})
	}
	fx.h.lists.Put("u1", s)

	// Acting just inside the window must not extend it.
	now = now.Add(59 * time.Minute)
	fx.h.HandleInteraction(component(customid.Encode(customid.ListPage, "u1", "next"), "u1"))
	if s.Page != 1 {
		t.Fatalf("page = %d, want 1", s.Page)
	}

	// 90 minutes after the Put, 31 after the last action: expired.
	now = now.Add(31 * time.Minute)
	fx.h.HandleInteraction(component(customid.Encode(customid.ListPage, "u1", "next"), "u1"))
	if got := ephemeralContent(t, fx.resp.last(t)); got != noticeExpired {
		t.Errorf("notice = %q, want expiry", got)
	}
	if s.Page != 1 {
		t.Errorf("expired session must not act, page = %d", s.Page)
	}
}

func TestEmptySelectionIsIgnored(t *testing.T) {
	fx := newFixture(t)
	s := &pager.Session{
		Tasks:       []task.Summary{{ID: "t1", Name: "Tâche", Status: task.StatusTodo}},
		Responsable: "Alice", GuildID: "g1",
	}
	fx.h.lists.Put("u1", s)
	fx.h.HandleInteraction(component(customid.Encode(customid.ListPick, "u1", ""), "u1"))

	d := wizard.NewDraft("g1", "chan1", "u1", "Alice", fx.h.now(), time.UTC)
	fx.h.drafts.Put(d.Key, d)
	fx.h.HandleInteraction(component(customid.Encode(customid.WizardPriority, d.Key, ""), "u1"))

	if len(fx.resp.responses) != 0 {
		t.Fatalf("empty selections must be ignored, got %d responses", len(fx.resp.responses))
	}
	if d.Priority != task.PriorityNormal {
		t.Errorf("priority = %v, want untouched", d.Priority)
	}
}

func TestAdminCommandRequiresRole(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleInteraction(command("pulse", "historique", "u1", "chan1"))

	if got := ephemeralContent(t, fx.resp.last(t)); got != noticeAdminOnly {
		t.Errorf("notice = %q", got)
	}
}

func TestAdminHoraireValidatesClock(t *testing.T) {
	fx := newFixture(t)
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "job", Type: discordgo.ApplicationCommandOptionString, Value: "morning"},
		{Name: "heure", Type: discordgo.ApplicationCommandOptionString, Value: "25:00"},
	}
	fx.h.HandleInteraction(command("pulse", "horaire", "owner1", "chan1", opts...))

	if got := ephemeralContent(t, fx.resp.last(t)); !strings.Contains(got, "Heure invalide") {
		t.Errorf("notice = %q", got)
	}
	g, err := fx.store.GetGuild("g1")
	if err != nil {
		t.Fatalf("get guild: %v", err)
	}
	if g.MorningTime != "" {
		t.Errorf("invalid time must not be stored, got %q", g.MorningTime)
	}

	opts[1].Value = "08:30"
	fx.h.HandleInteraction(command("pulse", "horaire", "owner1", "chan1", opts...))
	g, _ = fx.store.GetGuild("g1")
	if g.MorningTime != "08:30" {
		t.Errorf("morning time = %q, want 08:30", g.MorningTime)
	}
}
