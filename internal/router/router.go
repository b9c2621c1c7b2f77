// Package router decodes Discord interactions into typed controls and
// dispatches them to the wizard, the list pager and the admin commands.
package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
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

// ClickUp is the remote surface the handlers need; *clickup.Client satisfies
// it, tests use fakes.
type ClickUp interface {
	task.API
	Spaces(ctx context.Context, teamID string) ([]clickup.Space, error)
	ListDetail(ctx context.Context, listID string) (clickup.List, error)
	ListFields(ctx context.Context, listID string) ([]clickup.CustomField, error)
	Task(ctx context.Context, taskID string) (clickup.Task, error)
	CreateTask(ctx context.Context, listID string, req clickup.CreateTaskRequest) (clickup.Task, error)
	SetTaskStatus(ctx context.Context, taskID, status string) error
}

// ErrNotConfigured marks a guild without a stored ClickUp token.
var ErrNotConfigured = errors.New("router: guild not configured")

const (
	noticeNotConfigured = "Ce serveur n'est pas encore relié à ClickUp. Un admin doit lancer `/pulse token`."
	noticeNoChannel     = "Ce salon n'est lié à aucun responsable."
	noticeNotAllowed    = "Tu n'es pas membre de ce responsable."
	noticeExpired       = "Cette session a expiré. Relance la commande."
	noticeNotYours      = "Ce brouillon ne t'appartient pas."
	noticeAdminOnly     = "Commande réservée aux admins."
)

// Handlers routes every interaction of the bot. All collaborators are
// injected; nothing here reaches for globals.
type Handlers struct {
	log       *slog.Logger
	cfg       config.ConfigManager
	store     *store.Store
	cipher    *crypto.TokenCipher
	resp      Responder
	newClient func(token string) ClickUp
	drafts    *session.Store[*wizard.Draft]
	lists     *session.Store[*pager.Session]
	now       func() time.Time
}

// New wires the handler set.
func New(
	log *slog.Logger,
	cfg config.ConfigManager,
	st *store.Store,
	cipher *crypto.TokenCipher,
	resp Responder,
	newClient func(token string) ClickUp,
	drafts *session.Store[*wizard.Draft],
	lists *session.Store[*pager.Session],
) *Handlers {
	return &Handlers{
		log:       log.With("component", "router"),
		cfg:       cfg,
		store:     st,
		cipher:    cipher,
		resp:      resp,
		newClient: newClient,
		drafts:    drafts,
		lists:     lists,
		now:       time.Now,
	}
}

// Bind registers the interaction handler on a live session.
func (h *Handlers) Bind(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		h.HandleInteraction(i)
	})
}

// HandleInteraction is the single entry point for every interaction.
func (h *Handlers) HandleInteraction(i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(i, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		h.handleModal(i, i.ModalSubmitData().CustomID)
	}
}

type handlerFunc func(h *Handlers, i *discordgo.InteractionCreate, id customid.ID)

// componentRoutes is the explicit dispatch table for message components.
var componentRoutes = map[customid.Kind]handlerFunc{
	customid.WizardSpace:        (*Handlers).wizardSpacePicked,
	customid.WizardList:         (*Handlers).wizardListPicked,
	customid.WizardCategory:     (*Handlers).wizardCategoryPicked,
	customid.WizardCategoryPage: (*Handlers).wizardCategoryPage,
	customid.WizardCategoryBack: (*Handlers).wizardCategoryBack,
	customid.WizardParam:        (*Handlers).wizardParamPicked,
	customid.WizardPriority:     (*Handlers).wizardPriorityPicked,
	customid.WizardBack:         (*Handlers).wizardBack,
	customid.WizardConfirm:      (*Handlers).wizardConfirm,
	customid.WizardCancel:       (*Handlers).wizardCancel,
	customid.ListPage:           (*Handlers).listPage,
	customid.ListPick:           (*Handlers).listPick,
	customid.ListStatus:         (*Handlers).listStatus,
	customid.ListBack:           (*Handlers).listBack,
}

// modalRoutes is the dispatch table for modal submissions.
var modalRoutes = map[customid.Kind]handlerFunc{
	customid.WizardName:      (*Handlers).wizardNameSubmitted,
	customid.WizardRename:    (*Handlers).wizardRenameSubmitted,
	customid.WizardStartDate: (*Handlers).wizardDateSubmitted,
	customid.WizardDueDate:   (*Handlers).wizardDateSubmitted,
}

func (h *Handlers) handleComponent(i *discordgo.InteractionCreate, raw string) {
	id, err := customid.Parse(raw)
	if err != nil {
		h.log.Warn("unroutable component", "custom_id", raw, "error", err)
		return
	}
	route, ok := componentRoutes[id.Kind]
	if !ok {
		h.log.Warn("component kind without route", "kind", id.Kind)
		return
	}
	route(h, i, id)
}

func (h *Handlers) handleModal(i *discordgo.InteractionCreate, raw string) {
	id, err := customid.Parse(raw)
	if err != nil {
		h.log.Warn("unroutable modal", "custom_id", raw, "error", err)
		return
	}
	route, ok := modalRoutes[id.Kind]
	if !ok {
		h.log.Warn("modal kind without route", "kind", id.Kind)
		return
	}
	route(h, i, id)
}

// guildClient decrypts the guild token and builds a ClickUp client.
func (h *Handlers) guildClient(guildID string) (ClickUp, store.Guild, error) {
	g, err := h.store.GetGuild(guildID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.Guild{}, ErrNotConfigured
		}
		return nil, store.Guild{}, err
	}
	if g.ClickUpTokenEnc == "" {
		return nil, g, ErrNotConfigured
	}
	token, err := h.cipher.Open(g.ClickUpTokenEnc)
	if err != nil {
		return nil, g, err
	}
	return h.newClient(token), g, nil
}

// guildLocation resolves the guild's schedule timezone, falling back to the
// process default.
func (h *Handlers) guildLocation(g store.Guild) *time.Location {
	if g.Timezone != "" {
		if loc, err := time.LoadLocation(g.Timezone); err == nil {
			return loc
		}
	}
	return h.cfg.Get().Location()
}

// selectableSpaces lists the guild's projects: the allow-list when one is
// configured, otherwise every space of the team.
func (h *Handlers) selectableSpaces(ctx context.Context, api ClickUp, g store.Guild) ([]clickup.Space, error) {
	projects, err := h.store.ListProjects(g.GuildID)
	if err != nil {
		return nil, err
	}
	if len(projects) > 0 {
		spaces := make([]clickup.Space, 0, len(projects))
		for _, p := range projects {
			spaces = append(spaces, clickup.Space{ID: p.SpaceID, Name: p.Name})
		}
		return spaces, nil
	}
	return api.Spaces(ctx, g.TeamID)
}

// spaceIDs resolves the spaces a fetch walks, optionally narrowed to one
// project by name.
func (h *Handlers) spaceIDs(ctx context.Context, api ClickUp, g store.Guild, projectFilter string) ([]string, error) {
	spaces, err := h.selectableSpaces(ctx, api, g)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, s := range spaces {
		if projectFilter != "" && !strings.EqualFold(s.Name, projectFilter) {
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// isAdmin reports whether the invoker holds the guild admin role or owns the
// guild.
func (h *Handlers) isAdmin(i *discordgo.InteractionCreate, g store.Guild) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	if g.AdminRoleID != "" {
		for _, role := range i.Member.Roles {
			if role == g.AdminRoleID {
				return true
			}
		}
	}
	owner, err := h.resp.GuildOwner(i.GuildID)
	if err != nil {
		h.log.Warn("guild owner lookup failed", "guild", i.GuildID, "error", err)
		return false
	}
	return owner == i.Member.User.ID
}

// entryCheck enforces the command precondition: the channel must belong to a
// responsable and the invoker must be on its roster, hold the admin role or
// own the guild. Returns the responsable on success.
func (h *Handlers) entryCheck(i *discordgo.InteractionCreate, g store.Guild) (store.Responsable, bool) {
	r, err := h.store.ResponsableByChannel(i.GuildID, i.ChannelID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.ephemeral(i, noticeNoChannel)
		} else {
			h.log.Error("responsable lookup failed", "channel", i.ChannelID, "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		}
		return store.Responsable{}, false
	}
	if r.HasMember(invokerID(i)) || h.isAdmin(i, g) {
		return r, true
	}
	h.ephemeral(i, noticeNotAllowed)
	return store.Responsable{}, false
}

// selectedValue returns the single value of a select-menu interaction. A
// payload without values is reported as absent, never indexed.
func selectedValue(i *discordgo.InteractionCreate) (string, bool) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// ephemeral answers an interaction with a private notice.
func (h *Handlers) ephemeral(i *discordgo.InteractionCreate, content string) {
	err := h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.log.Warn("ephemeral reply failed", "error", err)
	}
}

// update answers a component interaction by rewriting its message.
func (h *Handlers) update(i *discordgo.InteractionCreate, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: components,
		},
	})
	if err != nil {
		h.log.Warn("message update failed", "error", err)
	}
}

// remoteNotice surfaces a remote failure without mutating any state.
func (h *Handlers) remoteNotice(i *discordgo.InteractionCreate, err error) {
	h.log.Error("clickup call failed", "error", err)
	if errors.Is(err, ErrNotConfigured) {
		h.ephemeral(i, noticeNotConfigured)
		return
	}
	h.ephemeral(i, "L'appel ClickUp a échoué : "+err.Error())
}
