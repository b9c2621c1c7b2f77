package router

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/schedule"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/store"
)

// handleAdmin dispatches the /pulse configuration subcommands. Every branch
// is admin-only and replies ephemerally.
func (h *Handlers) handleAdmin(i *discordgo.InteractionCreate) {
	if err := h.store.EnsureGuild(i.GuildID); err != nil {
		h.log.Error("ensure guild failed", "guild", i.GuildID, "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	g, err := h.store.GetGuild(i.GuildID)
	if err != nil {
		h.log.Error("get guild failed", "guild", i.GuildID, "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	if !h.isAdmin(i, g) {
		h.ephemeral(i, noticeAdminOnly)
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	switch sub.Name {
	case "token":
		h.adminToken(i, sub.Options)
	case "projet":
		h.adminProjet(i, sub.Options)
	case "responsable":
		h.adminResponsable(i, sub.Options)
	case "horaire":
		h.adminHoraire(i, sub.Options)
	case "timezone":
		h.adminTimezone(i, sub.Options)
	case "role":
		h.adminRole(i, sub.Options)
	case "historique":
		h.adminHistorique(i)
	}
}

func (h *Handlers) adminToken(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	token := strings.TrimSpace(stringOption(opts, "token"))
	teamID := strings.TrimSpace(stringOption(opts, "team"))
	if token == "" || teamID == "" {
		h.ephemeral(i, "Token et ID d'équipe requis.")
		return
	}

	sealed, err := h.cipher.Seal(token)
	if err != nil {
		h.log.Error("token seal failed", "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	if err := h.store.SetGuildToken(i.GuildID, sealed, teamID); err != nil {
		h.log.Error("token store failed", "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	h.history(i, "token_set", "équipe "+teamID)
	h.ephemeral(i, "Serveur relié à ClickUp. ✅")
}

func (h *Handlers) adminProjet(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	action := stringOption(opts, "action")
	spaceID := strings.TrimSpace(stringOption(opts, "space"))
	name := strings.TrimSpace(stringOption(opts, "nom"))

	switch action {
	case "add":
		if spaceID == "" || name == "" {
			h.ephemeral(i, "ID du space et nom requis.")
			return
		}
		if err := h.store.AddProject(i.GuildID, spaceID, name); err != nil {
			h.log.Error("add project failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		h.history(i, "project_add", name+" ("+spaceID+")")
		h.ephemeral(i, "Projet **"+name+"** ajouté.")
	case "remove":
		if spaceID == "" {
			h.ephemeral(i, "ID du space requis.")
			return
		}
		if err := h.store.RemoveProject(i.GuildID, spaceID); err != nil {
			h.log.Error("remove project failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		h.history(i, "project_remove", spaceID)
		h.ephemeral(i, "Projet retiré.")
	case "list":
		projects, err := h.store.ListProjects(i.GuildID)
		if err != nil {
			h.log.Error("list projects failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		if len(projects) == 0 {
			h.ephemeral(i, "Aucun projet autorisé (tous les spaces de l'équipe sont visibles).")
			return
		}
		var b strings.Builder
		b.WriteString("Projets autorisés :\n")
		for _, p := range projects {
			fmt.Fprintf(&b, "- **%s** (`%s`)\n", p.Name, p.SpaceID)
		}
		h.ephemeral(i, b.String())
	}
}

func (h *Handlers) adminResponsable(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	action := stringOption(opts, "action")
	name := strings.TrimSpace(stringOption(opts, "nom"))

	switch action {
	case "set":
		channelID := channelOption(opts, "salon")
		if name == "" || channelID == "" {
			h.ephemeral(i, "Nom et salon requis.")
			return
		}
		var members []string
		for _, id := range strings.Split(stringOption(opts, "membres"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				members = append(members, id)
			}
		}
		err := h.store.UpsertResponsable(store.Responsable{
			GuildID:   i.GuildID,
			Name:      name,
			ChannelID: channelID,
			MemberIDs: members,
		})
		if err != nil {
			h.log.Error("upsert responsable failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		h.history(i, "responsable_set", fmt.Sprintf("%s -> <#%s> (%d membres)", name, channelID, len(members)))
		h.ephemeral(i, fmt.Sprintf("Responsable **%s** lié à <#%s>.", name, channelID))
	case "remove":
		if name == "" {
			h.ephemeral(i, "Nom requis.")
			return
		}
		if err := h.store.DeleteResponsable(i.GuildID, name); err != nil {
			h.log.Error("delete responsable failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		h.history(i, "responsable_remove", name)
		h.ephemeral(i, "Responsable **"+name+"** retiré.")
	case "list":
		responsables, err := h.store.ListResponsables(i.GuildID)
		if err != nil {
			h.log.Error("list responsables failed", "error", err)
			h.ephemeral(i, "Erreur interne, réessaie plus tard.")
			return
		}
		if len(responsables) == 0 {
			h.ephemeral(i, "Aucun responsable configuré.")
			return
		}
		var b strings.Builder
		b.WriteString("Responsables :\n")
		for _, r := range responsables {
			fmt.Fprintf(&b, "- **%s** → <#%s> (%d membres)\n", r.Name, r.ChannelID, len(r.MemberIDs))
		}
		h.ephemeral(i, b.String())
	}
}

func (h *Handlers) adminHoraire(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	job := stringOption(opts, "job")
	value := strings.TrimSpace(stringOption(opts, "heure"))

	if value != "" {
		if _, _, err := schedule.ParseClock(value); err != nil {
			h.ephemeral(i, "Heure invalide : HH:MM ou heure seule (0-23).")
			return
		}
	}
	if err := h.store.SetScheduleTime(i.GuildID, job, value); err != nil {
		h.log.Error("set schedule time failed", "job", job, "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	if value == "" {
		h.history(i, "schedule_disable", job)
		h.ephemeral(i, "Envoi **"+job+"** désactivé.")
		return
	}
	h.history(i, "schedule_set", job+" à "+value)
	h.ephemeral(i, "Envoi **"+job+"** réglé à "+value+".")
}

func (h *Handlers) adminTimezone(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	zone := strings.TrimSpace(stringOption(opts, "zone"))
	if _, err := time.LoadLocation(zone); err != nil {
		h.ephemeral(i, "Fuseau inconnu : "+zone)
		return
	}
	if err := h.store.SetGuildTimezone(i.GuildID, zone); err != nil {
		h.log.Error("set timezone failed", "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	h.history(i, "timezone_set", zone)
	h.ephemeral(i, "Fuseau réglé sur "+zone+".")
}

func (h *Handlers) adminRole(i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	roleID := roleOption(opts, "role")
	if roleID == "" {
		h.ephemeral(i, "Rôle requis.")
		return
	}
	if err := h.store.SetGuildAdminRole(i.GuildID, roleID); err != nil {
		h.log.Error("set admin role failed", "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	h.history(i, "admin_role_set", roleID)
	h.ephemeral(i, "Rôle admin mis à jour.")
}

func (h *Handlers) adminHistorique(i *discordgo.InteractionCreate) {
	entries, err := h.store.ListHistory(i.GuildID, 15)
	if err != nil {
		h.log.Error("list history failed", "error", err)
		h.ephemeral(i, "Erreur interne, réessaie plus tard.")
		return
	}
	if len(entries) == 0 {
		h.ephemeral(i, "Aucune action enregistrée.")
		return
	}
	var b strings.Builder
	b.WriteString("Dernières actions :\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s · <@%s> · %s · %s\n",
			e.CreatedAt.Format("02/01 15:04"), e.ActorID, e.Action, e.Details)
	}
	h.ephemeral(i, b.String())
}

// history appends an admin action, logging failures without surfacing them.
func (h *Handlers) history(i *discordgo.InteractionCreate, action, details string) {
	if err := h.store.AppendHistory(i.GuildID, invokerID(i), action, details); err != nil &&
		!errors.Is(err, store.ErrNotFound) {
		h.log.Warn("history append failed", "action", action, "error", err)
	}
}

func channelOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionChannel {
			if v, ok := o.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

func roleOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionRole {
			if v, ok := o.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}
