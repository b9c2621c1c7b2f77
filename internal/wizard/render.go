package wizard

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/customid"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

const (
	colorNeutral = 0x5865F2
	colorSuccess = 0x57F287
	colorFailure = 0xED4245
)

// selectPageSize is Discord's hard option ceiling per select menu.
const selectPageSize = 25

// MaxNameLength caps task names, matching the remote UI.
const MaxNameLength = 100

// View is one rendered wizard state: the embeds and components of the single
// recap message.
type View struct {
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// NameModal is the initial modal prompting for the task name.
func NameModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customid.Encode(customid.WizardName, "", ""),
		Title:    "Nouvelle tâche",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  "name",
					Label:     "Nom de la tâche",
					Style:     discordgo.TextInputShort,
					Required:  true,
					MaxLength: MaxNameLength,
				},
			}},
		},
	}
}

// RenameModal edits the task name of an existing draft.
func RenameModal(d *Draft) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customid.Encode(customid.WizardRename, d.Key, ""),
		Title:    "Renommer la tâche",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  "name",
					Label:     "Nom de la tâche",
					Style:     discordgo.TextInputShort,
					Required:  true,
					MaxLength: MaxNameLength,
					Value:     d.Name,
				},
			}},
		},
	}
}

// DateModal prompts for a start or due date in DD/MM/YYYY.
func DateModal(d *Draft, kind customid.Kind) *discordgo.InteractionResponseData {
	title := "Date de début"
	if kind == customid.WizardDueDate {
		title = "Date d'échéance"
	}
	return &discordgo.InteractionResponseData{
		CustomID: customid.Encode(kind, d.Key, ""),
		Title:    title,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "date",
					Label:       title + " (JJ/MM/AAAA)",
					Style:       discordgo.TextInputShort,
					Placeholder: "31/12/2026",
					Required:    true,
					MaxLength:   10,
				},
			}},
		},
	}
}

// Recap renders the draft's single source-of-truth view: current fields, the
// parameter selector and the confirm/cancel controls.
func Recap(d *Draft) View {
	embed := &discordgo.MessageEmbed{
		Title: "📝 " + d.Name,
		Color: colorNeutral,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Projet", Value: orDash(d.SpaceName), Inline: true},
			{Name: "Liste", Value: orDash(d.ListName), Inline: true},
			{Name: "Responsable", Value: orDash(d.Responsable), Inline: true},
			{Name: "Priorité", Value: d.Priority.Label(), Inline: true},
			{Name: "Début", Value: formatDate(d.StartDate), Inline: true},
			{Name: "Échéance", Value: formatDate(d.DueDate), Inline: true},
			{Name: "Catégorie", Value: orDash(d.Category), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Complète la tâche puis confirme."},
	}

	params := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.WizardParam, d.Key, ""),
		Placeholder: "Ajouter un paramètre",
		Options: []discordgo.SelectMenuOption{
			{Label: "Nom", Value: "name", Description: "Renommer la tâche"},
			{Label: "Date de début", Value: "start"},
			{Label: "Échéance", Value: "due"},
			{Label: "Priorité", Value: "priority"},
			{Label: "Catégorie", Value: "category"},
			{Label: "Emplacement", Value: "location", Description: "Changer de projet ou de liste"},
		},
	}

	confirm := discordgo.Button{
		Label:    "Confirmer",
		Style:    discordgo.SuccessButton,
		CustomID: customid.Encode(customid.WizardConfirm, d.Key, ""),
		Disabled: !d.HasLocation(),
	}
	cancel := discordgo.Button{
		Label:    "Annuler",
		Style:    discordgo.DangerButton,
		CustomID: customid.Encode(customid.WizardCancel, d.Key, ""),
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{params}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{confirm, cancel}},
		},
	}
}

// SpaceSelect renders the project choice step.
func SpaceSelect(d *Draft, spaces []clickup.Space) View {
	options := make([]discordgo.SelectMenuOption, 0, selectPageSize)
	for _, space := range spaces {
		if len(options) == selectPageSize {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(space.Name, MaxNameLength),
			Value: customid.EncodePair(space.ID, space.Name),
		})
	}

	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.WizardSpace, d.Key, ""),
		Placeholder: "Choisis un projet",
		Options:     options,
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📝 " + d.Name,
			Description: "Dans quel projet créer cette tâche ?",
			Color:       colorNeutral,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
			backRow(d),
		},
	}
}

// ListSelect renders the list choice step inside the pending project.
func ListSelect(d *Draft, lists []clickup.List) View {
	options := make([]discordgo.SelectMenuOption, 0, selectPageSize)
	for _, list := range lists {
		if len(options) == selectPageSize {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(list.Name, MaxNameLength),
			Value: customid.EncodePair(list.ID, list.Name),
		})
	}

	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.WizardList, d.Key, ""),
		Placeholder: "Choisis une liste",
		Options:     options,
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📝 " + d.Name,
			Description: fmt.Sprintf("Projet **%s** — choisis une liste.", d.PendingSpaceName),
			Color:       colorNeutral,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
			backRow(d),
		},
	}
}

// CategorySelect renders one page of the list's category values.
func CategorySelect(d *Draft) View {
	total := len(d.Categories)
	totalPages := (total + selectPageSize - 1) / selectPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := d.CategoryPage
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * selectPageSize
	end := start + selectPageSize
	if end > total {
		end = total
	}

	options := make([]discordgo.SelectMenuOption, 0, end-start)
	for _, cat := range d.Categories[start:end] {
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(cat, MaxNameLength),
			Value: truncate(cat, MaxNameLength),
		})
	}

	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.WizardCategory, d.Key, ""),
		Placeholder: "Choisis une catégorie",
		Options:     options,
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
	}
	nav := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "◀",
			Style:    discordgo.SecondaryButton,
			CustomID: customid.Encode(customid.WizardCategoryPage, d.Key, "prev"),
			Disabled: page == 0,
		},
		discordgo.Button{
			Label:    "▶",
			Style:    discordgo.SecondaryButton,
			CustomID: customid.Encode(customid.WizardCategoryPage, d.Key, "next"),
			Disabled: page == totalPages-1,
		},
		discordgo.Button{
			Label:    "Passer",
			Style:    discordgo.SecondaryButton,
			CustomID: customid.Encode(customid.WizardCategoryBack, d.Key, ""),
		},
	}
	rows = append(rows, discordgo.ActionsRow{Components: nav})

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📝 " + d.Name,
			Description: fmt.Sprintf("Catégorie (page %d/%d)", page+1, totalPages),
			Color:       colorNeutral,
		}},
		Components: rows,
	}
}

// PrioritySelect renders the four-level priority choice.
func PrioritySelect(d *Draft) View {
	options := make([]discordgo.SelectMenuOption, 0, 4)
	for _, p := range task.Priorities() {
		options = append(options, discordgo.SelectMenuOption{
			Label:   p.Label(),
			Value:   fmt.Sprintf("%d", int(p)),
			Default: p == d.Priority,
		})
	}

	menu := discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    customid.Encode(customid.WizardPriority, d.Key, ""),
		Placeholder: "Choisis une priorité",
		Options:     options,
	}

	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📝 " + d.Name,
			Description: "Quelle priorité ?",
			Color:       colorNeutral,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}},
			backRow(d),
		},
	}
}

// Success is the terminal view after the remote task was created.
func Success(d *Draft) View {
	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "✅ Tâche créée",
			Description: fmt.Sprintf("**%s** a été créée dans **%s / %s**.", d.Name, d.SpaceName, d.ListName),
			Color:       colorSuccess,
		}},
		Components: []discordgo.MessageComponent{},
	}
}

// Failure is the terminal view after a failed creation. The draft is gone;
// the user restarts the flow.
func Failure(d *Draft, err error) View {
	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "❌ Création échouée",
			Description: fmt.Sprintf("**%s** n'a pas pu être créée : %v\nRelance `/tache add` pour réessayer.", d.Name, err),
			Color:       colorFailure,
		}},
		Components: []discordgo.MessageComponent{},
	}
}

// Cancelled is the terminal view after an explicit cancel.
func Cancelled() View {
	return View{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🚫 Création annulée",
			Color: colorFailure,
		}},
		Components: []discordgo.MessageComponent{},
	}
}

func backRow(d *Draft) discordgo.MessageComponent {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Retour",
			Style:    discordgo.SecondaryButton,
			CustomID: customid.Encode(customid.WizardBack, d.Key, ""),
		},
	}}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
