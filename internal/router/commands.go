package router

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Commands declares the bot's slash surface: the member-facing /tache family
// and the admin-facing /pulse family.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "tache",
			Description: "Tâches ClickUp du responsable de ce salon",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Créer une tâche",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "liste",
					Description: "Lister les tâches en cours",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "projet",
							Description: "Limiter à un projet",
						},
					},
				},
			},
		},
		{
			Name:        "pulse",
			Description: "Configuration du bot (admins)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "token",
					Description: "Relier le serveur à ClickUp",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "token", Description: "Token API ClickUp", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "team", Description: "ID de l'équipe ClickUp", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "projet",
					Description: "Gérer les projets autorisés",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "action", Description: "add, remove ou list", Required: true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "add", Value: "add"},
								{Name: "remove", Value: "remove"},
								{Name: "list", Value: "list"},
							}},
						{Type: discordgo.ApplicationCommandOptionString, Name: "space", Description: "ID du space ClickUp"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "nom", Description: "Nom affiché"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "responsable",
					Description: "Lier un responsable à un salon",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "action", Description: "set, remove ou list", Required: true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "set", Value: "set"},
								{Name: "remove", Value: "remove"},
								{Name: "list", Value: "list"},
							}},
						{Type: discordgo.ApplicationCommandOptionString, Name: "nom", Description: "Nom du responsable (option ClickUp)"},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "salon", Description: "Salon dédié"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "membres", Description: "IDs Discord séparés par des virgules"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "horaire",
					Description: "Régler l'heure d'un envoi planifié",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "job", Description: "Envoi planifié", Required: true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "briefing du matin", Value: "morning"},
								{Name: "digest du lundi", Value: "digest"},
								{Name: "retards", Value: "overdue"},
								{Name: "échéances de demain", Value: "tomorrow"},
								{Name: "stats du vendredi", Value: "stats"},
								{Name: "achevées du jour", Value: "completed"},
							}},
						{Type: discordgo.ApplicationCommandOptionString, Name: "heure", Description: "HH:MM, heure seule, ou vide pour désactiver"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "timezone",
					Description: "Régler le fuseau horaire du serveur",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "zone", Description: "Ex: Europe/Paris", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "role",
					Description: "Définir le rôle admin du bot",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Rôle admin", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "historique",
					Description: "Dernières actions d'administration",
				},
			},
		},
	}
}

// RegisterCommands overwrites the application's global slash commands.
func (h *Handlers) RegisterCommands(s *discordgo.Session, appID string) error {
	if _, err := s.ApplicationCommandBulkOverwrite(appID, "", Commands()); err != nil {
		return fmt.Errorf("router: register commands: %w", err)
	}
	return nil
}

func (h *Handlers) handleCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "tache":
		if len(data.Options) == 0 {
			return
		}
		sub := data.Options[0]
		switch sub.Name {
		case "add":
			h.commandTacheAdd(i)
		case "liste":
			h.commandTacheListe(i, stringOption(sub.Options, "projet"))
		}
	case "pulse":
		h.handleAdmin(i)
	}
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}
