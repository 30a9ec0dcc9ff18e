package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/bot"
	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/storage"
)

// Handler routes slash command interactions. spawn starts a mass-role job
// under the process lifetime, so in-flight jobs stop pacing on shutdown no
// matter which surface started them.
type Handler struct {
	store storage.ConfigStore
	spawn func(*massrole.Job)
	gw    *bot.Discord
}

func NewHandler(store storage.ConfigStore, spawn func(*massrole.Job), gw *bot.Discord) *Handler {
	return &Handler{store: store, spawn: spawn, gw: gw}
}

// Attach registers the interaction handler and the command definitions.
// Command registration requires an open session, so callers run this after
// Connect.
func (h *Handler) Attach(s *bot.Session) error {
	s.AddHandler(h.handleInteraction)

	commands := Definitions()
	if err := s.RegisterCommands(commands); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()

	var err error
	switch data.Name {
	case "alert":
		err = h.handleAlert(s, i)
	case "massrole":
		err = h.handleMassRole(s, i)
	case "ping":
		err = handlePing(s, i)
	case "stats":
		err = handleStats(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondEphemeral sends an ephemeral plain-text response
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// optionMap flattens command options by name
func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}
