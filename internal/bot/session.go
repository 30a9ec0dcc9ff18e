// Package bot owns the Discord session: connection lifecycle, event handler
// registration, and the gateway adapter the core components call through.
package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/logging"
)

// Session wraps the discordgo session. It is constructed once in main and
// passed to everything that needs the gateway; there is no package-level
// instance.
type Session struct {
	dg    *discordgo.Session
	botID string
}

// New creates a Discord session for the given bot token. The connection is
// not opened until Connect.
func New(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Session{dg: dg}, nil
}

// Connect opens the gateway websocket and records the bot's own user ID.
func (s *Session) Connect() error {
	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}

	if s.dg.State.User != nil {
		s.botID = s.dg.State.User.ID
	}

	logging.Info("Discord bot connected (user %s)", s.botID)
	return nil
}

// Close shuts the gateway connection down.
func (s *Session) Close() error {
	if s.dg != nil {
		return s.dg.Close()
	}
	return nil
}

// BotID returns the bot's own user ID, set after Connect.
func (s *Session) BotID() string {
	return s.botID
}

// AddHandler registers a discordgo event handler.
func (s *Session) AddHandler(handler interface{}) {
	s.dg.AddHandler(handler)
}

// RegisterCommands registers all slash commands globally.
func (s *Session) RegisterCommands(commands []*discordgo.ApplicationCommand) error {
	logging.Info("Registering %d slash commands...", len(commands))

	for _, cmd := range commands {
		_, err := s.dg.ApplicationCommandCreate(s.dg.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
		logging.Info("Registered command: /%s", cmd.Name)
	}

	return nil
}

// Discord returns the gateway adapter for this session.
func (s *Session) Discord() *Discord {
	return &Discord{dg: s.dg}
}
