package storage

import "github.com/TonsaiX/XerlBot/internal/embedtpl"

// Detector scopes.
const (
	ScopeGuild    = "GUILD"
	ScopeChannels = "CHANNELS"
)

// GuildConfig is the per-guild configuration record maintained by the web
// console. The bot only ever reads it; writes come from the console backend
// through UpsertGuildConfig.
type GuildConfig struct {
	GuildID string

	WelcomeEnabled   bool
	WelcomeChannelID string
	WelcomeEmbed     *embedtpl.Template

	LeaveEnabled   bool
	LeaveChannelID string
	LeaveEmbed     *embedtpl.Template

	AlertEnabled   bool
	AlertChannelID string
	AlertEmbed     *embedtpl.Template

	AutoRoleEnabled bool
	AutoRoleID      string

	AntiSpamEnabled     bool
	AntiSpamScope       string
	AntiSpamChannelIDs  []string
	AntiSpamWindowSec   int
	AntiSpamMaxMessages int
	AntiSpamAction      string
	AntiSpamTimeoutSec  int

	AntiLinkEnabled      bool
	AntiLinkScope        string
	AntiLinkChannelIDs   []string
	AntiLinkAllowDomains []string
	AntiLinkAction       string
	AntiLinkTimeoutSec   int

	CreatedAt int64
	UpdatedAt int64
}
