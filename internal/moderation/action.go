package moderation

// Enforcement action kinds, as stored on the guild configuration record.
const (
	ActionWarn    = "WARN"
	ActionDelete  = "DELETE"
	ActionTimeout = "TIMEOUT"
)

// Action is the single enforcement decision produced for a message. At most
// one action fires per message.
type Action struct {
	Kind       string
	TimeoutSec int
	Reason     string
}

// Message is the slice of a message-create event the engine consumes.
type Message struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string

	AuthorIsBot   bool
	AuthorIsAdmin bool
}
