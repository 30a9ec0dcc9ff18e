package moderation

import (
	"time"

	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/metrics"
)

// Gateway is the slice of platform operations enforcement needs. The bot
// package implements it against the live session; tests use a fake.
type Gateway interface {
	ReplyMessage(channelID, messageID, content string) error
	DeleteMessage(channelID, messageID string) error
	TimeoutMember(guildID, userID string, duration time.Duration, reason string) error
}

// Enforcer executes enforcement actions. Every platform call is best-effort:
// moderation must never raise a fault back into the event stream, and a
// failed delete must not stop a timeout.
type Enforcer struct {
	gw    Gateway
	stats *metrics.Registry
}

func NewEnforcer(gw Gateway, stats *metrics.Registry) *Enforcer {
	return &Enforcer{gw: gw, stats: stats}
}

// Apply carries out act against the triggering message.
func (f *Enforcer) Apply(act *Action, msg *Message) {
	if act == nil {
		return
	}

	f.stats.AddAction(act.Kind)

	switch act.Kind {
	case ActionWarn:
		logging.Attempt("warn reply", func() error {
			return f.gw.ReplyMessage(msg.ChannelID, msg.MessageID, "⚠️ "+act.Reason)
		})

	case ActionDelete:
		logging.Attempt("delete message", func() error {
			return f.gw.DeleteMessage(msg.ChannelID, msg.MessageID)
		})

	case ActionTimeout:
		logging.Attempt("delete message", func() error {
			return f.gw.DeleteMessage(msg.ChannelID, msg.MessageID)
		})
		logging.Attempt("timeout member", func() error {
			d := time.Duration(act.TimeoutSec) * time.Second
			return f.gw.TimeoutMember(msg.GuildID, msg.AuthorID, d, act.Reason)
		})

	default:
		logging.Warn("[MOD] unknown action kind %q for guild %s", act.Kind, msg.GuildID)
	}
}
