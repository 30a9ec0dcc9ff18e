// Package moderation evaluates inbound messages against a guild's anti-link
// and anti-spam rules and applies the resulting enforcement action.
package moderation

import (
	"fmt"
	"time"

	"github.com/TonsaiX/XerlBot/internal/metrics"
	"github.com/TonsaiX/XerlBot/internal/ratetrack"
	"github.com/TonsaiX/XerlBot/internal/storage"
	"github.com/TonsaiX/XerlBot/pkg/util"
)

// Fallbacks applied when the console stored a partial record.
const (
	defaultAction     = ActionDelete
	defaultTimeoutSec = 300
	defaultWindowSec  = 5
	defaultMaxMsgs    = 5
)

// Engine makes the per-message moderation decision. Anti-link is always
// evaluated before anti-spam and only one action fires per message.
type Engine struct {
	tracker *ratetrack.Tracker
	stats   *metrics.Registry
}

func NewEngine(tracker *ratetrack.Tracker, stats *metrics.Registry) *Engine {
	return &Engine{tracker: tracker, stats: stats}
}

// Evaluate returns the enforcement action for msg, or nil when nothing fires.
// Administrators, bots and messages without a guild or author are exempt.
// The anti-spam window is advanced even when anti-spam does not trigger.
func (e *Engine) Evaluate(msg *Message, cfg *storage.GuildConfig, now time.Time) *Action {
	if msg.GuildID == "" || msg.AuthorID == "" {
		return nil
	}
	if msg.AuthorIsBot || msg.AuthorIsAdmin {
		return nil
	}
	if cfg == nil {
		return nil
	}

	e.stats.AddEvaluated()

	if act := e.checkAntiLink(msg, cfg); act != nil {
		e.stats.AddAntiLinkHit()
		return act
	}

	if act := e.checkAntiSpam(msg, cfg, now); act != nil {
		e.stats.AddAntiSpamHit()
		return act
	}

	return nil
}

func (e *Engine) checkAntiLink(msg *Message, cfg *storage.GuildConfig) *Action {
	if !cfg.AntiLinkEnabled {
		return nil
	}
	if !inScope(cfg.AntiLinkScope, cfg.AntiLinkChannelIDs, msg.ChannelID) {
		return nil
	}

	hosts := ExtractHostnames(msg.Content)
	if len(hosts) == 0 {
		return nil
	}

	for _, host := range hosts {
		if !HostAllowed(host, cfg.AntiLinkAllowDomains) {
			return &Action{
				Kind:       actionOrDefault(cfg.AntiLinkAction),
				TimeoutSec: timeoutOrDefault(cfg.AntiLinkTimeoutSec),
				Reason:     "link not permitted",
			}
		}
	}

	return nil
}

func (e *Engine) checkAntiSpam(msg *Message, cfg *storage.GuildConfig, now time.Time) *Action {
	if !cfg.AntiSpamEnabled {
		return nil
	}
	if !inScope(cfg.AntiSpamScope, cfg.AntiSpamChannelIDs, msg.ChannelID) {
		return nil
	}

	guildID, err := util.StringToUint64(msg.GuildID)
	if err != nil {
		return nil
	}
	authorID, err := util.StringToUint64(msg.AuthorID)
	if err != nil {
		return nil
	}

	windowSec := cfg.AntiSpamWindowSec
	if windowSec <= 0 {
		windowSec = defaultWindowSec
	}
	maxMessages := cfg.AntiSpamMaxMessages
	if maxMessages <= 0 {
		maxMessages = defaultMaxMsgs
	}

	count := e.tracker.RecordAndCount(guildID, authorID, now, time.Duration(windowSec)*time.Second)
	if count <= maxMessages {
		return nil
	}

	return &Action{
		Kind:       actionOrDefault(cfg.AntiSpamAction),
		TimeoutSec: timeoutOrDefault(cfg.AntiSpamTimeoutSec),
		Reason:     fmt.Sprintf("message rate exceeded %d/%ds", maxMessages, windowSec),
	}
}

// inScope applies the detector scope rule. CHANNELS scope with an empty
// channel set never matches.
func inScope(scope string, channelIDs []string, channelID string) bool {
	switch scope {
	case storage.ScopeGuild, "":
		return true
	case storage.ScopeChannels:
		for _, id := range channelIDs {
			if id == channelID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func actionOrDefault(action string) string {
	if action == "" {
		return defaultAction
	}
	return action
}

func timeoutOrDefault(sec int) int {
	if sec <= 0 {
		return defaultTimeoutSec
	}
	return sec
}
