// Package massrole runs bulk role-assignment jobs: resolve a target member
// set, grant the role one member at a time with pacing, and report progress
// by editing a single channel message.
package massrole

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/metrics"
)

// Gateway is the slice of platform operations the runner needs. The bot
// package implements it against the live session; tests use a fake.
type Gateway interface {
	Channel(guildID, channelID string) (*Channel, error)
	BotStatus(guildID string) (*BotStatus, error)
	Role(guildID, roleID string) (*Role, error)
	Member(guildID, userID string) (*Member, error)
	Members(guildID string) ([]*Member, error)
	GrantRole(guildID, userID, roleID, reason string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error)
	EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error
	SendText(channelID, content string) error
}

// Runner executes jobs sequentially per call. Run is fire-and-forget: all
// outcomes are reported through channel messages, never a return value.
type Runner struct {
	gw          Gateway
	limiter     *rate.Limiter
	updateEvery int
	stats       *metrics.Registry
}

// NewRunner builds a runner. delay is the fixed pause between role grants
// (zero disables pacing, used in tests); updateEvery controls how often the
// progress message is refreshed.
func NewRunner(gw Gateway, delay time.Duration, updateEvery int, stats *metrics.Registry) *Runner {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if updateEvery <= 0 {
		updateEvery = 10
	}
	return &Runner{
		gw:          gw,
		limiter:     rate.NewLimiter(limit, 1),
		updateEvery: updateEvery,
		stats:       stats,
	}
}

// Run executes one job to completion. Precondition failures abort with a
// single channel notification; per-member failures are counted and swallowed.
func (r *Runner) Run(ctx context.Context, job *Job) {
	r.stats.AddJobStarted()

	ch, err := r.gw.Channel(job.GuildID, job.NotifyChannelID)
	if err != nil || ch == nil || !ch.Text {
		logging.Warn("[MASSROLE] notify channel %s unusable in guild %s: %v", job.NotifyChannelID, job.GuildID, err)
		r.stats.AddJobAborted()
		return
	}

	bot, err := r.gw.BotStatus(job.GuildID)
	if err != nil {
		r.abort(job, "❌ Could not resolve the bot's own member entry")
		return
	}
	if !bot.CanManageRoles {
		r.abort(job, "❌ The bot is missing the Manage Roles permission")
		return
	}

	role, err := r.gw.Role(job.GuildID, job.RoleID)
	if err != nil {
		r.abort(job, "❌ Role not found")
		return
	}
	if role.Position >= bot.TopRolePosition {
		r.abort(job, "❌ The bot's highest role must be above the target role (move the bot role up)")
		return
	}

	targets, abortMsg := r.resolveTargets(job)
	if abortMsg != "" {
		r.abort(job, abortMsg)
		return
	}
	total := len(targets)

	progress := r.sendOrEdit(job.NotifyChannelID, "", startEmbed(job))

	var done, success, failed int
	for _, m := range targets {
		if !bot.Manageable(m) {
			failed++
		} else if r.grant(job, m) {
			success++
		} else {
			failed++
		}
		done++

		if done == 1 || done%r.updateEvery == 0 || done == total {
			progress = r.sendOrEdit(job.NotifyChannelID, progress, progressEmbed(job, done, total, success, failed))
		}

		if err := r.limiter.Wait(ctx); err != nil {
			logging.Warn("[MASSROLE] job in guild %s interrupted: %v", job.GuildID, err)
			r.stats.AddJobAborted()
			return
		}
	}

	r.sendOrEdit(job.NotifyChannelID, progress, doneEmbed(job, done, success, failed))
	logging.Attempt("final summary", func() error {
		return r.gw.SendText(job.NotifyChannelID,
			fmt.Sprintf("🎉 Done! Granted <@&%s> to **%d** members", job.RoleID, success))
	})

	r.stats.AddJobCompleted()
	logging.Info("[MASSROLE] guild %s role %s: total=%d success=%d failed=%d",
		job.GuildID, job.RoleID, total, success, failed)
}

// resolveTargets fixes the ordered target set before execution starts.
// Members already holding the role are excluded up front so re-runs are
// idempotent.
func (r *Runner) resolveTargets(job *Job) ([]*Member, string) {
	var candidates []*Member

	switch job.Mode {
	case ModeOne:
		if job.TargetUserID == "" {
			return nil, "❌ Mode ONE requires a target user"
		}
		m, err := r.gw.Member(job.GuildID, job.TargetUserID)
		if err != nil {
			return nil, "❌ Member not found in this guild"
		}
		candidates = []*Member{m}

	case ModeAll:
		members, err := r.gw.Members(job.GuildID)
		if err != nil {
			return nil, "❌ Could not fetch the member list"
		}
		for _, m := range members {
			if m.IsBot && !job.IncludeBots {
				continue
			}
			candidates = append(candidates, m)
		}

	default:
		return nil, fmt.Sprintf("❌ Unknown mode %q", job.Mode)
	}

	targets := candidates[:0]
	for _, m := range candidates {
		if !m.HasRole(job.RoleID) {
			targets = append(targets, m)
		}
	}
	return targets, ""
}

func (r *Runner) grant(job *Job, m *Member) bool {
	ok := logging.Attempt("role grant", func() error {
		reason := fmt.Sprintf("Xerl massrole by %s", job.RequestedBy)
		return r.gw.GrantRole(job.GuildID, m.UserID, job.RoleID, reason)
	})
	r.stats.AddRoleGrant(ok)
	return ok
}

// sendOrEdit edits the live progress message, falling back to sending a
// fresh one when the edit fails (e.g. the message was deleted externally).
// It returns the message ID to use for the next update.
func (r *Runner) sendOrEdit(channelID, messageID string, embed *discordgo.MessageEmbed) string {
	if messageID != "" {
		if err := r.gw.EditEmbed(channelID, messageID, embed); err == nil {
			return messageID
		}
	}
	id, err := r.gw.SendEmbed(channelID, embed)
	if err != nil {
		logging.Debug("[MASSROLE] progress send failed: %v", err)
		return messageID
	}
	return id
}

func (r *Runner) abort(job *Job, text string) {
	logging.Warn("[MASSROLE] job aborted in guild %s: %s", job.GuildID, text)
	logging.Attempt("abort notice", func() error {
		return r.gw.SendText(job.NotifyChannelID, text)
	})
	r.stats.AddJobAborted()
}
