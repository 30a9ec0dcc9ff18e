package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/embedtpl"
	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/moderation"
	"github.com/TonsaiX/XerlBot/internal/storage"
)

// eventGateway is the slice of platform operations the event handlers need.
// The Discord adapter implements it; tests use a fake.
type eventGateway interface {
	BotStatus(guildID string) (*massrole.BotStatus, error)
	Role(guildID, roleID string) (*massrole.Role, error)
	Member(guildID, userID string) (*massrole.Member, error)
	GrantRole(guildID, userID, roleID, reason string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error)
}

// Handlers binds gateway events to the moderation engine and the
// welcome/leave/auto-role features.
type Handlers struct {
	store    storage.ConfigStore
	engine   *moderation.Engine
	enforcer *moderation.Enforcer
	gw       eventGateway
}

func NewHandlers(store storage.ConfigStore, engine *moderation.Engine, enforcer *moderation.Enforcer, gw eventGateway) *Handlers {
	return &Handlers{store: store, engine: engine, enforcer: enforcer, gw: gw}
}

// Register attaches all event handlers to the session. Must be called before
// Connect so no events are missed.
func (h *Handlers) Register(s *Session) {
	s.AddHandler(h.onGuildCreate)
	s.AddHandler(h.onMessageCreate)
	s.AddHandler(h.onMemberAdd)
	s.AddHandler(h.onMemberRemove)
}

func (h *Handlers) onGuildCreate(sess *discordgo.Session, g *discordgo.GuildCreate) {
	logging.Info("[GUILD] joined/loaded guild %s (%s), %d members", g.Name, g.ID, g.MemberCount)
}

// onMessageCreate feeds the moderation engine. Each message is evaluated to
// completion, including the enforcement side effect, before this handler
// returns; nothing here may panic or propagate an error into the dispatch
// loop.
func (h *Handlers) onMessageCreate(sess *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}

	cfg, err := h.store.GuildConfig(context.Background(), m.GuildID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Error("[MOD] config read failed for guild %s: %v", m.GuildID, err)
		}
		return
	}

	msg := &moderation.Message{
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		MessageID:     m.ID,
		AuthorID:      m.Author.ID,
		Content:       m.Content,
		AuthorIsBot:   m.Author.Bot || m.Author.ID == sess.State.User.ID,
		AuthorIsAdmin: h.isAdmin(sess, m),
	}

	if act := h.engine.Evaluate(msg, cfg, time.Now()); act != nil {
		logging.Info("[MOD] %s in guild %s channel %s: %s (author %s)",
			act.Kind, m.GuildID, m.ChannelID, act.Reason, m.Author.ID)
		h.enforcer.Apply(act, msg)
	}
}

func (h *Handlers) isAdmin(sess *discordgo.Session, m *discordgo.MessageCreate) bool {
	perms, err := sess.State.MessagePermissions(m.Message)
	if err != nil {
		perms, err = sess.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			// Unknown permissions: treat as not exempt rather than letting
			// the lookup failure disable moderation.
			return false
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// onMemberAdd applies the auto-role and sends the welcome embed.
func (h *Handlers) onMemberAdd(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
	cfg, err := h.store.GuildConfig(context.Background(), m.GuildID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Error("[JOIN] config read failed for guild %s: %v", m.GuildID, err)
		}
		return
	}

	if cfg.AutoRoleEnabled && cfg.AutoRoleID != "" {
		h.applyAutoRole(cfg, m)
	}

	if cfg.WelcomeEnabled && cfg.WelcomeChannelID != "" {
		h.sendEventEmbed(sess, cfg.WelcomeChannelID, cfg.WelcomeEmbed, m.GuildID, m.User)
	}
}

func (h *Handlers) applyAutoRole(cfg *storage.GuildConfig, m *discordgo.GuildMemberAdd) {
	status, err := h.gw.BotStatus(m.GuildID)
	if err != nil {
		logging.Warn("[JOIN] auto role: bot status failed in guild %s: %v", m.GuildID, err)
		return
	}
	if !status.CanManageRoles {
		return
	}

	role, err := h.gw.Role(m.GuildID, cfg.AutoRoleID)
	if err != nil || role.Position >= status.TopRolePosition {
		return
	}

	// A member joining with roles (bot with preset role, rejoin with role
	// restore) can already sit above the bot or hold the role.
	member, err := h.gw.Member(m.GuildID, m.User.ID)
	if err != nil || !status.Manageable(member) || member.HasRole(cfg.AutoRoleID) {
		return
	}

	logging.Attempt("auto role grant", func() error {
		return h.gw.GrantRole(m.GuildID, m.User.ID, cfg.AutoRoleID, "Xerl auto role on join")
	})
}

// onMemberRemove sends the leave embed.
func (h *Handlers) onMemberRemove(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
	cfg, err := h.store.GuildConfig(context.Background(), m.GuildID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Error("[LEAVE] config read failed for guild %s: %v", m.GuildID, err)
		}
		return
	}

	if cfg.LeaveEnabled && cfg.LeaveChannelID != "" {
		h.sendEventEmbed(sess, cfg.LeaveChannelID, cfg.LeaveEmbed, m.GuildID, m.User)
	}
}

func (h *Handlers) sendEventEmbed(sess *discordgo.Session, channelID string, tpl *embedtpl.Template, guildID string, user *discordgo.User) {
	ctx := embedtpl.Context{
		UserMention: fmt.Sprintf("<@%s>", user.ID),
		Username:    user.Username,
	}
	if guild, err := sess.State.Guild(guildID); err == nil {
		ctx.ServerName = guild.Name
		ctx.MemberCount = guild.MemberCount
	}

	logging.Attempt("event embed send", func() error {
		_, err := h.gw.SendEmbed(channelID, embedtpl.Render(tpl, ctx))
		return err
	})
}
