package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/embedtpl"
	"github.com/TonsaiX/XerlBot/internal/storage"
)

// handleAlert renders the guild's alert embed template into the configured
// alert channel.
func (h *Handler) handleAlert(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" || i.Member == nil {
		return respondEphemeral(s, i, "This command only works inside a server.")
	}

	cfg, err := h.store.GuildConfig(context.Background(), i.GuildID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return respondEphemeral(s, i, "This server has not been configured yet.")
		}
		return fmt.Errorf("load guild config: %w", err)
	}

	if !cfg.AlertEnabled {
		return respondEphemeral(s, i, "Alerts are disabled for this server.")
	}
	if cfg.AlertChannelID == "" {
		return respondEphemeral(s, i, "No alert channel is configured.")
	}

	ctx := embedtpl.Context{
		UserMention: fmt.Sprintf("<@%s>", i.Member.User.ID),
		Username:    i.Member.User.Username,
	}
	if guild, err := s.State.Guild(i.GuildID); err == nil {
		ctx.ServerName = guild.Name
		ctx.MemberCount = guild.MemberCount
	}

	if _, err := h.gw.SendEmbed(cfg.AlertChannelID, embedtpl.Render(cfg.AlertEmbed, ctx)); err != nil {
		return respondEphemeral(s, i, "Could not send the alert. Check the bot's channel permissions.")
	}

	return respondEphemeral(s, i, fmt.Sprintf("📣 Alert sent to <#%s>.", cfg.AlertChannelID))
}
