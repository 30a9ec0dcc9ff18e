package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// handlePing reports gateway heartbeat and REST round-trip latency.
func handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	wsLatency := s.HeartbeatLatency()

	restStart := time.Now()
	restField := "n/a"
	if _, err := s.Channel(i.ChannelID); err == nil {
		restField = fmt.Sprintf("`%dms`", time.Since(restStart).Milliseconds())
	}

	embed := &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: latencyColor(wsLatency),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "⚡ Gateway", Value: fmt.Sprintf("`%dms`", wsLatency.Milliseconds()), Inline: true},
			{Name: "📡 REST", Value: restField, Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

func latencyColor(d time.Duration) int {
	switch {
	case d < 50*time.Millisecond:
		return 0x22c55e
	case d < 150*time.Millisecond:
		return 0xeab308
	default:
		return 0xef4444
	}
}
