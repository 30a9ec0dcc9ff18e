package massrole

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const progressBarWidth = 22

// ProgressBar renders a fixed-width text bar like
// [`████████░░░░`] 40% (4/10).
func ProgressBar(done, total, width int) string {
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
	}
	filled := int(ratio*float64(width) + 0.5)
	empty := width - filled

	return fmt.Sprintf("[`%s%s`] %d%% (%d/%d)",
		strings.Repeat("█", filled),
		strings.Repeat("░", empty),
		int(ratio*100+0.5),
		done, total)
}

func startEmbed(job *Job) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🧩 Xerl • Mass Role Assign",
		Color:       0x6366f1,
		Description: fmt.Sprintf("Assigning role <@&%s>...\nRequested by: <@%s>", job.RoleID, job.RequestedBy),
	}
}

func progressEmbed(job *Job, done, total, success, failed int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🧩 Xerl • Mass Role Assign",
		Color: 0x22c55e,
		Description: fmt.Sprintf("Role: <@&%s>\nMode: %s\n%s\n\n✅ Succeeded: **%d**\n❌ Failed/skipped: **%d**",
			job.RoleID, job.Mode, ProgressBar(done, total, progressBarWidth), success, failed),
		Footer: &discordgo.MessageEmbedFooter{Text: "Working..."},
	}
}

func doneEmbed(job *Job, done, success, failed int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "✅ Xerl • Mass Role Assign complete",
		Color: 0x10b981,
		Description: fmt.Sprintf("Role: <@&%s>\nProcessed: **%d** members\n\n✅ Succeeded: **%d**\n❌ Failed/skipped: **%d**\n\nRequested by: <@%s>",
			job.RoleID, done, success, failed, job.RequestedBy),
		Footer: &discordgo.MessageEmbedFooter{Text: "Done"},
	}
}
