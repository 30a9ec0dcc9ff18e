package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/massrole"
)

// handleMassRole validates the invoker and options, acknowledges the
// interaction, then spawns the job. Progress lands in the invoking channel;
// the interaction response is only the kickoff receipt.
func (h *Handler) handleMassRole(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" || i.Member == nil {
		return respondEphemeral(s, i, "This command only works inside a server.")
	}

	if i.Member.Permissions&discordgo.PermissionManageRoles == 0 {
		return respondEphemeral(s, i, "You need the **Manage Roles** permission to use this.")
	}

	opts := optionMap(i.ApplicationCommandData())

	roleOpt, ok := opts["role"]
	if !ok {
		return respondEphemeral(s, i, "A role is required.")
	}
	role := roleOpt.RoleValue(s, i.GuildID)
	if role == nil {
		return respondEphemeral(s, i, "Could not resolve that role.")
	}

	modeOpt, ok := opts["mode"]
	if !ok {
		return respondEphemeral(s, i, "A mode is required.")
	}
	mode := massrole.Mode(modeOpt.StringValue())

	job := &massrole.Job{
		GuildID:         i.GuildID,
		RoleID:          role.ID,
		Mode:            mode,
		NotifyChannelID: i.ChannelID,
		RequestedBy:     i.Member.User.ID,
	}

	switch mode {
	case massrole.ModeOne:
		userOpt, ok := opts["user"]
		if !ok {
			return respondEphemeral(s, i, "Mode ONE needs a target user.")
		}
		user := userOpt.UserValue(s)
		if user == nil {
			return respondEphemeral(s, i, "Could not resolve that user.")
		}
		job.TargetUserID = user.ID
	case massrole.ModeAll:
		if botsOpt, ok := opts["include_bots"]; ok {
			job.IncludeBots = botsOpt.BoolValue()
		}
	default:
		return respondEphemeral(s, i, "Mode must be ALL or ONE.")
	}

	if err := respondEphemeral(s, i, fmt.Sprintf("🧩 Starting mass role assign for <@&%s>...", role.ID)); err != nil {
		return err
	}

	h.spawn(job)
	return nil
}
