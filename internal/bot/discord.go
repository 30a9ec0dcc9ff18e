package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/massrole"
)

// Discord implements the gateway interfaces consumed by the moderation
// enforcer and the mass-role runner against the live session. Every method
// is a single attempt; retries are the platform client's business, not ours.
type Discord struct {
	dg *discordgo.Session
}

// ReplyMessage sends content as a reply to an existing message.
func (d *Discord) ReplyMessage(channelID, messageID, content string) error {
	_, err := d.dg.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		ChannelID: channelID,
		MessageID: messageID,
	})
	return err
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	return d.dg.ChannelMessageDelete(channelID, messageID)
}

func (d *Discord) TimeoutMember(guildID, userID string, duration time.Duration, reason string) error {
	until := time.Now().Add(duration)
	return d.dg.GuildMemberTimeout(guildID, userID, &until, discordgo.WithAuditLogReason(reason))
}

// Channel resolves a channel and whether it accepts plain messages.
func (d *Discord) Channel(guildID, channelID string) (*massrole.Channel, error) {
	ch, err := d.dg.State.Channel(channelID)
	if err != nil {
		ch, err = d.dg.Channel(channelID)
		if err != nil {
			return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
		}
	}

	text := ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
	return &massrole.Channel{ID: ch.ID, Text: text}, nil
}

// BotStatus reports the acting account's permissions and top role position
// in the guild.
func (d *Discord) BotStatus(guildID string) (*massrole.BotStatus, error) {
	guild, err := d.guild(guildID)
	if err != nil {
		return nil, err
	}

	botID := d.dg.State.User.ID
	member, err := d.member(guildID, botID)
	if err != nil {
		return nil, err
	}

	positions := rolePositions(guild)
	status := &massrole.BotStatus{
		TopRolePosition: topPosition(member.Roles, positions),
		IsOwner:         guild.OwnerID == botID,
	}

	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID != roleID {
				continue
			}
			if role.Permissions&(discordgo.PermissionManageRoles|discordgo.PermissionAdministrator) != 0 {
				status.CanManageRoles = true
			}
		}
	}
	if status.IsOwner {
		status.CanManageRoles = true
	}

	return status, nil
}

func (d *Discord) Role(guildID, roleID string) (*massrole.Role, error) {
	guild, err := d.guild(guildID)
	if err != nil {
		return nil, err
	}
	for _, role := range guild.Roles {
		if role.ID == roleID {
			return &massrole.Role{ID: role.ID, Name: role.Name, Position: role.Position}, nil
		}
	}
	return nil, fmt.Errorf("role %s not found in guild %s", roleID, guildID)
}

func (d *Discord) Member(guildID, userID string) (*massrole.Member, error) {
	guild, err := d.guild(guildID)
	if err != nil {
		return nil, err
	}
	m, err := d.member(guildID, userID)
	if err != nil {
		return nil, err
	}
	return toMember(guild, rolePositions(guild), m), nil
}

// Members fetches the full member list, paginating the platform API.
func (d *Discord) Members(guildID string) ([]*massrole.Member, error) {
	guild, err := d.guild(guildID)
	if err != nil {
		return nil, err
	}

	positions := rolePositions(guild)

	var out []*massrole.Member
	after := ""
	for {
		page, err := d.dg.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, fmt.Errorf("fetch members of guild %s: %w", guildID, err)
		}
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			out = append(out, toMember(guild, positions, m))
			after = m.User.ID
		}
		if len(page) < 1000 {
			break
		}
	}

	return out, nil
}

func (d *Discord) GrantRole(guildID, userID, roleID, reason string) error {
	return d.dg.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithAuditLogReason(reason))
}

func (d *Discord) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := d.dg.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (d *Discord) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := d.dg.ChannelMessageEditEmbed(channelID, messageID, embed)
	return err
}

func (d *Discord) SendText(channelID, content string) error {
	_, err := d.dg.ChannelMessageSend(channelID, content)
	return err
}

func (d *Discord) guild(guildID string) (*discordgo.Guild, error) {
	guild, err := d.dg.State.Guild(guildID)
	if err != nil {
		guild, err = d.dg.Guild(guildID)
		if err != nil {
			return nil, fmt.Errorf("fetch guild %s: %w", guildID, err)
		}
	}
	return guild, nil
}

func (d *Discord) member(guildID, userID string) (*discordgo.Member, error) {
	m, err := d.dg.State.Member(guildID, userID)
	if err != nil {
		m, err = d.dg.GuildMember(guildID, userID)
		if err != nil {
			return nil, fmt.Errorf("fetch member %s: %w", userID, err)
		}
	}
	return m, nil
}

func rolePositions(guild *discordgo.Guild) map[string]int {
	positions := make(map[string]int, len(guild.Roles))
	for _, role := range guild.Roles {
		positions[role.ID] = role.Position
	}
	return positions
}

func topPosition(roleIDs []string, positions map[string]int) int {
	top := 0
	for _, id := range roleIDs {
		if p, ok := positions[id]; ok && p > top {
			top = p
		}
	}
	return top
}

func toMember(guild *discordgo.Guild, positions map[string]int, m *discordgo.Member) *massrole.Member {
	return &massrole.Member{
		UserID:          m.User.ID,
		IsBot:           m.User.Bot,
		IsOwner:         guild.OwnerID == m.User.ID,
		TopRolePosition: topPosition(m.Roles, positions),
		RoleIDs:         m.Roles,
	}
}
