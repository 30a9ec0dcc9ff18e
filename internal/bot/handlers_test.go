package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/storage"
)

type fakeEventGateway struct {
	bot    *massrole.BotStatus
	role   *massrole.Role
	member *massrole.Member

	memberErr error

	grants []string
}

func (f *fakeEventGateway) BotStatus(guildID string) (*massrole.BotStatus, error) {
	if f.bot == nil {
		return nil, errors.New("no bot status")
	}
	return f.bot, nil
}

func (f *fakeEventGateway) Role(guildID, roleID string) (*massrole.Role, error) {
	if f.role == nil {
		return nil, errors.New("role not found")
	}
	return f.role, nil
}

func (f *fakeEventGateway) Member(guildID, userID string) (*massrole.Member, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	return f.member, nil
}

func (f *fakeEventGateway) GrantRole(guildID, userID, roleID, reason string) error {
	f.grants = append(f.grants, userID+"/"+roleID)
	return nil
}

func (f *fakeEventGateway) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	return "msg-1", nil
}

func autoRoleGateway() *fakeEventGateway {
	return &fakeEventGateway{
		bot:    &massrole.BotStatus{CanManageRoles: true, TopRolePosition: 10},
		role:   &massrole.Role{ID: "900", Position: 1},
		member: &massrole.Member{UserID: "u1"},
	}
}

func autoRoleConfig() *storage.GuildConfig {
	return &storage.GuildConfig{
		GuildID:         "100",
		AutoRoleEnabled: true,
		AutoRoleID:      "900",
	}
}

func joinEvent() *discordgo.GuildMemberAdd {
	return &discordgo.GuildMemberAdd{
		Member: &discordgo.Member{
			GuildID: "100",
			User:    &discordgo.User{ID: "u1"},
		},
	}
}

func TestApplyAutoRoleGrants(t *testing.T) {
	gw := autoRoleGateway()
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 1 || gw.grants[0] != "u1/900" {
		t.Errorf("grants = %v, want [u1/900]", gw.grants)
	}
}

func TestApplyAutoRoleSkipsUnmanageableMember(t *testing.T) {
	gw := autoRoleGateway()
	gw.member.TopRolePosition = 20 // above the bot
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 0 {
		t.Errorf("granted to unmanageable member: %v", gw.grants)
	}
}

func TestApplyAutoRoleSkipsExistingHolder(t *testing.T) {
	gw := autoRoleGateway()
	gw.member.RoleIDs = []string{"900"}
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 0 {
		t.Errorf("granted a role the member already holds: %v", gw.grants)
	}
}

func TestApplyAutoRoleSkipsWhenRoleAboveBot(t *testing.T) {
	gw := autoRoleGateway()
	gw.role.Position = 10 // equal to the bot's top role
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 0 {
		t.Errorf("granted despite hierarchy violation: %v", gw.grants)
	}
}

func TestApplyAutoRoleSkipsWithoutManageRoles(t *testing.T) {
	gw := autoRoleGateway()
	gw.bot.CanManageRoles = false
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 0 {
		t.Errorf("granted without Manage Roles: %v", gw.grants)
	}
}

func TestApplyAutoRoleSkipsOnMemberLookupFailure(t *testing.T) {
	gw := autoRoleGateway()
	gw.memberErr = errors.New("member fetch failed")
	h := &Handlers{gw: gw}

	h.applyAutoRole(autoRoleConfig(), joinEvent())

	if len(gw.grants) != 0 {
		t.Errorf("granted despite failed member lookup: %v", gw.grants)
	}
}
