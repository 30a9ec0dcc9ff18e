package massrole

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type sentMessage struct {
	kind  string // "embed", "edit", "text"
	id    string
	embed *discordgo.MessageEmbed
	text  string
}

type fakeGateway struct {
	channel *Channel
	bot     *BotStatus
	role    *Role
	members []*Member

	channelErr error
	roleErr    error
	memberErr  error

	grantErrFor map[string]error
	editFails   bool

	grants []string
	sent   []sentMessage
	nextID int
}

func (f *fakeGateway) Channel(guildID, channelID string) (*Channel, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return f.channel, nil
}

func (f *fakeGateway) BotStatus(guildID string) (*BotStatus, error) {
	return f.bot, nil
}

func (f *fakeGateway) Role(guildID, roleID string) (*Role, error) {
	if f.roleErr != nil {
		return nil, f.roleErr
	}
	return f.role, nil
}

func (f *fakeGateway) Member(guildID, userID string) (*Member, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	for _, m := range f.members {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, errors.New("unknown member")
}

func (f *fakeGateway) Members(guildID string) ([]*Member, error) {
	return f.members, nil
}

func (f *fakeGateway) GrantRole(guildID, userID, roleID, reason string) error {
	if err := f.grantErrFor[userID]; err != nil {
		return err
	}
	f.grants = append(f.grants, userID)
	return nil
}

func (f *fakeGateway) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sent = append(f.sent, sentMessage{kind: "embed", id: id, embed: embed})
	return id, nil
}

func (f *fakeGateway) EditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	if f.editFails {
		return errors.New("message deleted")
	}
	f.sent = append(f.sent, sentMessage{kind: "edit", id: messageID, embed: embed})
	return nil
}

func (f *fakeGateway) SendText(channelID, content string) error {
	f.sent = append(f.sent, sentMessage{kind: "text", text: content})
	return nil
}

func (f *fakeGateway) texts() []string {
	var out []string
	for _, m := range f.sent {
		if m.kind == "text" {
			out = append(out, m.text)
		}
	}
	return out
}

func healthyGateway() *fakeGateway {
	return &fakeGateway{
		channel: &Channel{ID: "500", Text: true},
		bot:     &BotStatus{CanManageRoles: true, TopRolePosition: 10},
		role:    &Role{ID: "900", Name: "Member", Position: 1},
	}
}

func allJob() *Job {
	return &Job{
		GuildID:         "100",
		RoleID:          "900",
		Mode:            ModeAll,
		NotifyChannelID: "500",
		RequestedBy:     "1",
	}
}

func newTestRunner(gw Gateway) *Runner {
	return NewRunner(gw, 0, 10, nil)
}

func TestRunExcludesBotsAndHolders(t *testing.T) {
	gw := healthyGateway()
	for i := 0; i < 50; i++ {
		m := &Member{UserID: fmt.Sprintf("h%d", i), TopRolePosition: 0}
		if i < 5 {
			m.RoleIDs = []string{"900"} // already holds the role
		}
		gw.members = append(gw.members, m)
	}
	for i := 0; i < 10; i++ {
		gw.members = append(gw.members, &Member{UserID: fmt.Sprintf("b%d", i), IsBot: true})
	}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 45 {
		t.Errorf("grants = %d, want 45", len(gw.grants))
	}
	for _, id := range gw.grants {
		if id[0] == 'b' {
			t.Errorf("bot %s was granted the role", id)
		}
	}
}

func TestRunProgressCadence(t *testing.T) {
	gw := healthyGateway()
	for i := 0; i < 45; i++ {
		gw.members = append(gw.members, &Member{UserID: fmt.Sprintf("u%d", i)})
	}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	// Start message, then progress updates at attempt 1, 10, 20, 30, 40, 45,
	// the final summary embed, and the closing text message.
	var edits int
	for _, m := range gw.sent {
		if m.kind == "edit" {
			edits++
		}
	}
	// 6 progress edits + 1 done-embed edit.
	if edits != 7 {
		t.Errorf("edits = %d, want 7", edits)
	}

	if gw.sent[0].kind != "embed" {
		t.Errorf("first send kind = %s, want embed", gw.sent[0].kind)
	}
	last := gw.sent[len(gw.sent)-1]
	if last.kind != "text" {
		t.Errorf("last send kind = %s, want summary text", last.kind)
	}
}

func TestRunHierarchyViolationAbortsBeforeGrants(t *testing.T) {
	gw := healthyGateway()
	gw.role.Position = 10 // equal to the bot's top role
	gw.members = []*Member{{UserID: "u1"}}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 0 {
		t.Errorf("grants attempted despite hierarchy violation: %v", gw.grants)
	}
	texts := gw.texts()
	if len(texts) != 1 {
		t.Fatalf("abort notices = %d, want exactly 1", len(texts))
	}
}

func TestRunMissingManageRolesAborts(t *testing.T) {
	gw := healthyGateway()
	gw.bot.CanManageRoles = false
	gw.members = []*Member{{UserID: "u1"}}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 0 {
		t.Error("grants attempted without Manage Roles")
	}
}

func TestRunMissingRoleAborts(t *testing.T) {
	gw := healthyGateway()
	gw.roleErr = errors.New("404")

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.texts()) != 1 {
		t.Error("expected a single abort notice")
	}
}

func TestRunModeOne(t *testing.T) {
	gw := healthyGateway()
	gw.members = []*Member{{UserID: "u1"}, {UserID: "u2"}}

	job := allJob()
	job.Mode = ModeOne
	job.TargetUserID = "u2"

	r := newTestRunner(gw)
	r.Run(context.Background(), job)

	if len(gw.grants) != 1 || gw.grants[0] != "u2" {
		t.Errorf("grants = %v, want [u2]", gw.grants)
	}
}

func TestRunModeOneUnresolvableAborts(t *testing.T) {
	gw := healthyGateway()

	job := allJob()
	job.Mode = ModeOne
	job.TargetUserID = "ghost"

	r := newTestRunner(gw)
	r.Run(context.Background(), job)

	if len(gw.grants) != 0 {
		t.Error("grant attempted for unresolvable member")
	}
	if len(gw.texts()) != 1 {
		t.Error("expected a single abort notice")
	}
}

func TestRunCountsUnmanageableAsFailed(t *testing.T) {
	gw := healthyGateway()
	gw.members = []*Member{
		{UserID: "u1", TopRolePosition: 20}, // above the bot
		{UserID: "u2"},
	}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 1 || gw.grants[0] != "u2" {
		t.Errorf("grants = %v, want [u2]", gw.grants)
	}
}

func TestRunPerMemberFailureDoesNotAbort(t *testing.T) {
	gw := healthyGateway()
	gw.members = []*Member{{UserID: "u1"}, {UserID: "u2"}, {UserID: "u3"}}
	gw.grantErrFor = map[string]error{"u2": errors.New("rate limited")}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 2 {
		t.Errorf("grants = %v, want u1 and u3", gw.grants)
	}

	texts := gw.texts()
	if len(texts) != 1 {
		t.Fatalf("texts = %v, want only final summary", texts)
	}
}

func TestRunEditFailureFallsBackToSend(t *testing.T) {
	gw := healthyGateway()
	gw.editFails = true
	for i := 0; i < 3; i++ {
		gw.members = append(gw.members, &Member{UserID: fmt.Sprintf("u%d", i)})
	}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	// Every progress update fell back to a fresh embed send; the job must
	// still complete and grant all roles.
	if len(gw.grants) != 3 {
		t.Errorf("grants = %d, want 3", len(gw.grants))
	}
	var embeds int
	for _, m := range gw.sent {
		if m.kind == "embed" {
			embeds++
		}
	}
	if embeds < 3 {
		t.Errorf("embed sends = %d, want fallback sends", embeds)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	gw := healthyGateway()
	for i := 0; i < 5; i++ {
		gw.members = append(gw.members, &Member{UserID: fmt.Sprintf("u%d", i)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(gw)
	r.Run(ctx, allJob())

	// The first grant lands before the pacing wait notices the dead
	// context; after that the job must return without the summary.
	if len(gw.grants) != 1 {
		t.Errorf("grants = %v, want exactly the first member", gw.grants)
	}
	if len(gw.texts()) != 0 {
		t.Errorf("texts = %v, want none after interruption", gw.texts())
	}
}

func TestRunEmptyTargetSetCompletesCleanly(t *testing.T) {
	gw := healthyGateway()
	gw.members = []*Member{{UserID: "u1", RoleIDs: []string{"900"}}}

	r := newTestRunner(gw)
	r.Run(context.Background(), allJob())

	if len(gw.grants) != 0 {
		t.Errorf("grants = %v, want none", gw.grants)
	}
	// Start embed, done edit, summary text.
	if len(gw.texts()) != 1 {
		t.Error("expected the final summary even with no targets")
	}
}
