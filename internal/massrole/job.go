package massrole

// Mode selects the job's target set.
type Mode string

const (
	ModeAll Mode = "ALL"
	ModeOne Mode = "ONE"
)

// Job describes one bulk role-assignment request. It lives only for the
// duration of a single run; there is no job registry and no cancellation
// handle.
type Job struct {
	GuildID         string
	RoleID          string
	Mode            Mode
	TargetUserID    string
	IncludeBots     bool
	NotifyChannelID string
	RequestedBy     string
}

// Channel is the slice of channel state the runner needs.
type Channel struct {
	ID   string
	Text bool
}

// Role is the slice of role state the runner needs.
type Role struct {
	ID       string
	Name     string
	Position int
}

// Member is a guild member as seen by the runner.
type Member struct {
	UserID          string
	IsBot           bool
	IsOwner         bool
	TopRolePosition int
	RoleIDs         []string
}

// HasRole reports whether the member already holds roleID.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// BotStatus is the acting account's standing in the guild.
type BotStatus struct {
	CanManageRoles  bool
	TopRolePosition int
	IsOwner         bool
}

// Manageable reports whether the acting account can modify this member's
// roles under the platform hierarchy rule.
func (b *BotStatus) Manageable(m *Member) bool {
	if m.IsOwner {
		return false
	}
	return m.TopRolePosition < b.TopRolePosition
}
