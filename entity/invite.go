package entity

// Invite is one shareable join link of a guild as reported by the platform.
// InviterId is empty for vanity links and other invites without a creator.
type Invite struct {
	Code        string
	Uses        int
	InviterId   string
	InviterName string
}

// InviteUsage maps invite code to its last observed use counter.
type InviteUsage map[string]int

// UsageOf builds a usage snapshot from a live invite list.
func UsageOf(invites []Invite) InviteUsage {
	usage := make(InviteUsage, len(invites))
	for _, inv := range invites {
		usage[inv.Code] = inv.Uses
	}
	return usage
}

// Attribution is a resolved join: member MemberId arrived through Code created by InviterId.
type Attribution struct {
	GuildId     string
	MemberId    string
	Code        string
	InviterId   string
	InviterName string
}
