package entity

// RewardPerInvite is the earnings credited for every attributed invite.
const RewardPerInvite = 0.5

// LedgerEntry is the per-member reward record.
// InviteCode is the personal link the bot created for the member; the
// platform reports the bot as creator of such links.
// TotalEarnings is a denormalized cache of Invites*RewardPerInvite + Bonus;
// every write path recomputes it and every read path calls Recompute before use.
type LedgerEntry struct {
	UserId        string  `json:"userId" bson:"user_id"`
	Username      string  `json:"username,omitempty" bson:"username,omitempty"`
	Invites       int     `json:"invites" bson:"invites"`
	Bonus         float64 `json:"bonus" bson:"bonus"`
	TotalEarnings float64 `json:"totalEarnings" bson:"total_earnings"`
	InvitedBy     string  `json:"invitedBy,omitempty" bson:"invited_by,omitempty"`
	InviteCode    string  `json:"-" bson:"invite_code,omitempty"`
}

func NewLedgerEntry(userId string) *LedgerEntry {
	return &LedgerEntry{UserId: userId}
}

// Earnings returns the derived total without touching the entry.
func (e *LedgerEntry) Earnings() float64 {
	return float64(e.Invites)*RewardPerInvite + e.Bonus
}

// Recompute overwrites TotalEarnings with the derived value and returns it.
func (e *LedgerEntry) Recompute() float64 {
	if e.Invites < 0 {
		e.Invites = 0
	}
	e.TotalEarnings = e.Earnings()
	return e.TotalEarnings
}

// DisplayName returns the cached username, or the raw id when none was recorded.
func (e *LedgerEntry) DisplayName() string {
	if e.Username != "" {
		return e.Username
	}
	return e.UserId
}
