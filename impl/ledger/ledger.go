package ledger

import (
	"context"
	"fmt"
	"invitetrack/entity"
	"invitetrack/lib/sl"
	"log/slog"
)

// LeaderboardLimit caps how many entries a leaderboard is built from.
const LeaderboardLimit = 1000

// Store is the persistence the ledger depends on.
// Implemented by internal/database (MongoDB and in-memory).
// IncrementInvites, DecrementInvites, SetInvitedBy and SetBonus must be single
// atomic operations that also rewrite total_earnings.
type Store interface {
	GetLedgerEntry(ctx context.Context, userId string) (*entity.LedgerEntry, error)
	IncrementInvites(ctx context.Context, userId, username string) (*entity.LedgerEntry, error)
	DecrementInvites(ctx context.Context, userId string) (*entity.LedgerEntry, error)
	SetInvitedBy(ctx context.Context, userId, inviterId string) error
	SetBonus(ctx context.Context, userId string, bonus float64) (*entity.LedgerEntry, error)
	DeleteLedgerEntry(ctx context.Context, userId string) error
	SetInviteCode(ctx context.Context, userId, code string) error
	FindByInviteCode(ctx context.Context, code string) (*entity.LedgerEntry, error)
	TopLedgerEntries(ctx context.Context, limit int) ([]*entity.LedgerEntry, error)
}

type Ledger struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log.With(sl.Module("ledger")),
	}
}

// CreditInvite adds one invite to the inviter, creating the entry if needed.
func (l *Ledger) CreditInvite(ctx context.Context, inviterId, username string) (*entity.LedgerEntry, error) {
	entry, err := l.store.IncrementInvites(ctx, inviterId, username)
	if err != nil {
		return nil, fmt.Errorf("increment invites: %w", err)
	}
	entry.Recompute()
	l.log.With(
		sl.User(inviterId),
		slog.Int("invites", entry.Invites),
	).Info("invite credited")
	return entry, nil
}

// RecordInvitee remembers who brought the member in, so a later leave can be reversed.
func (l *Ledger) RecordInvitee(ctx context.Context, inviteeId, inviterId string) error {
	if err := l.store.SetInvitedBy(ctx, inviteeId, inviterId); err != nil {
		return fmt.Errorf("set invited by: %w", err)
	}
	return nil
}

// Apply credits the inviter and links the invitee to it.
func (l *Ledger) Apply(ctx context.Context, att *entity.Attribution) (*entity.LedgerEntry, error) {
	if att == nil || att.InviterId == "" {
		return nil, nil
	}
	entry, err := l.CreditInvite(ctx, att.InviterId, att.InviterName)
	if err != nil {
		return nil, err
	}
	if err = l.RecordInvitee(ctx, att.MemberId, att.InviterId); err != nil {
		return entry, err
	}
	return entry, nil
}

// ReverseInviteOnLeave takes the credit back from the leaving member's inviter
// and then deletes the leaving member's own entry. Without an inviter the entry
// is left untouched. The returned entry is the updated inviter, nil when there
// was nothing to reverse.
func (l *Ledger) ReverseInviteOnLeave(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	leaving, err := l.store.GetLedgerEntry(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("get leaving entry: %w", err)
	}
	// members who did not join through a tracked invite keep their entry
	if leaving == nil || leaving.InvitedBy == "" || leaving.InvitedBy == userId {
		return nil, nil
	}

	inviter, err := l.store.DecrementInvites(ctx, leaving.InvitedBy)
	if err != nil {
		return nil, fmt.Errorf("decrement invites: %w", err)
	}
	if inviter != nil {
		inviter.Recompute()
		l.log.With(
			sl.User(inviter.UserId),
			slog.String("left", userId),
			slog.Int("invites", inviter.Invites),
		).Info("invite reversed")
	}

	if err = l.store.DeleteLedgerEntry(ctx, userId); err != nil {
		return inviter, fmt.Errorf("delete leaving entry: %w", err)
	}
	return inviter, nil
}

// AssignInvite records a bot-created invite code as the member's personal link.
func (l *Ledger) AssignInvite(ctx context.Context, userId, code string) error {
	if err := l.store.SetInviteCode(ctx, userId, code); err != nil {
		return fmt.Errorf("set invite code: %w", err)
	}
	return nil
}

// InviteOwner returns the member a personal invite code was assigned to, nil if none.
func (l *Ledger) InviteOwner(ctx context.Context, code string) (*entity.LedgerEntry, error) {
	entry, err := l.store.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find by invite code: %w", err)
	}
	return entry, nil
}

// SetBonus replaces the manual bonus of a member.
func (l *Ledger) SetBonus(ctx context.Context, userId string, bonus float64) (*entity.LedgerEntry, error) {
	entry, err := l.store.SetBonus(ctx, userId, bonus)
	if err != nil {
		return nil, fmt.Errorf("set bonus: %w", err)
	}
	entry.Recompute()
	return entry, nil
}

// Entry returns the member's entry with earnings recomputed, nil if absent.
func (l *Ledger) Entry(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	entry, err := l.store.GetLedgerEntry(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry != nil {
		entry.Recompute()
	}
	return entry, nil
}

// Leaderboard returns up to LeaderboardLimit entries ordered by invites descending.
func (l *Ledger) Leaderboard(ctx context.Context) ([]*entity.LedgerEntry, error) {
	entries, err := l.store.TopLedgerEntries(ctx, LeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	for _, e := range entries {
		e.Recompute()
	}
	return entries, nil
}
