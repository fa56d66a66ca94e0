package ledger_test

import (
	"context"
	"errors"
	"invitetrack/entity"
	"invitetrack/impl/ledger"
	"invitetrack/internal/database"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func newLedger() (*ledger.Ledger, *database.MemoryDB) {
	db := database.NewMemoryDB()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ledger.New(db, log), db
}

func TestCreditInvite_CreatesEntry(t *testing.T) {
	l, _ := newLedger()
	entry, err := l.CreditInvite(context.Background(), "a", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Invites != 1 || entry.Bonus != 0 || entry.TotalEarnings != 0.5 || entry.Username != "alice" {
		t.Errorf("CreditInvite() = %+v", entry)
	}
}

func TestCreditInvite_ConcurrentNoLostUpdates(t *testing.T) {
	const n = 200
	l, _ := newLedger()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.CreditInvite(ctx, "a", "alice"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entry, err := l.Entry(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Invites != n {
		t.Errorf("Invites = %d, want %d", entry.Invites, n)
	}
	if entry.TotalEarnings != float64(n)*entity.RewardPerInvite {
		t.Errorf("TotalEarnings = %v, want %v", entry.TotalEarnings, float64(n)*entity.RewardPerInvite)
	}
}

func TestApply_CreditsAndLinks(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()
	att := &entity.Attribution{GuildId: "g", MemberId: "m", Code: "c", InviterId: "a", InviterName: "alice"}

	if _, err := l.Apply(ctx, att); err != nil {
		t.Fatal(err)
	}
	invitee, _ := db.GetLedgerEntry(ctx, "m")
	if invitee == nil || invitee.InvitedBy != "a" {
		t.Fatalf("invitee = %+v, want invited_by a", invitee)
	}
	if invitee.Invites != 0 {
		t.Errorf("invitee credited: %+v", invitee)
	}

	if entry, err := l.Apply(ctx, nil); err != nil || entry != nil {
		t.Errorf("Apply(nil) = %+v, %v; want nil, nil", entry, err)
	}
}

func TestReverseInviteOnLeave(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()
	_, _ = l.CreditInvite(ctx, "a", "alice")
	_ = l.RecordInvitee(ctx, "m", "a")

	inviter, err := l.ReverseInviteOnLeave(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if inviter == nil || inviter.Invites != 0 || inviter.TotalEarnings != 0 {
		t.Errorf("inviter = %+v, want zero invites", inviter)
	}
	if got, _ := db.GetLedgerEntry(ctx, "m"); got != nil {
		t.Errorf("leaving entry still stored: %+v", got)
	}
}

func TestReverseInviteOnLeave_ClampsAtZero(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()
	_, _ = db.SetBonus(ctx, "a", 1)
	_ = l.RecordInvitee(ctx, "m", "a")

	inviter, err := l.ReverseInviteOnLeave(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if inviter.Invites != 0 || inviter.TotalEarnings != 1 {
		t.Errorf("inviter = %+v, want 0 invites and 1.0 earnings", inviter)
	}
}

func TestReverseInviteOnLeave_NoOps(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()

	inviter, err := l.ReverseInviteOnLeave(ctx, "stranger")
	if err != nil || inviter != nil {
		t.Errorf("unknown user: %+v, %v; want nil, nil", inviter, err)
	}

	for i := 0; i < 4; i++ {
		_, _ = l.CreditInvite(ctx, "solo", "")
	}
	_, _ = l.SetBonus(ctx, "solo", 1)
	_ = l.AssignInvite(ctx, "solo", "link")
	inviter, err = l.ReverseInviteOnLeave(ctx, "solo")
	if err != nil || inviter != nil {
		t.Errorf("user without invited_by: %+v, %v; want nil, nil", inviter, err)
	}
	got, _ := db.GetLedgerEntry(ctx, "solo")
	if got == nil {
		t.Fatal("entry of member without invited_by was deleted")
	}
	if got.Invites != 4 || got.Bonus != 1 || got.TotalEarnings != 3 || got.InviteCode != "link" {
		t.Errorf("entry after leave = %+v, want 4 invites, 1.0 bonus, code link", got)
	}
}

// orderStore records the sequence of mutating calls.
type orderStore struct {
	*database.MemoryDB
	mu    sync.Mutex
	calls []string
	fail  error
}

func (s *orderStore) DecrementInvites(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	s.mu.Lock()
	s.calls = append(s.calls, "decrement:"+userId)
	s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return s.MemoryDB.DecrementInvites(ctx, userId)
}

func (s *orderStore) DeleteLedgerEntry(ctx context.Context, userId string) error {
	s.mu.Lock()
	s.calls = append(s.calls, "delete:"+userId)
	s.mu.Unlock()
	return s.MemoryDB.DeleteLedgerEntry(ctx, userId)
}

func TestReverseInviteOnLeave_ReversalBeforeDeletion(t *testing.T) {
	store := &orderStore{MemoryDB: database.NewMemoryDB()}
	l := ledger.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	_, _ = l.CreditInvite(ctx, "a", "")
	_ = l.RecordInvitee(ctx, "m", "a")

	if _, err := l.ReverseInviteOnLeave(ctx, "m"); err != nil {
		t.Fatal(err)
	}
	want := []string{"decrement:a", "delete:m"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, store.calls[i], want[i])
		}
	}
}

func TestReverseInviteOnLeave_FailedReversalKeepsEntry(t *testing.T) {
	store := &orderStore{MemoryDB: database.NewMemoryDB(), fail: errors.New("store down")}
	l := ledger.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	_ = l.RecordInvitee(ctx, "m", "a")

	if _, err := l.ReverseInviteOnLeave(ctx, "m"); err == nil {
		t.Fatal("ReverseInviteOnLeave() error = nil, want store error")
	}
	if got, _ := store.GetLedgerEntry(ctx, "m"); got == nil {
		t.Error("leaving entry deleted although the reversal failed")
	}
}

func TestEndToEndExample(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = db.IncrementInvites(ctx, "A", "a")
	}
	entry, _ := l.SetBonus(ctx, "A", 1.0)
	if entry.Invites != 4 || entry.TotalEarnings != 3.0 {
		t.Fatalf("start = %+v, want 4 invites and 3.0", entry)
	}

	_, err := l.Apply(ctx, &entity.Attribution{MemberId: "B", InviterId: "A", InviterName: "a"})
	if err != nil {
		t.Fatal(err)
	}
	entry, _ = l.Entry(ctx, "A")
	if entry.Invites != 5 || entry.TotalEarnings != 3.5 {
		t.Fatalf("after credit = %+v, want 5 invites and 3.5", entry)
	}

	if _, err = l.ReverseInviteOnLeave(ctx, "B"); err != nil {
		t.Fatal(err)
	}
	entry, _ = l.Entry(ctx, "A")
	if entry.Invites != 4 || entry.TotalEarnings != 3.0 {
		t.Errorf("after leave = %+v, want 4 invites and 3.0", entry)
	}
	if b, _ := l.Entry(ctx, "B"); b != nil {
		t.Errorf("invitee entry still present: %+v", b)
	}
}

func TestLeaderboard_RecomputesEarnings(t *testing.T) {
	l, db := newLedger()
	ctx := context.Background()
	_, _ = db.IncrementInvites(ctx, "a", "")
	_, _ = db.SetBonus(ctx, "b", 2)

	entries, err := l.Leaderboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.TotalEarnings != e.Earnings() {
			t.Errorf("%s: TotalEarnings = %v, want %v", e.UserId, e.TotalEarnings, e.Earnings())
		}
	}
	if len(entries) != 2 || entries[0].UserId != "a" {
		t.Errorf("Leaderboard() order wrong: %v", entries)
	}
}
