package database

import (
	"context"
	"invitetrack/impl/ledger"
	"testing"
)

var (
	_ ledger.Store = (*MemoryDB)(nil)
	_ ledger.Store = (*MongoDB)(nil)
)

func TestMemoryDB_DecrementClampsAtZero(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	if _, err := db.IncrementInvites(ctx, "a", "alice"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.DecrementInvites(ctx, "a"); err != nil {
			t.Fatal(err)
		}
	}
	e, _ := db.GetLedgerEntry(ctx, "a")
	if e.Invites != 0 || e.TotalEarnings != 0 {
		t.Errorf("entry = %+v, want zero invites and earnings", e)
	}
}

func TestMemoryDB_DecrementMissing(t *testing.T) {
	db := NewMemoryDB()
	e, err := db.DecrementInvites(context.Background(), "ghost")
	if err != nil || e != nil {
		t.Errorf("DecrementInvites() = %+v, %v; want nil, nil", e, err)
	}
	if got, _ := db.GetLedgerEntry(context.Background(), "ghost"); got != nil {
		t.Error("decrement created an entry")
	}
}

func TestMemoryDB_TopOrdering(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	_, _ = db.SetBonus(ctx, "first", 10)
	_, _ = db.IncrementInvites(ctx, "second", "")
	_, _ = db.SetBonus(ctx, "third", 0)
	_, _ = db.IncrementInvites(ctx, "fourth", "")
	_, _ = db.IncrementInvites(ctx, "fourth", "")

	entries, err := db.TopLedgerEntries(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"fourth", "second", "first"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].UserId != id {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].UserId, id)
		}
	}
}

func TestMemoryDB_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	e, _ := db.IncrementInvites(ctx, "a", "")
	e.Invites = 100
	got, _ := db.GetLedgerEntry(ctx, "a")
	if got.Invites != 1 {
		t.Errorf("stored entry modified through returned pointer: %d", got.Invites)
	}
}

func TestMemoryDB_InviteCode(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	if got, _ := db.FindByInviteCode(ctx, "abc"); got != nil {
		t.Fatalf("FindByInviteCode() = %+v, want nil", got)
	}
	if err := db.SetInviteCode(ctx, "a", "abc"); err != nil {
		t.Fatal(err)
	}
	got, err := db.FindByInviteCode(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.UserId != "a" || got.Invites != 0 {
		t.Errorf("FindByInviteCode() = %+v", got)
	}
	if got, _ := db.FindByInviteCode(ctx, ""); got != nil {
		t.Errorf("FindByInviteCode(\"\") = %+v, want nil", got)
	}
}

func TestMongoCollectionName(t *testing.T) {
	// documents of the older "users" schema must not share the collection
	if collectionLedger != "ledger" {
		t.Errorf("collectionLedger = %q, want ledger", collectionLedger)
	}
}
