package entity

import "testing"

func TestLedgerEntry_Recompute(t *testing.T) {
	tests := []struct {
		name    string
		entry   LedgerEntry
		want    float64
		invites int
	}{
		{name: "empty", entry: LedgerEntry{}, want: 0, invites: 0},
		{name: "invites only", entry: LedgerEntry{Invites: 5}, want: 2.5, invites: 5},
		{name: "invites and bonus", entry: LedgerEntry{Invites: 4, Bonus: 1.0}, want: 3.0, invites: 4},
		{name: "stale cache overwritten", entry: LedgerEntry{Invites: 2, Bonus: 0.25, TotalEarnings: 99}, want: 1.25, invites: 2},
		{name: "negative invites clamped", entry: LedgerEntry{Invites: -3, Bonus: 1}, want: 1, invites: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			got := e.Recompute()
			if got != tt.want {
				t.Errorf("Recompute() = %v, want %v", got, tt.want)
			}
			if e.TotalEarnings != tt.want {
				t.Errorf("TotalEarnings = %v, want %v", e.TotalEarnings, tt.want)
			}
			if e.Invites != tt.invites {
				t.Errorf("Invites = %d, want %d", e.Invites, tt.invites)
			}
			// idempotent
			if again := e.Recompute(); again != got {
				t.Errorf("second Recompute() = %v, want %v", again, got)
			}
		})
	}
}

func TestLedgerEntry_DisplayName(t *testing.T) {
	e := NewLedgerEntry("42")
	if got := e.DisplayName(); got != "42" {
		t.Errorf("DisplayName() = %q, want %q", got, "42")
	}
	e.Username = "alice"
	if got := e.DisplayName(); got != "alice" {
		t.Errorf("DisplayName() = %q, want %q", got, "alice")
	}
}

func TestUsageOf(t *testing.T) {
	usage := UsageOf([]Invite{{Code: "a", Uses: 3}, {Code: "b", Uses: 0}})
	if len(usage) != 2 || usage["a"] != 3 || usage["b"] != 0 {
		t.Errorf("UsageOf() = %v", usage)
	}
}
