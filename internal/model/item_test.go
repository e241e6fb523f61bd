package model

import (
	"testing"
	"time"
)

func TestItemClaimState(t *testing.T) {
	claimant := int64(2)
	now := time.Now()

	tests := []struct {
		name string
		item Item
		want ClaimState
	}{
		{"unclaimed", Item{PostedBy: 1}, ClaimOpen},
		{"claimed", Item{PostedBy: 1, ClaimedBy: &claimant}, ClaimPending},
		{"approved", Item{PostedBy: 1, ClaimedBy: &claimant, ResolvedAt: &now, Status: ItemStatusFound}, ClaimResolved},
		// A stray resolution time without a claimant still reads as open.
		{"resolved without claimant", Item{PostedBy: 1, ResolvedAt: &now}, ClaimOpen},
	}

	for _, tt := range tests {
		if got := tt.item.ClaimState(); got != tt.want {
			t.Errorf("%s: ClaimState() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestItemRelationships(t *testing.T) {
	claimant := int64(2)
	item := Item{PostedBy: 1, ClaimedBy: &claimant}

	if !item.IsPoster(1) || item.IsPoster(2) {
		t.Error("IsPoster mismatch")
	}
	if !item.IsClaimant(2) || item.IsClaimant(1) {
		t.Error("IsClaimant mismatch")
	}

	open := Item{PostedBy: 1}
	if open.IsClaimant(2) {
		t.Error("open item should have no claimant")
	}
}

func TestValidItemStatus(t *testing.T) {
	for _, s := range []string{ItemStatusLost, ItemStatusFound} {
		if !ValidItemStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "active", "claimed"} {
		if ValidItemStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
