package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	poster := seedUser(t, database, "poster")

	item, err := CreateItem(ctx, database, "Wallet", "Brown leather", "/api/uploads/1", model.ItemStatusLost, poster.ID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Title != "Wallet" {
		t.Errorf("expected title 'Wallet', got %q", item.Title)
	}
	if item.PostedBy != poster.ID {
		t.Errorf("expected posted_by %d, got %d", poster.ID, item.PostedBy)
	}
	if item.ClaimedBy != nil {
		t.Errorf("expected no claimant, got %d", *item.ClaimedBy)
	}
	if item.ClaimState() != model.ClaimOpen {
		t.Errorf("expected open item, got %q", item.ClaimState())
	}

	missing, err := GetItem(ctx, database, item.ID+100)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing item")
	}
}

func TestCreateItemRejectsUnknownStatus(t *testing.T) {
	database := db.NewTestDB(t)
	poster := seedUser(t, database, "poster")

	_, err := CreateItem(context.Background(), database, "Wallet", "", "", "stolen", poster.ID)
	if err == nil {
		t.Error("expected CHECK constraint to reject status")
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := seedUser(t, database, "ana")
	bor := seedUser(t, database, "bor")

	CreateItem(ctx, database, "Red Scarf", "wool", "", model.ItemStatusLost, ana.ID)
	CreateItem(ctx, database, "Keys", "three keys on a RED ring", "", model.ItemStatusFound, bor.ID)
	CreateItem(ctx, database, "Phone", "cracked screen", "", model.ItemStatusFound, ana.ID)

	tests := []struct {
		name   string
		filter model.ItemFilter
		want   int
	}{
		{"all", model.ItemFilter{}, 3},
		{"lost", model.ItemFilter{Status: model.ItemStatusLost}, 1},
		{"found", model.ItemFilter{Status: model.ItemStatusFound}, 2},
		{"search title and description", model.ItemFilter{Search: "red"}, 2},
		{"search and status", model.ItemFilter{Search: "red", Status: model.ItemStatusFound}, 1},
		{"poster", model.ItemFilter{PostedBy: ana.ID}, 2},
		{"like wildcards are literal", model.ItemFilter{Search: "%"}, 0},
	}

	for _, tt := range tests {
		items, err := ListItems(ctx, database, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListItems: %v", tt.name, err)
		}
		if len(items) != tt.want {
			t.Errorf("%s: expected %d items, got %d", tt.name, tt.want, len(items))
		}
	}
}

func TestDeleteItemCascadesMessages(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	poster := seedUser(t, database, "poster")
	claimant := seedUser(t, database, "claimant")
	item := seedItem(t, database, poster)

	if _, _, err := SubmitClaimRequest(ctx, database, claimMessage(item, claimant, "mine", time.Now())); err != nil {
		t.Fatalf("SubmitClaimRequest: %v", err)
	}

	deleted, err := DeleteItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !deleted {
		t.Fatal("expected item to be deleted")
	}

	var count int
	database.QueryRow(`SELECT COUNT(*) FROM messages WHERE item_id = ?`, item.ID).Scan(&count)
	if count != 0 {
		t.Errorf("expected messages to be removed, %d remain", count)
	}

	deleted, err = DeleteItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("second DeleteItem: %v", err)
	}
	if deleted {
		t.Error("expected second delete to report nothing removed")
	}
}

func TestUpdateItemKeepsClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	poster := seedUser(t, database, "poster")
	claimant := seedUser(t, database, "claimant")
	item := seedItem(t, database, poster)

	ReserveItem(ctx, database, item.ID, claimant.ID)
	if err := UpdateItem(ctx, database, item.ID, "Blue Umbrella", "", "", model.ItemStatusFound); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Title != "Blue Umbrella" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
	if !got.IsClaimant(claimant.ID) {
		t.Error("expected claimant to survive an update")
	}
}
