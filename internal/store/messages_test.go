package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestListInbox(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := seedUser(t, database, "ana")
	bor := seedUser(t, database, "bor")
	cene := seedUser(t, database, "cene")

	umbrella := seedItem(t, database, ana)
	keys, _ := CreateItem(ctx, database, "Keys", "", "", model.ItemStatusFound, bor.ID)
	now := time.Now()

	SubmitClaimRequest(ctx, database, claimMessage(umbrella, bor, "mine", now))
	SubmitClaimRequest(ctx, database, claimMessage(umbrella, cene, "no, mine", now.Add(time.Second)))
	SubmitClaimRequest(ctx, database, claimMessage(keys, cene, "my keys", now))

	inbox, err := ListInbox(ctx, database, ana.ID)
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(inbox))
	}
	if inbox[0].SenderName != "cene" {
		t.Errorf("expected newest entry first, got %q", inbox[0].SenderName)
	}
	if inbox[0].ItemTitle != umbrella.Title {
		t.Errorf("expected item title %q, got %q", umbrella.Title, inbox[0].ItemTitle)
	}
	if inbox[0].ClaimedBy == nil || *inbox[0].ClaimedBy != bor.ID {
		t.Errorf("expected claimed_by %d, got %v", bor.ID, inbox[0].ClaimedBy)
	}

	empty, err := ListInbox(ctx, database, cene.ID)
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty inbox for claimant, got %d", len(empty))
	}
}

func TestListSenders(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	poster := seedUser(t, database, "poster")
	c := seedUser(t, database, "c")
	d := seedUser(t, database, "d")
	item := seedItem(t, database, poster)
	now := time.Now()

	SubmitClaimRequest(ctx, database, claimMessage(item, d, "1", now))
	SubmitClaimRequest(ctx, database, claimMessage(item, c, "2", now))
	SubmitClaimRequest(ctx, database, claimMessage(item, d, "3", now))
	AppendMessage(ctx, database, model.Message{
		ItemID: item.ID, Kind: model.MessageKindChat,
		SenderID: poster.ID, SenderName: poster.Name, ReceiverID: d.ID,
		Body: "hi", Timestamp: now,
	})

	senders, err := ListSenders(ctx, database, item.ID, poster.ID)
	if err != nil {
		t.Fatalf("ListSenders: %v", err)
	}
	if len(senders) != 2 || senders[0] != d.ID || senders[1] != c.ID {
		t.Errorf("expected [%d %d], got %v", d.ID, c.ID, senders)
	}
}

func TestAppendMessageMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := AppendMessage(context.Background(), database, model.Message{
		ItemID: 42, Kind: model.MessageKindChat, SenderID: 1, SenderName: "x", ReceiverID: 2, Body: "hi",
	})
	if !errors.Is(err, ErrNoSuchItem) {
		t.Errorf("expected ErrNoSuchItem, got %v", err)
	}
}

func TestProofRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	id, err := SaveProof(ctx, database, []byte("fake image data"), "image/jpeg")
	if err != nil {
		t.Fatalf("SaveProof: %v", err)
	}

	data, mime, err := GetProof(ctx, database, id)
	if err != nil {
		t.Fatalf("GetProof: %v", err)
	}
	if string(data) != "fake image data" || mime != "image/jpeg" {
		t.Errorf("unexpected proof: %q %q", data, mime)
	}

	data, _, err = GetProof(ctx, database, id+1)
	if err != nil {
		t.Fatalf("GetProof: %v", err)
	}
	if data != nil {
		t.Error("expected nil data for missing proof")
	}
	if err := DeleteProof(ctx, database, id); err != nil {
		t.Fatalf("DeleteProof: %v", err)
	}
	if data, _, _ := GetProof(ctx, database, id); data != nil {
		t.Error("proof still present after delete")
	}
	if err := DeleteProof(ctx, database, id); err != nil {
		t.Errorf("DeleteProof of missing proof: %v", err)
	}
}
