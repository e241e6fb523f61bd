package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

func seedUser(t *testing.T, database *sql.DB, name string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, name, fmt.Sprintf("%s@example.com", name), "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func seedItem(t *testing.T, database *sql.DB, poster *model.User) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, "Umbrella", "Black, left on the tram", "", model.ItemStatusFound, poster.ID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func claimMessage(item *model.Item, sender *model.User, body string, at time.Time) model.Message {
	return model.Message{
		ItemID:     item.ID,
		Kind:       model.MessageKindClaimRequest,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		ReceiverID: item.PostedBy,
		Body:       body,
		Timestamp:  at,
	}
}
