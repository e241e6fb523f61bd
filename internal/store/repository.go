package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// Repository exposes the item and message functions as methods so the
// claim and chat services can depend on an interface.
type Repository struct {
	DB *sql.DB
}

func (r *Repository) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return GetItem(ctx, r.DB, id)
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) (bool, error) {
	return DeleteItem(ctx, r.DB, id)
}

func (r *Repository) SubmitClaimRequest(ctx context.Context, m model.Message) (*model.Message, bool, error) {
	return SubmitClaimRequest(ctx, r.DB, m)
}

func (r *Repository) ReserveItem(ctx context.Context, itemID, userID int64) (bool, error) {
	return ReserveItem(ctx, r.DB, itemID, userID)
}

func (r *Repository) ResolveClaim(ctx context.Context, itemID, receiverID int64, at time.Time) (*model.Message, error) {
	return ResolveClaim(ctx, r.DB, itemID, receiverID, at)
}

func (r *Repository) ClearClaim(ctx context.Context, itemID int64) (*int64, error) {
	return ClearClaim(ctx, r.DB, itemID)
}

func (r *Repository) ListInbox(ctx context.Context, userID int64) ([]model.InboxEntry, error) {
	return ListInbox(ctx, r.DB, userID)
}

func (r *Repository) ListSenders(ctx context.Context, itemID, exclude int64) ([]int64, error) {
	return ListSenders(ctx, r.DB, itemID, exclude)
}

func (r *Repository) AppendMessage(ctx context.Context, m model.Message) (*model.Message, error) {
	return AppendMessage(ctx, r.DB, m)
}

func (r *Repository) ListMessages(ctx context.Context, itemID int64) ([]model.Message, error) {
	return ListMessages(ctx, r.DB, itemID)
}

func (r *Repository) SaveProof(ctx context.Context, data []byte, mime string) (int64, error) {
	return SaveProof(ctx, r.DB, data, mime)
}

func (r *Repository) GetProof(ctx context.Context, id int64) ([]byte, string, error) {
	return GetProof(ctx, r.DB, id)
}

func (r *Repository) DeleteProof(ctx context.Context, id int64) error {
	return DeleteProof(ctx, r.DB, id)
}
