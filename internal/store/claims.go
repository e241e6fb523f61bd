package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// SubmitClaimRequest appends a claim request and, in the same transaction,
// records its sender as claimant if the item has none. Reports whether
// the sender became the claimant.
func SubmitClaimRequest(ctx context.Context, db *sql.DB, m model.Message) (*model.Message, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := itemExistsTx(ctx, tx, m.ItemID); err != nil {
		return nil, false, err
	}
	if err := insertMessageTx(ctx, tx, &m); err != nil {
		return nil, false, err
	}

	won, err := claimIfOpenTx(ctx, tx, m.ItemID, m.SenderID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing claim request: %w", err)
	}
	return &m, won, nil
}

// ReserveItem records userID as claimant if the item has none.
func ReserveItem(ctx context.Context, db *sql.DB, itemID, userID int64) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := itemExistsTx(ctx, tx, itemID); err != nil {
		return false, err
	}
	won, err := claimIfOpenTx(ctx, tx, itemID, userID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing reservation: %w", err)
	}
	return won, nil
}

// claimIfOpenTx sets claimed_by only when it is still NULL.
func claimIfOpenTx(ctx context.Context, tx *sql.Tx, itemID, userID int64) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET claimed_by = ?
		 WHERE id = ? AND claimed_by IS NULL AND posted_by != ?`,
		userID, itemID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("setting claimant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting claimant: %w", err)
	}
	return n == 1, nil
}

// ResolveClaim approves the most recent message addressed to receiverID:
// its sender becomes claimant and the item is marked found. Returns the
// chosen message, or nil if no message qualifies (nothing is changed).
func ResolveClaim(ctx context.Context, db *sql.DB, itemID, receiverID int64, at time.Time) (*model.Message, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := itemExistsTx(ctx, tx, itemID); err != nil {
		return nil, err
	}

	// Timestamps never decrease within an item, so the highest id carries
	// the latest timestamp.
	var latest model.Message
	err = scanMessage(tx.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE item_id = ? AND receiver_id = ?
		 ORDER BY id DESC LIMIT 1`, itemID, receiverID,
	), &latest)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest claim: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET claimed_by = ?, status = ?, resolved_at = ? WHERE id = ?`,
		latest.SenderID, model.ItemStatusFound, at, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resolution: %w", err)
	}
	return &latest, nil
}

// ClearClaim removes the claimant and any resolution, returning the
// claimant that was removed (nil if there was none).
func ClearClaim(ctx context.Context, db *sql.DB, itemID int64) (*int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT claimed_by FROM items WHERE id = ?`, itemID).Scan(&previous)
	if err == sql.ErrNoRows {
		return nil, ErrNoSuchItem
	}
	if err != nil {
		return nil, fmt.Errorf("reading claimant: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET claimed_by = NULL, resolved_at = NULL WHERE id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("clearing claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing denial: %w", err)
	}

	if !previous.Valid {
		return nil, nil
	}
	id := previous.Int64
	return &id, nil
}
