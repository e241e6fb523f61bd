package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// ErrNoSuchItem is returned by transactional writes when the item
// disappeared before the transaction started. It matches model.ErrNotFound.
var ErrNoSuchItem = fmt.Errorf("item does not exist: %w", model.ErrNotFound)

const messageColumns = `id, item_id, kind, sender_id, sender_name, receiver_id, body, proof_url, sent_at`

func scanMessage(row rowScanner, m *model.Message) error {
	var proof sql.NullString
	if err := row.Scan(&m.ID, &m.ItemID, &m.Kind, &m.SenderID, &m.SenderName,
		&m.ReceiverID, &m.Body, &proof, &m.Timestamp); err != nil {
		return err
	}
	m.ProofURL = proof.String
	return nil
}

// insertMessageTx appends m to its item inside tx, filling in ID and
// clamping Timestamp so it never precedes the item's previous message.
func insertMessageTx(ctx context.Context, tx *sql.Tx, m *model.Message) error {
	var last time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT sent_at FROM messages WHERE item_id = ? ORDER BY id DESC LIMIT 1`, m.ItemID,
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("reading last message time: %w", err)
	}
	if m.Timestamp.Before(last) {
		m.Timestamp = last
	}

	var proof sql.NullString
	if m.ProofURL != "" {
		proof = sql.NullString{String: m.ProofURL, Valid: true}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO messages (item_id, kind, sender_id, sender_name, receiver_id, body, proof_url, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ItemID, m.Kind, m.SenderID, m.SenderName, m.ReceiverID, m.Body, proof, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	m.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting message id: %w", err)
	}
	return nil
}

// itemExistsTx reports ErrNoSuchItem if the item is gone.
func itemExistsTx(ctx context.Context, tx *sql.Tx, itemID int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNoSuchItem
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	return nil
}

// AppendMessage stores a chat message on an item.
func AppendMessage(ctx context.Context, db *sql.DB, m model.Message) (*model.Message, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := itemExistsTx(ctx, tx, m.ItemID); err != nil {
		return nil, err
	}
	if err := insertMessageTx(ctx, tx, &m); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return &m, nil
}

// ListMessages returns an item's messages in arrival order.
func ListMessages(ctx context.Context, db *sql.DB, itemID int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListInbox returns every message addressed to userID on items userID
// posted, newest first.
func ListInbox(ctx context.Context, db *sql.DB, userID int64) ([]model.InboxEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT i.id, i.title, i.status, i.claimed_by,
		        m.sender_id, m.sender_name, m.body, m.proof_url, m.sent_at
		 FROM messages m
		 JOIN items i ON i.id = m.item_id
		 WHERE i.posted_by = ? AND m.receiver_id = ?
		 ORDER BY m.id DESC`, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	defer rows.Close()

	var entries []model.InboxEntry
	for rows.Next() {
		var e model.InboxEntry
		var claimedBy sql.NullInt64
		var proof sql.NullString
		if err := rows.Scan(&e.ItemID, &e.ItemTitle, &e.ItemStatus, &claimedBy,
			&e.SenderID, &e.SenderName, &e.Body, &proof, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning inbox entry: %w", err)
		}
		if claimedBy.Valid {
			id := claimedBy.Int64
			e.ClaimedBy = &id
		}
		e.ProofURL = proof.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListSenders returns the distinct senders of an item's messages other
// than exclude, in order of first contact.
func ListSenders(ctx context.Context, db *sql.DB, itemID, exclude int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sender_id FROM messages WHERE item_id = ? AND sender_id != ?
		 GROUP BY sender_id ORDER BY MIN(id)`, itemID, exclude,
	)
	if err != nil {
		return nil, fmt.Errorf("listing senders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning sender: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
