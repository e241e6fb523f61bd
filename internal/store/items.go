package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, title, description, image_url, status, posted_by, claimed_by, resolved_at, posted_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, item *model.Item) error {
	var claimedBy sql.NullInt64
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &item.ImageURL, &item.Status,
		&item.PostedBy, &claimedBy, &item.ResolvedAt, &item.PostedAt); err != nil {
		return err
	}
	if claimedBy.Valid {
		id := claimedBy.Int64
		item.ClaimedBy = &id
	}
	return nil
}

// CreateItem creates a new item owned by postedBy.
func CreateItem(ctx context.Context, db *sql.DB, title, description, imageURL, status string, postedBy int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (title, description, image_url, status, posted_by) VALUES (?, ?, ?, ?, ?)`,
		title, description, imageURL, status, postedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, newest first.
// Search matches title or description case-insensitively.
func ListItems(ctx context.Context, db *sql.DB, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.PostedBy > 0 {
		query += ` AND posted_by = ?`
		args = append(args, filter.PostedBy)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		query += ` AND (lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY posted_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's descriptive fields. Claim fields are only
// changed through the claim operations.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, title, description, imageURL, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, image_url = ?, status = ? WHERE id = ?`,
		title, description, imageURL, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem hard-deletes an item; its messages go with it.
// Reports whether a row was removed.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
