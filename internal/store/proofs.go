package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveProof stores an uploaded image and returns its ID.
func SaveProof(ctx context.Context, db *sql.DB, data []byte, mime string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO proofs (data, mime) VALUES (?, ?)`, data, mime,
	)
	if err != nil {
		return 0, fmt.Errorf("saving proof: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting proof id: %w", err)
	}
	return id, nil
}

// GetProof returns a stored image and its MIME type, or nil data if absent.
func GetProof(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM proofs WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting proof: %w", err)
	}
	return data, mime, nil
}

// DeleteProof removes a stored image. Deleting a missing image is not an error.
func DeleteProof(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM proofs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting proof: %w", err)
	}
	return nil
}
