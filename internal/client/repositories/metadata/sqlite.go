package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmilam360/nostr-journal/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE owner = ? AND key = ?`, owner, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s/%s]: %w", owner, key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, owner, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (owner, key, value) VALUES (?, ?, ?)
		ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value
	`, owner, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s/%s]: %w", owner, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM metadata WHERE owner = ? AND key = ?`, owner, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s/%s]: %w", owner, key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, owner string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE owner = ?`, owner)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
