package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *Record) error {
	query := `INSERT INTO notes (id, owner, cipher, nonce, sync_status, event_id, last_synced, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id) DO UPDATE SET
			cipher = excluded.cipher,
			nonce = excluded.nonce,
			sync_status = excluded.sync_status,
			event_id = excluded.event_id,
			last_synced = excluded.last_synced,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Owner, rec.Cipher, rec.Nonce, rec.SyncStatus, rec.EventID,
		unixOrNil(rec.LastSynced), rec.UpdatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, owner, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, cipher, nonce, sync_status, event_id, last_synced, updated_at
		 FROM notes WHERE owner = ? AND id = ?`, owner, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, owner string) ([]Record, error) {
	return r.list(ctx,
		`SELECT id, owner, cipher, nonce, sync_status, event_id, last_synced, updated_at
		 FROM notes WHERE owner = ? ORDER BY updated_at DESC`, owner)
}

func (r *SQLiteRepository) GetBySyncStatus(ctx context.Context, owner, status string) ([]Record, error) {
	return r.list(ctx,
		`SELECT id, owner, cipher, nonce, sync_status, event_id, last_synced, updated_at
		 FROM notes WHERE owner = ? AND sync_status = ? ORDER BY updated_at DESC`, owner, status)
}

func (r *SQLiteRepository) SetSyncState(ctx context.Context, owner, id, status, eventID string, syncedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET sync_status = ?, event_id = ?, last_synced = ? WHERE owner = ? AND id = ?`,
		status, eventID, unixOrNil(syncedAt), owner, id)
	if err != nil {
		return fmt.Errorf("failed to update sync state for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, owner, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE owner = ? AND id = ?`, owner, id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRecord(scan func(...any) error) (*Record, error) {
	var rec Record
	var lastSynced sql.NullInt64
	var updatedAt int64
	if err := scan(&rec.ID, &rec.Owner, &rec.Cipher, &rec.Nonce,
		&rec.SyncStatus, &rec.EventID, &lastSynced, &updatedAt); err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		t := time.Unix(lastSynced.Int64, 0).UTC()
		rec.LastSynced = &t
	}
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &rec, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Unix()
}
