package notes

import (
	"context"
	"time"
)

// Record is one encrypted note row. The note body travels as AEAD ciphertext
// plus nonce; only sync bookkeeping stays queryable in plaintext columns.
// Rows are namespaced by the owner's public key.
type Record struct {
	ID         string
	Owner      string
	Cipher     []byte
	Nonce      []byte
	SyncStatus string
	EventID    string
	LastSynced *time.Time
	UpdatedAt  time.Time
}

// Repository stores encrypted notes for all local profiles.
type Repository interface {
	// Upsert inserts or replaces the record by (owner, id).
	Upsert(ctx context.Context, r *Record) error

	// GetByID returns the record or common.ErrNotFound.
	GetByID(ctx context.Context, owner, id string) (*Record, error)

	// GetAll lists the owner's records, most recently updated first.
	GetAll(ctx context.Context, owner string) ([]Record, error)

	// GetBySyncStatus lists the owner's records in the given sync state.
	GetBySyncStatus(ctx context.Context, owner, status string) ([]Record, error)

	// SetSyncState updates only the sync bookkeeping columns.
	SetSyncState(ctx context.Context, owner, id, status, eventID string, syncedAt *time.Time) error

	// DeleteByID removes the record. Deleting a missing record is not an error.
	DeleteByID(ctx context.Context, owner, id string) error
}
