// Package storage opens the local journal database and wires up the
// repositories. The schema is managed with goose migrations embedded in the
// binary.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/mmilam360/nostr-journal/internal/client/migrations"
	"github.com/mmilam360/nostr-journal/internal/client/repositories/metadata"
	"github.com/mmilam360/nostr-journal/internal/client/repositories/notes"

	_ "modernc.org/sqlite"
)

// Repositories bundles the repository set backed by one database handle.
type Repositories struct {
	Notes    notes.Repository
	Metadata metadata.Repository

	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at dsn, applies
// pending migrations, and returns the repositories.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite allows one writer; a single pooled connection avoids busy errors
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &Repositories{
		Notes:    notes.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		db:       db,
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close closes the underlying database handle.
func (r *Repositories) Close() error { return r.db.Close() }
