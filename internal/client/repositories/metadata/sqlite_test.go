package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  owner TEXT NOT NULL,
  key   TEXT NOT NULL,
  value BLOB NOT NULL,
  PRIMARY KEY (owner, key)
);
`)
	require.NoError(t, err)
	return db
}

func TestSetGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "alice", "relays", []byte(`["wss://a"]`)))
	got, err := r.Get(ctx, "alice", "relays")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["wss://a"]`), got)

	// overwrite
	require.NoError(t, r.Set(ctx, "alice", "relays", []byte(`["wss://b"]`)))
	got, err = r.Get(ctx, "alice", "relays")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["wss://b"]`), got)
}

func TestGet_MissingReturnsNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.Get(context.Background(), "alice", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNamespacing(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "alice", "stake", []byte("a")))
	require.NoError(t, r.Set(ctx, "bob", "stake", []byte("b")))

	got, err := r.Get(ctx, "bob", "stake")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	all, err := r.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"stake": []byte("a")}, all)
}

func TestDeleteAndClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "alice", "k1", []byte("v1")))
	require.NoError(t, r.Set(ctx, "alice", "k2", []byte("v2")))
	require.NoError(t, r.Set(ctx, "bob", "k1", []byte("v3")))

	require.NoError(t, r.Delete(ctx, "alice", "k1"))
	got, err := r.Get(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, r.Clear(ctx, "alice"))
	all, err := r.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, all)

	// other owners untouched
	got, err = r.Get(ctx, "bob", "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), got)
}
