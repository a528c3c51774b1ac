package metadata

import "context"

// Repository is a small key-value store for per-profile settings: relay
// preferences, the stake record, profile bits. Keys are namespaced by the
// owner's public key so several profiles can share one database file.
type Repository interface {
	// Get returns the value for (owner, key), or nil if absent.
	Get(ctx context.Context, owner, key string) ([]byte, error)
	Set(ctx context.Context, owner, key string, value []byte) error
	Delete(ctx context.Context, owner, key string) error
	List(ctx context.Context, owner string) (map[string][]byte, error)
	// Clear removes every key belonging to owner.
	Clear(ctx context.Context, owner string) error
}
