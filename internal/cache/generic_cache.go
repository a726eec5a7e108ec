package cache

import "context"

// Pool is the key-value store backing an adapter.
// Implementations serialize entries themselves and handle their own locking.
type Pool interface {
	// retrieves the entry stored under key.
	// returns nil, nil when not found
	Get(ctx context.Context, key string) (*Entry, error)
	// retrieves several entries at once. Missing keys are omitted from the result.
	GetMany(ctx context.Context, keys []string) (map[string]*Entry, error)
	// stores entry under key, replacing any previous value
	Set(ctx context.Context, key string, entry *Entry) error
	// removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by pools that can enumerate their keys
type KeyLister interface {
	ListKeys(ctx context.Context) ([]string, error)
}

// EnumerablePool is a pool that can list its own keys
type EnumerablePool interface {
	Pool
	KeyLister
}
