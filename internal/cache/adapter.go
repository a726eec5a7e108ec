package cache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Base implements Adapter on top of a key lister, a codec and a pool.
// Concrete backends are built by choosing the lister and codec.
// Pool and lister errors are returned as-is.
type Base struct {
	lister KeyLister
	codec  Codec
	pool   Pool
}

// Verify interface implementation
var _ Adapter = (*Base)(nil)

// New creates an adapter listing keys through lister.
// A nil lister means keys are enumerated by the bound pool itself.
// A nil codec means PassthroughCodec.
func New(lister KeyLister, codec Codec) *Base {
	if codec == nil {
		codec = PassthroughCodec{}
	}
	return &Base{
		lister: lister,
		codec:  codec,
	}
}

// NewEnumerating creates an adapter for pools that list their own keys
func NewEnumerating() *Base {
	return New(nil, EntryCodec{})
}

// SetPool binds the adapter to a pool. Returns the adapter for chaining.
func (b *Base) SetPool(pool Pool) *Base {
	b.pool = pool
	return b
}

func (b *Base) getPool() (Pool, error) {
	if b.pool == nil {
		return nil, &InitError{Dependency: "cache pool"}
	}
	return b.pool, nil
}

func (b *Base) CountCacheItems(ctx context.Context) (int, error) {
	keys, err := b.listCacheKeys(ctx)
	observe("count", err)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (b *Base) ListCacheKeys(ctx context.Context) ([]string, error) {
	keys, err := b.listCacheKeys(ctx)
	observe("list", err)
	return keys, err
}

func (b *Base) listCacheKeys(ctx context.Context) ([]string, error) {
	pool, err := b.getPool()
	if err != nil {
		return nil, err
	}

	lister := b.lister
	if lister == nil {
		l, ok := pool.(KeyLister)
		if !ok {
			return nil, &InitError{Dependency: "key lister"}
		}
		lister = l
	}

	keys, err := lister.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (b *Base) PageOfCacheKeys(ctx context.Context, page, perPage int) ([]string, error) {
	keys, err := b.pageOfCacheKeys(ctx, page, perPage)
	observe("page_keys", err)
	return keys, err
}

func (b *Base) pageOfCacheKeys(ctx context.Context, page, perPage int) ([]string, error) {
	if page < 1 {
		return nil, &ValidationError{Field: "page", Reason: fmt.Sprintf("must be at least 1, got %d", page)}
	}
	if perPage < 1 {
		return nil, &ValidationError{Field: "per_page", Reason: fmt.Sprintf("must be at least 1, got %d", perPage)}
	}

	keys, err := b.listCacheKeys(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(keys, page, perPage), nil
}

// paginate returns the page-th slice of perPage keys, empty past the end
func paginate(keys []string, page, perPage int) []string {
	// compare before multiplying so huge page numbers cannot overflow
	if page-1 > len(keys)/perPage {
		return []string{}
	}
	start := (page - 1) * perPage
	if start >= len(keys) {
		return []string{}
	}
	end := min(start+perPage, len(keys))

	out := make([]string, end-start)
	copy(out, keys[start:end])
	return out
}

func (b *Base) PageOfCacheItems(ctx context.Context, page, perPage int, includeResponse bool) ([]*Entry, error) {
	items, err := b.pageOfCacheItems(ctx, page, perPage, includeResponse)
	observe("page_items", err)
	return items, err
}

func (b *Base) pageOfCacheItems(ctx context.Context, page, perPage int, includeResponse bool) ([]*Entry, error) {
	keys, err := b.pageOfCacheKeys(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	pool, err := b.getPool()
	if err != nil {
		return nil, err
	}

	found, err := pool.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	items := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		entry := found[key]
		if entry == nil {
			logrus.Debugf("Cache key %s listed but not resolved, skipping", key)
			continue
		}
		if !includeResponse {
			entry = entry.withoutResponse()
		}
		items = append(items, entry)
	}
	return items, nil
}

func (b *Base) ReadCacheItem(ctx context.Context, key string) (*Entry, error) {
	entry, err := b.readCacheItem(ctx, key)
	observe("read", err)
	return entry, err
}

func (b *Base) readCacheItem(ctx context.Context, key string) (*Entry, error) {
	pool, err := b.getPool()
	if err != nil {
		return nil, err
	}
	entry, err := pool.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (b *Base) ExpireCacheItem(ctx context.Context, key string) error {
	err := b.expireCacheItem(ctx, key)
	observe("expire", err)
	return err
}

func (b *Base) expireCacheItem(ctx context.Context, key string) error {
	pool, err := b.getPool()
	if err != nil {
		return err
	}
	if err := pool.Delete(ctx, key); err != nil {
		return err
	}
	logrus.Debugf("Expired cache item %s", key)
	return nil
}

func (b *Base) ConvertResponseToCache(response []byte, metadata Metadata) (*Entry, error) {
	return b.codec.Encode(response, metadata)
}

func (b *Base) ConvertCacheToResponse(stored *Entry) ([]byte, error) {
	return b.codec.Decode(stored)
}
