// Handles storage of proxied HTTP responses as content-addressed cache entries
package cache

import "context"

// Metadata field names required by EntryCodec
const (
	FieldURL      = "url"
	FieldMethod   = "method"
	FieldKey      = "key"
	FieldResponse = "response"
)

// Entry is the record stored per cache key.
// Response is nil when a listing asked to omit it.
type Entry struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	Key      string `json:"key"`
	Response []byte `json:"response"`
}

// Metadata describes the request a response belongs to
type Metadata map[string]string

// Adapter is the operation set every cache backend supports
type Adapter interface {
	// number of stored entries, always len(ListCacheKeys())
	CountCacheItems(ctx context.Context) (int, error)
	// every stored key, in a backend-defined but stable order
	ListCacheKeys(ctx context.Context) ([]string, error)
	// slice [(page-1)*perPage, page*perPage) of ListCacheKeys. Out of range pages are empty.
	PageOfCacheKeys(ctx context.Context, page, perPage int) ([]string, error)
	// entries for a page of keys. Keys the pool cannot resolve are dropped.
	PageOfCacheItems(ctx context.Context, page, perPage int, includeResponse bool) ([]*Entry, error)
	// returns nil, nil when nothing is stored under key
	ReadCacheItem(ctx context.Context, key string) (*Entry, error)
	// deletes key from the pool, no-op when absent
	ExpireCacheItem(ctx context.Context, key string) error
	// builds the value to store for a response
	ConvertResponseToCache(response []byte, metadata Metadata) (*Entry, error)
	// recovers the response from a stored value
	ConvertCacheToResponse(stored *Entry) ([]byte, error)
}

// withoutResponse returns a copy of e with the response omitted
func (e *Entry) withoutResponse() *Entry {
	c := *e
	c.Response = nil
	return &c
}
