// Package httpcache stores proxied HTTP responses through a cache adapter.
package httpcache

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/sirupsen/logrus"
)

// HTTPCache reads and writes whole HTTP responses.
// Writes go through the pool, the adapter shapes what is stored.
type HTTPCache struct {
	pool    cache.Pool
	adapter cache.Adapter
}

func New(pool cache.Pool, adapter cache.Adapter) *HTTPCache {
	return &HTTPCache{
		pool:    pool,
		adapter: adapter,
	}
}

// GetReq returns the cached response for req and the key it was looked up under.
// The response is nil on a cache miss.
func (c *HTTPCache) GetReq(ctx context.Context, req *http.Request) (*http.Response, string, error) {
	key, err := GenerateKey(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate cache key: %w", err)
	}

	resp, err := c.GetKey(ctx, key)
	if err != nil {
		return nil, key, err
	}
	// Handle no cache hit
	if resp == nil {
		return nil, key, nil
	}

	// Associate the original request with the response
	resp.Request = req
	return resp, key, nil
}

// GetKey returns the response stored under key, or nil on a cache miss
func (c *HTTPCache) GetKey(ctx context.Context, key string) (*http.Response, error) {
	entry, err := c.pool.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	if entry == nil {
		return nil, nil // Cache miss
	}

	data, err := c.adapter.ConvertCacheToResponse(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}

	resp, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}
	logrus.Debugf("Cache hit for %s %s", entry.Method, entry.URL)
	return resp, nil
}

// SetReq stores resp under the key of req
func (c *HTTPCache) SetReq(ctx context.Context, req *http.Request, resp *http.Response) error {
	key, err := GenerateKey(req)
	if err != nil {
		return fmt.Errorf("failed to generate cache key: %w", err)
	}

	return c.SetKey(ctx, key, req, resp)
}

// SetKey stores resp under an already computed key
func (c *HTTPCache) SetKey(ctx context.Context, key string, req *http.Request, resp *http.Response) error {
	data, err := Serialize(resp)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	entry, err := c.adapter.ConvertResponseToCache(data, cache.Metadata{
		cache.FieldURL:    EffectiveURL(req),
		cache.FieldMethod: req.Method,
		cache.FieldKey:    key,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.pool.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}
