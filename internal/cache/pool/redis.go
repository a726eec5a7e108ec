package pool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint passed to SCAN
const scanBatch = 500

// RedisPool stores JSON entries in Redis under a key prefix
type RedisPool struct {
	redis  *redis.Client
	prefix string
}

// Verify interface implementation
var _ cache.EnumerablePool = (*RedisPool)(nil)

// NewRedis creates a pool storing keys as "<prefix>:<key>"
func NewRedis(client *redis.Client, prefix string) *RedisPool {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisPool{
		redis:  client,
		prefix: prefix,
	}
}

func (p *RedisPool) redisKey(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return p.prefix + ":" + key, nil
}

func (p *RedisPool) Get(ctx context.Context, key string) (*cache.Entry, error) {
	redisKey, err := p.redisKey(key)
	if err != nil {
		return nil, err
	}

	data, err := p.redis.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decodeEntry(data)
}

func (p *RedisPool) GetMany(ctx context.Context, keys []string) (map[string]*cache.Entry, error) {
	found := make(map[string]*cache.Entry, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKey, err := p.redisKey(key)
		if err != nil {
			return nil, err
		}
		redisKeys[i] = redisKey
	}

	values, err := p.redis.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// nil for missing keys
			continue
		}
		entry, err := decodeEntry([]byte(raw))
		if err != nil {
			return nil, err
		}
		found[keys[i]] = entry
	}
	return found, nil
}

func (p *RedisPool) Set(ctx context.Context, key string, entry *cache.Entry) error {
	redisKey, err := p.redisKey(key)
	if err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	// No TTL, entries live until expired explicitly
	if err := p.redis.Set(ctx, redisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (p *RedisPool) Delete(ctx context.Context, key string) error {
	redisKey, err := p.redisKey(key)
	if err != nil {
		return err
	}

	if err := p.redis.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// globEscaper quotes the characters SCAN MATCH treats as wildcards
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// scanPattern matches every key under prefix and nothing outside it
func scanPattern(prefix string) string {
	return globEscaper.Replace(prefix) + ":*"
}

// ListKeys scans the prefix. SCAN has no order, so keys are sorted.
func (p *RedisPool) ListKeys(ctx context.Context) ([]string, error) {
	keys := []string{}
	seen := make(map[string]struct{})

	iter := p.redis.Scan(ctx, 0, scanPattern(p.prefix), scanBatch).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), p.prefix+":")
		// SCAN may return a key more than once
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}
