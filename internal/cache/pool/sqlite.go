package pool

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/iTrooz/proximate/internal/cache"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_items (
	cache_key  TEXT PRIMARY KEY,
	value_json BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLitePool stores JSON entries in a SQLite table
type SQLitePool struct {
	sqlDB *sql.DB
}

// Verify interface implementation
var _ cache.EnumerablePool = (*SQLitePool)(nil)

// OpenSQLite opens, and creates if needed, a SQLite pool at path
func OpenSQLite(path string) (*SQLitePool, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create cache_items table: %w", err)
	}

	return &SQLitePool{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection
func (p *SQLitePool) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

func (p *SQLitePool) Get(ctx context.Context, key string) (*cache.Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := p.sqlDB.QueryRowContext(ctx,
		`SELECT value_json FROM cache_items WHERE cache_key = ?`,
		key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("get cache item: %w", err)
	}

	return decodeEntry(data)
}

func (p *SQLitePool) GetMany(ctx context.Context, keys []string) (map[string]*cache.Entry, error) {
	found := make(map[string]*cache.Entry, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		if err := validateKey(key); err != nil {
			return nil, err
		}
		args[i] = key
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	rows, err := p.sqlDB.QueryContext(ctx,
		`SELECT cache_key, value_json FROM cache_items WHERE cache_key IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get cache items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan cache item: %w", err)
		}
		entry, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}
		found[key] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache items: %w", err)
	}
	return found, nil
}

func (p *SQLitePool) Set(ctx context.Context, key string, entry *cache.Entry) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	_, err = p.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_items (cache_key, value_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put cache item: %w", err)
	}
	return nil
}

func (p *SQLitePool) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if _, err := p.sqlDB.ExecContext(ctx, `DELETE FROM cache_items WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete cache item: %w", err)
	}
	return nil
}

func (p *SQLitePool) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := p.sqlDB.QueryContext(ctx, `SELECT cache_key FROM cache_items ORDER BY cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache keys: %w", err)
	}
	return keys, nil
}
