// Package pool provides the key-value stores cache adapters are bound to.
package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/filestore"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidKey indicates a key that cannot be stored
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidEntry indicates a stored value that cannot be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

func validateKey(key string) error {
	if !cache.ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// FilePool stores one JSON file per key inside a folder of a file store
type FilePool struct {
	files  *filestore.Store
	folder string
}

// Verify interface implementation
var _ cache.EnumerablePool = (*FilePool)(nil)

// NewFile creates a pool keeping its entries under folder
func NewFile(files *filestore.Store, folder string) *FilePool {
	return &FilePool{
		files:  files,
		folder: folder,
	}
}

// Folder returns the namespace the pool writes to inside its file store
func (p *FilePool) Folder() string {
	return p.folder
}

func (p *FilePool) keyPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return path.Join(p.folder, key), nil
}

func (p *FilePool) Get(_ context.Context, key string) (*cache.Entry, error) {
	keyPath, err := p.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := p.files.Read(keyPath)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	return decodeEntry(data)
}

func (p *FilePool) GetMany(ctx context.Context, keys []string) (map[string]*cache.Entry, error) {
	found := make(map[string]*cache.Entry, len(keys))
	for _, key := range keys {
		entry, err := p.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			found[key] = entry
		}
	}
	return found, nil
}

func (p *FilePool) Set(_ context.Context, key string, entry *cache.Entry) error {
	keyPath, err := p.keyPath(key)
	if err != nil {
		return err
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if err := p.files.Write(keyPath, data); err != nil {
		return err
	}

	logrus.Debugf("Cached entry: %s", keyPath)
	return nil
}

func (p *FilePool) Delete(_ context.Context, key string) error {
	keyPath, err := p.keyPath(key)
	if err != nil {
		return err
	}
	return p.files.Delete(keyPath)
}

func (p *FilePool) ListKeys(_ context.Context) ([]string, error) {
	contents, err := p.files.ListContents(p.folder)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(contents))
	for _, info := range contents {
		// subdirectories and foreign files are not entries
		if info.Type == "file" && cache.ValidKey(info.Basename) {
			keys = append(keys, info.Basename)
		}
	}
	return keys, nil
}

func encodeEntry(entry *cache.Entry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("cache entry cannot be nil")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*cache.Entry, error) {
	var entry cache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return &entry, nil
}
