// Package factory builds cache pools and the adapters bound to them.
package factory

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/filestore"
	"github.com/iTrooz/proximate/internal/cache/pool"
	"github.com/sirupsen/logrus"
)

// ErrNotBuilt is wrapped by every NotBuiltError
var ErrNotBuilt = errors.New("factory not initialized")

// NotBuiltError reports an accessor called before Init
type NotBuiltError struct {
	Accessor string
}

func (e *NotBuiltError) Error() string {
	return fmt.Sprintf("%s not set, have you called Init()?", e.Accessor)
}

func (e *NotBuiltError) Unwrap() error {
	return ErrNotBuilt
}

// FileComponents is a file-backed pool and the adapter bound to it
type FileComponents struct {
	Pool    *pool.FilePool
	Adapter *cache.Base
}

// Factory creates a file cache from a single path.
// The parent of the path is the storage root, its leaf is the cache folder.
type Factory struct {
	cachePath string
	built     *FileComponents
}

// New records the cache path. Nothing is created until Init.
func New(cachePath string) *Factory {
	return &Factory{cachePath: cachePath}
}

// Init builds the pool and adapter. It may only be called once.
func (f *Factory) Init() error {
	if f.built != nil {
		return fmt.Errorf("factory for %s already initialized", f.cachePath)
	}

	components, err := Build(f.cachePath)
	if err != nil {
		return err
	}
	f.built = &components
	return nil
}

// CachePool returns the pool built by Init
func (f *Factory) CachePool() (*pool.FilePool, error) {
	if f.built == nil {
		return nil, &NotBuiltError{Accessor: "Cache pool"}
	}
	return f.built.Pool, nil
}

// CacheAdapter returns the adapter built by Init
func (f *Factory) CacheAdapter() (*cache.Base, error) {
	if f.built == nil {
		return nil, &NotBuiltError{Accessor: "Cache adapter"}
	}
	return f.built.Adapter, nil
}

// Build creates a file store at the parent of cachePath, a pool namespaced under
// its leaf, and a filesystem adapter bound to that pool.
func Build(cachePath string) (FileComponents, error) {
	if cachePath == "" {
		return FileComponents{}, fmt.Errorf("cache path is required")
	}

	cleanPath := filepath.Clean(cachePath)
	baseDir := filepath.Dir(cleanPath)
	leafDir := filepath.Base(cleanPath)
	if leafDir == string(filepath.Separator) || leafDir == "." {
		return FileComponents{}, fmt.Errorf("cache path %q has no leaf directory", cachePath)
	}

	// This sets up the cache storage system
	files := filestore.New(baseDir)
	filePool := pool.NewFile(files, leafDir)

	// The adapter lists keys straight from the same file store
	adapter := cache.NewFilesystem(files, leafDir).SetPool(filePool)

	logrus.Debugf("Built file cache in %s (folder %s)", baseDir, leafDir)
	return FileComponents{
		Pool:    filePool,
		Adapter: adapter,
	}, nil
}
