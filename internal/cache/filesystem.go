package cache

import (
	"context"

	"github.com/iTrooz/proximate/internal/cache/filestore"
)

// FileLister lists the contents of a directory in a file store
type FileLister interface {
	ListContents(dir string) ([]filestore.Info, error)
}

// leafNameLister reports the file names under dir as cache keys.
// Subdirectories and names no pool could store are skipped.
type leafNameLister struct {
	files FileLister
	dir   string
}

func (l leafNameLister) ListKeys(_ context.Context) ([]string, error) {
	contents, err := l.files.ListContents(l.dir)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(contents))
	for _, info := range contents {
		// only files named like keys hold entries
		if info.Type == "dir" || !ValidKey(info.Basename) {
			continue
		}
		keys = append(keys, info.Basename)
	}
	return keys, nil
}

// NewFilesystem creates the adapter for pools storing one file per key under dir.
// Keys are listed straight from the file store. Entries must carry url, method and key.
func NewFilesystem(files FileLister, dir string) *Base {
	return New(leafNameLister{files: files, dir: dir}, EntryCodec{})
}
