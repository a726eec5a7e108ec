package pool

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLitePool {
	t.Helper()
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSQLitePoolContract(t *testing.T) {
	testPoolContract(t, openTestSQLite(t))
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestSQLitePoolPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	p, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, p.Set(ctx, "kept", demoEntry("kept")))
	require.NoError(t, p.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	entry, err := reopened.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, demoEntry("kept"), entry)
}

func TestSQLitePoolCloseNil(t *testing.T) {
	var p *SQLitePool
	assert.NoError(t, p.Close())
}
