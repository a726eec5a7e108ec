package pool

import (
	"context"
	"testing"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoEntry(key string) *cache.Entry {
	return &cache.Entry{
		URL:      "http://example.com/" + key,
		Method:   "GET",
		Key:      key,
		Response: []byte("HTTP/1.1 200 OK\r\n\r\nbody of " + key),
	}
}

// testPoolContract runs the behaviour every pool must share against p, which must start empty
func testPoolContract(t *testing.T, p cache.EnumerablePool) {
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		entry, err := p.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("empty listing", func(t *testing.T) {
		keys, err := p.ListKeys(ctx)
		require.NoError(t, err)
		assert.NotNil(t, keys)
		assert.Empty(t, keys)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "k1", demoEntry("k1")))

		entry, err := p.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, demoEntry("k1"), entry)
	})

	t.Run("overwrite", func(t *testing.T) {
		updated := demoEntry("k1")
		updated.Response = []byte("newer")
		require.NoError(t, p.Set(ctx, "k1", updated))

		entry, err := p.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "newer", string(entry.Response))
	})

	t.Run("empty response survives", func(t *testing.T) {
		empty := demoEntry("k0")
		empty.Response = []byte{}
		require.NoError(t, p.Set(ctx, "k0", empty))

		entry, err := p.Get(ctx, "k0")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Empty(t, entry.Response)
		require.NoError(t, p.Delete(ctx, "k0"))
	})

	t.Run("get many", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "k2", demoEntry("k2")))
		require.NoError(t, p.Set(ctx, "k3", demoEntry("k3")))

		found, err := p.GetMany(ctx, []string{"k3", "nope", "k2"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Equal(t, demoEntry("k2"), found["k2"])
		assert.Equal(t, demoEntry("k3"), found["k3"])

		none, err := p.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("list keys", func(t *testing.T) {
		keys, err := p.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2", "k3"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, p.Delete(ctx, "k2"))
		require.NoError(t, p.Delete(ctx, "k2"))

		entry, err := p.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Nil(t, entry)

		keys, err := p.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k3"}, keys)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "..", "a/b", "a:b", "{x}"} {
			_, err := p.Get(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey, "get %q", key)
			assert.ErrorIs(t, p.Set(ctx, key, demoEntry("x")), ErrInvalidKey, "set %q", key)
		}
	})

	t.Run("nil entry", func(t *testing.T) {
		assert.Error(t, p.Set(ctx, "k4", nil))
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{key: "3a16c18276a3d08036098e616d7b44709d4e2de1", wantErr: false},
		{key: "key1234", wantErr: false},
		{key: "with space", wantErr: false},
		{key: "", wantErr: true},
		{key: ".", wantErr: true},
		{key: "..", wantErr: true},
		{key: "a/b", wantErr: true},
		{key: `a\b`, wantErr: true},
		{key: "user@host", wantErr: true},
		{key: "(x)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := validateKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
