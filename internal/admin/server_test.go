package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/iTrooz/proximate/internal/cache"
	"github.com/iTrooz/proximate/internal/cache/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture_admin(t *testing.T, n int) (*Server, factory.FileComponents) {
	t.Helper()
	components, err := factory.Build(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		key := "key" + strconv.Itoa(i)
		err := components.Pool.Set(context.Background(), key, &cache.Entry{
			URL:      "http://example.com/" + key,
			Method:   "GET",
			Key:      key,
			Response: []byte("response " + key),
		})
		require.NoError(t, err)
	}
	return New(components.Adapter), components
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestCount(t *testing.T) {
	s, _ := fixture_admin(t, 3)

	rec := serve(s, http.MethodGet, "/cache/count")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count": 3}`, rec.Body.String())
}

func TestKeys(t *testing.T) {
	s, _ := fixture_admin(t, 5)

	rec := serve(s, http.MethodGet, "/cache/keys?page=2&per_page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"page": 2, "per_page": 2, "keys": ["key3", "key4"]}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/cache/keys?page=9&per_page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"page": 9, "per_page": 2, "keys": []}`, rec.Body.String())
}

func TestKeysDefaultsAndClamp(t *testing.T) {
	s, _ := fixture_admin(t, 1)

	var body struct {
		Page    int      `json:"page"`
		PerPage int      `json:"per_page"`
		Keys    []string `json:"keys"`
	}

	rec := serve(s, http.MethodGet, "/cache/keys")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, DefaultPerPage, body.PerPage)

	rec = serve(s, http.MethodGet, "/cache/keys?per_page=100000")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MaxPerPage, body.PerPage)
}

func TestBadPageParams(t *testing.T) {
	s, _ := fixture_admin(t, 1)

	for _, target := range []string{
		"/cache/keys?page=0",
		"/cache/keys?page=abc",
		"/cache/items?per_page=-1",
		"/cache/items?include_response=maybe",
	} {
		t.Run(target, func(t *testing.T) {
			rec := serve(s, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestItems(t *testing.T) {
	s, _ := fixture_admin(t, 2)

	var body struct {
		Items []cache.Entry `json:"items"`
	}

	rec := serve(s, http.MethodGet, "/cache/items")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "key1", body.Items[0].Key)
	assert.Equal(t, "http://example.com/key1", body.Items[0].URL)
	assert.Empty(t, body.Items[0].Response)

	var raw struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, item := range raw.Items {
		assert.NotContains(t, item, "response")
		assert.Contains(t, item, "key")
	}

	rec = serve(s, http.MethodGet, "/cache/items?include_response=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "response key2", string(body.Items[1].Response))
}

func TestItemsKeepEmptyResponses(t *testing.T) {
	s, components := fixture_admin(t, 0)
	require.NoError(t, components.Pool.Set(context.Background(), "empty", &cache.Entry{
		URL: "http://example.com/empty", Method: "GET", Key: "empty", Response: []byte{},
	}))

	var raw struct {
		Items []map[string]any `json:"items"`
	}
	rec := serve(s, http.MethodGet, "/cache/items?include_response=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Items, 1)
	assert.Equal(t, "", raw.Items[0]["response"])
}

func TestReadItem(t *testing.T) {
	s, _ := fixture_admin(t, 1)

	rec := serve(s, http.MethodGet, "/cache/items/key1")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry cache.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "response key1", string(entry.Response))

	rec = serve(s, http.MethodGet, "/cache/items/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/cache/items/bad:key")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpireItem(t *testing.T) {
	s, components := fixture_admin(t, 2)

	rec := serve(s, http.MethodDelete, "/cache/items/key1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, http.MethodDelete, "/cache/items/key1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	count, err := components.Adapter.CountCacheItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnboundAdapter(t *testing.T) {
	s := New(cache.NewEnumerating())

	rec := serve(s, http.MethodGet, "/cache/count")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "cache pool")
}

type failingAdapter struct {
	cache.Adapter
}

func (failingAdapter) CountCacheItems(context.Context) (int, error) {
	return 0, errors.New("backend down")
}

func TestBackendError(t *testing.T) {
	rec := serve(New(failingAdapter{}), http.MethodGet, "/cache/count")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetrics(t *testing.T) {
	s, _ := fixture_admin(t, 1)
	serve(s, http.MethodGet, "/cache/count")

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "proximate_cache_operations_total")
}
