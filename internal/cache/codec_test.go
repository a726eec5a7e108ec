package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoMetadata() Metadata {
	return Metadata{
		FieldURL:    "http://example.com/page",
		FieldMethod: "GET",
		FieldKey:    "mykey",
	}
}

func TestPassthroughCodec(t *testing.T) {
	adapter := New(nil, nil)
	response := []byte("This is a response")

	stored, err := adapter.ConvertResponseToCache(response, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, &Entry{Response: response}, stored)

	got, err := adapter.ConvertCacheToResponse(stored)
	require.NoError(t, err)
	assert.Equal(t, response, got)
}

func TestEntryCodecConvertResponseToCache(t *testing.T) {
	adapter := NewFilesystem(nil, "cache")
	response := []byte("This is a response")

	converted, err := adapter.ConvertResponseToCache(response, demoMetadata())
	require.NoError(t, err)
	assert.Equal(t, &Entry{
		URL:      "http://example.com/page",
		Method:   "GET",
		Key:      "mykey",
		Response: response,
	}, converted)
}

func TestEntryCodecMissingMetadata(t *testing.T) {
	adapter := NewFilesystem(nil, "cache")

	for _, missing := range []string{FieldURL, FieldMethod, FieldKey} {
		t.Run(missing, func(t *testing.T) {
			metadata := demoMetadata()
			delete(metadata, missing)

			_, err := adapter.ConvertResponseToCache([]byte("This is a response"), metadata)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, missing, verr.Field)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestEntryCodecConvertCacheToResponse(t *testing.T) {
	adapter := NewFilesystem(nil, "cache")

	got, err := adapter.ConvertCacheToResponse(&Entry{
		URL:      "http://example.com/page",
		Method:   "GET",
		Key:      "mykey",
		Response: []byte("This is a response"),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("This is a response"), got)

	_, err = adapter.ConvertCacheToResponse(&Entry{URL: "http://example.com/page", Method: "GET", Key: "mykey"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldResponse, verr.Field)

	_, err = adapter.ConvertCacheToResponse(nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEntryCodecRoundTrip(t *testing.T) {
	adapter := NewFilesystem(nil, "cache")

	responses := [][]byte{
		[]byte("HTTP/1.1 200 OK\r\n\r\nhello"),
		{0x00, 0xff, 0x10},
		{},
		nil,
	}
	for _, response := range responses {
		stored, err := adapter.ConvertResponseToCache(response, demoMetadata())
		require.NoError(t, err)

		got, err := adapter.ConvertCacheToResponse(stored)
		require.NoError(t, err)
		assert.Equal(t, string(response), string(got))
	}
}

func TestConvertersWorkWithoutPool(t *testing.T) {
	adapter := NewFilesystem(nil, "cache")

	stored, err := adapter.ConvertResponseToCache([]byte("x"), demoMetadata())
	require.NoError(t, err)
	_, err = adapter.ConvertCacheToResponse(stored)
	require.NoError(t, err)
}
