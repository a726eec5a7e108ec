package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rawRequest(method, url, headers, body string) string {
	return method + " " + url + " HTTP/1.1\r\nHost: example.com\r\n" + headers + "\r\n" + body
}

func TestCreateCacheKey(t *testing.T) {
	parser := ProxyRequestParser{}

	tests := []struct {
		name         string
		raw          string
		effectiveURL string
		want         string
	}{
		{
			name:         "GET ignores body",
			raw:          rawRequest("GET", "http://example.com/page", "", "ignored body"),
			effectiveURL: "http://example.com/page",
			want:         "3a16c18276a3d08036098e616d7b44709d4e2de1",
		},
		{
			name:         "POST hashes body",
			raw:          rawRequest("POST", "http://example.com/api", "Content-Length: 7\r\n", `{"a":1}`),
			effectiveURL: "http://example.com/api",
			want:         "5e795b70fbe38641c193f6f8b05c01b3e66db8e4",
		},
		{
			name:         "rewritten HTTPS request keys on effective URL",
			raw:          rawRequest("GET", "http://example.com/secure", "", ""),
			effectiveURL: "https://example.com/secure",
			want:         "1c2848211dfda9a9b10d77785a3d34ce4a922eb9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateCacheKey(parser, tt.raw, tt.effectiveURL)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 40)
		})
	}
}

func TestCreateCacheKeyBodyPolicy(t *testing.T) {
	parser := ProxyRequestParser{}
	url := "http://example.com/resource"

	for _, method := range []string{"GET", "PUT", "PATCH", "DELETE"} {
		t.Run(method+" body is ignored", func(t *testing.T) {
			a := CreateCacheKey(parser, rawRequest(method, url, "", "one"), url)
			b := CreateCacheKey(parser, rawRequest(method, url, "", "two"), url)
			assert.Equal(t, a, b)
		})
	}

	t.Run("POST body changes the key", func(t *testing.T) {
		a := CreateCacheKey(parser, rawRequest("POST", url, "", "one"), url)
		b := CreateCacheKey(parser, rawRequest("POST", url, "", "two"), url)
		assert.NotEqual(t, a, b)
	})

	t.Run("headers do not change the key", func(t *testing.T) {
		a := CreateCacheKey(parser, rawRequest("POST", url, "Accept: text/html\r\n", "same"), url)
		b := CreateCacheKey(parser, rawRequest("POST", url, "Accept: application/json\r\nX-Trace: 1\r\n", "same"), url)
		assert.Equal(t, a, b)
	})

	t.Run("deterministic", func(t *testing.T) {
		raw := rawRequest("POST", url, "", "payload")
		first := CreateCacheKey(parser, raw, url)
		for range 10 {
			assert.Equal(t, first, CreateCacheKey(parser, raw, url))
		}
	})
}

func TestProxyRequestParser(t *testing.T) {
	parser := ProxyRequestParser{}

	tests := []struct {
		name       string
		raw        string
		wantMethod string
		wantBody   string
	}{
		{
			name:       "CRLF request",
			raw:        "POST http://example.com/ HTTP/1.1\r\nHost: example.com\r\n\r\nbody\n\nwith blank line",
			wantMethod: "POST",
			wantBody:   "body\n\nwith blank line",
		},
		{
			name:       "LF request",
			raw:        "PUT /x HTTP/1.0\nHost: example.com\n\ndata",
			wantMethod: "PUT",
			wantBody:   "data",
		},
		{
			name:       "no body",
			raw:        "GET / HTTP/1.1\r\nHost: example.com\r\n",
			wantMethod: "GET",
			wantBody:   "",
		},
		{
			name:       "empty input",
			raw:        "",
			wantMethod: "",
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMethod, parser.Method(tt.raw))
			assert.Equal(t, tt.wantBody, parser.Body(tt.raw))
		})
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "3a16c18276a3d08036098e616d7b44709d4e2de1", want: true},
		{key: "lost+found", want: true},
		{key: "", want: false},
		{key: ".", want: false},
		{key: "..", want: false},
		{key: "x:y", want: false},
		{key: "a/b", want: false},
		{key: `a\b`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidKey(tt.key))
		})
	}
}
