package httpcache

import (
	"fmt"
	"net/http"
	"net/http/httputil"

	"github.com/iTrooz/proximate/internal/cache"
)

// EffectiveURL returns the absolute URL a proxied request targets.
// Intercepted HTTPS requests keep their https scheme.
func EffectiveURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}

	// Reconstruct URL from Host header
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.String())
}

// RawRequest dumps the request as proxy request text. The body stays readable.
func RawRequest(r *http.Request) (string, error) {
	b, err := httputil.DumpRequest(r, true)
	if err != nil {
		return "", fmt.Errorf("failed to dump request: %w", err)
	}
	return string(b), nil
}

// GenerateKey computes the cache key of a proxied request
func GenerateKey(r *http.Request) (string, error) {
	raw, err := RawRequest(r)
	if err != nil {
		return "", err
	}
	return cache.CreateCacheKey(cache.ProxyRequestParser{}, raw, EffectiveURL(r)), nil
}
