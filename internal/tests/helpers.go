package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"time"

	"github.com/iTrooz/proximate/internal/cache/factory"
	"github.com/iTrooz/proximate/internal/config"
	"github.com/iTrooz/proximate/internal/proxy"
)

// fixture_upstream creates a test upstream server
func fixture_upstream() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, requ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "Hello from upstream", "path": "` + requ.URL.Path + `"}`))
	}))
}

// fixture_config creates a test config with optional rules, caching under tempDir/storage
func fixture_config(tempDir string, rules *config.RulesConfig) *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0 // Will be set by test server
	cfg.Cache.Backend = config.BackendFile
	cfg.Cache.Path = filepath.Join(tempDir, "storage")

	if rules != nil {
		cfg.Rules = *rules
	}

	return &cfg
}

// fixture_proxy creates a proxy server with the given config and returns the cache, test server, and HTTP client
func fixture_proxy(cfg *config.Config) (factory.FileComponents, *httptest.Server, *http.Client, error) {
	components, err := factory.Build(cfg.Cache.Path)
	if err != nil {
		return factory.FileComponents{}, nil, nil, err
	}

	proxyServer, err := proxy.New(cfg, factory.Components{Pool: components.Pool, Adapter: components.Adapter})
	if err != nil {
		return factory.FileComponents{}, nil, nil, err
	}

	// Create test proxy HTTP server using goproxy
	proxyTestServer := httptest.NewServer(proxyServer.GetProxy())

	// Create HTTP client that uses our proxy
	proxyURL, _ := url.Parse(proxyTestServer.URL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: 10 * time.Second,
	}

	return components, proxyTestServer, client, nil
}
