package proxy

import (
	"fmt"
	"net/http"

	"github.com/iTrooz/proximate/internal/cache/factory"
	"github.com/iTrooz/proximate/internal/cache/httpcache"
	"github.com/iTrooz/proximate/internal/config"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
)

// Server represents the caching proxy server
type Server struct {
	config *config.Config
	proxy  *goproxy.ProxyHttpServer
	cache  *httpcache.HTTPCache
	rules  []Rule
}

// New creates a new proxy server storing responses in store
func New(cfg *config.Config, store factory.Components) (*Server, error) {
	if store.Pool == nil || store.Adapter == nil {
		return nil, fmt.Errorf("cache pool and adapter are required")
	}

	rules := make([]Rule, 0, len(cfg.Rules.Rules))
	for _, rule := range cfg.Rules.Rules {
		rules = append(rules, &ConfigRule{CacheRule: rule})
	}

	s := &Server{
		config: cfg,
		proxy:  goproxy.NewProxyHttpServer(),
		cache:  httpcache.New(store.Pool, store.Adapter),
		rules:  rules,
	}
	s.proxy.Verbose = logrus.IsLevelEnabled(logrus.DebugLevel)
	s.proxy.CertStore = newCertCache()

	if cfg.Server.HTTPS.Enabled {
		if err := s.setupHTTPSProxyHandler(); err != nil {
			return nil, err
		}
	}

	s.proxy.OnRequest().DoFunc(s.handleRequest)
	s.proxy.OnResponse().DoFunc(s.handleResponse)

	return s, nil
}

// GetProxy returns the proxy handler (exported for testing)
func (s *Server) GetProxy() http.Handler {
	return s.proxy
}

// Start starts the proxy server
func (s *Server) Start() error {
	if addr := s.config.Server.HTTPS.TransparentAddr; addr != "" {
		go func() {
			if err := s.StartTransparentHTTPS(addr); err != nil {
				logrus.Errorf("Transparent HTTPS listener stopped: %v", err)
			}
		}()
	}

	logrus.Infof("Starting caching proxy on port %d", s.config.Server.Port)
	logrus.Infof("Cache backend: %s", s.config.Cache.Backend)
	logrus.Infof("Rules mode: %s", s.config.Rules.Mode)

	return http.ListenAndServe(fmt.Sprintf(":%d", s.config.Server.Port), s.proxy)
}

// requestState follows one request from OnRequest to OnResponse
type requestState struct {
	key string
	hit bool
}

func (s *Server) handleRequest(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	resp, state := s.getCachedResponse(requ)
	if state != nil {
		ctx.UserData = state
	}
	return requ, resp
}

func (s *Server) handleResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	if resp == nil {
		// upstream failed, goproxy reports ctx.Error itself
		return nil
	}

	state, _ := ctx.UserData.(*requestState)
	if state != nil && state.hit {
		return resp
	}

	if state != nil && s.shouldBeCached(ctx.Req, resp) {
		s.cacheResponse(ctx.Req, state.key, resp)
	}

	resp.Header.Set("X-Cache", "MISS")
	logrus.Infof("Forwarded request: %s %s -> %d", ctx.Req.Method, ctx.Req.URL, resp.StatusCode)
	return resp
}
