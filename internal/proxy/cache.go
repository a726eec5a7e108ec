package proxy

import (
	"net/http"

	"github.com/iTrooz/proximate/internal/cache"

	"github.com/sirupsen/logrus"
)

// getCachedResponse returns a cached HTTP response if available.
// The state is nil when the request is excluded by the rules.
func (s *Server) getCachedResponse(requ *http.Request) (*http.Response, *requestState) {
	if !s.mayBeCached(requ) {
		logrus.Debugf("Not looking up %s (caching disabled by rules)", requ.URL)
		return nil, nil
	}

	resp, key, err := s.cache.GetReq(requ.Context(), requ)
	if err != nil {
		logrus.Errorf("Failed to get cached data for %s: %v", requ.URL, err)
		if key == "" {
			return nil, nil
		}
		// a broken entry is replaced by the fresh response
		return nil, &requestState{key: key}
	}
	if resp == nil {
		logrus.Debugf("No cached data found for %s", requ.URL)
		cache.Misses.Inc()
		return nil, &requestState{key: key}
	}

	cache.Hits.Inc()
	resp.Header.Set("X-Cache", "HIT")
	logrus.Infof("Serving from cache: %s", requ.URL)

	return resp, &requestState{key: key, hit: true}
}

// shouldBeCached determines if a response should be cached based on rules
func (s *Server) shouldBeCached(requ *http.Request, resp *http.Response) bool {
	matched := false
	for _, rule := range s.rules {
		if rule.Match(requ, resp) {
			matched = true
			break
		}
	}

	if s.config.Rules.Mode == "whitelist" {
		return matched
	}
	return !matched
}

// mayBeCached reports whether some response to requ could still be cached.
// Blacklist rules limited to status codes cannot exclude a request before its response is known.
func (s *Server) mayBeCached(requ *http.Request) bool {
	whitelist := s.config.Rules.Mode == "whitelist"
	for _, rule := range s.rules {
		if !rule.Match(requ, nil) {
			continue
		}
		if whitelist {
			return true
		}
		if !rule.NeedsResponse() {
			return false
		}
	}
	return !whitelist
}

// cacheResponse stores a response in the cache
func (s *Server) cacheResponse(requ *http.Request, key string, resp *http.Response) {
	if err := s.cache.SetKey(requ.Context(), key, requ, resp); err != nil {
		logrus.Errorf("Failed to cache response for %s: %v", requ.URL.String(), err)
		return
	}
	cache.Writes.Inc()
	logrus.Debugf("Cached response for %s under %s", requ.URL.String(), key)
}
