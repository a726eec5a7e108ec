package proxy

import (
	"net/http"
	"slices"
	"strings"

	"github.com/iTrooz/proximate/internal/cache/httpcache"
	"github.com/iTrooz/proximate/internal/config"
)

// Rule decides whether a request, and optionally its response, is covered by a caching rule
type Rule interface {
	// resp is nil when only the request is known
	Match(requ *http.Request, resp *http.Response) bool
	// NeedsResponse reports whether the outcome also depends on the response
	NeedsResponse() bool
}

// ConfigRule is a Rule read from the rules section of the config
type ConfigRule struct {
	config.CacheRule
}

// Match reports whether requ targets BaseURI with one of Methods.
// Status codes are checked only once resp is known.
func (r *ConfigRule) Match(requ *http.Request, resp *http.Response) bool {
	if !strings.HasPrefix(httpcache.EffectiveURL(requ), r.BaseURI) {
		return false
	}
	if !r.matchesMethod(requ.Method) {
		return false
	}
	if resp == nil || len(r.StatusCodes) == 0 {
		return true
	}
	return r.matchesStatus(resp.StatusCode)
}

// NeedsResponse is true when the rule is limited to some status codes
func (r *ConfigRule) NeedsResponse() bool {
	return len(r.StatusCodes) > 0
}

func (r *ConfigRule) matchesMethod(method string) bool {
	return slices.ContainsFunc(r.Methods, func(m string) bool {
		return strings.EqualFold(m, method)
	})
}

func (r *ConfigRule) matchesStatus(code int) bool {
	return slices.ContainsFunc(r.StatusCodes, func(pattern string) bool {
		return config.MatchesStatusCode(code, pattern)
	})
}
