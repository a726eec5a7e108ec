package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strings"
)

// RequestParser extracts the parts of a raw proxy request used for keying
type RequestParser interface {
	Method(rawRequest string) string
	Body(rawRequest string) string
}

// CreateCacheKey generates the key a request is stored under.
//
// effectiveURL is the URL before any upstream rewriting, so an intercepted
// HTTPS request keys on its https:// URL rather than the plain request it was
// turned into. Only POST bodies take part in the key.
func CreateCacheKey(parser RequestParser, rawRequest, effectiveURL string) string {
	method := parser.Method(rawRequest)
	body := ""
	if method == http.MethodPost {
		body = parser.Body(rawRequest)
	}

	sum := sha1.Sum([]byte(method + body + effectiveURL))
	return hex.EncodeToString(sum[:])
}

// reservedKeyChars may not appear in stored keys, they clash with paths and prefixes
const reservedKeyChars = "{}()/\\@:"

// ValidKey reports whether key can be stored by every pool
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, reservedKeyChars)
}

// ProxyRequestParser reads raw HTTP/1.x request text.
// It never fails: malformed input yields empty parts.
type ProxyRequestParser struct{}

// Method returns the first token of the request line
func (ProxyRequestParser) Method(rawRequest string) string {
	line, _, _ := strings.Cut(rawRequest, "\n")
	method, _, _ := strings.Cut(strings.TrimSpace(line), " ")
	return method
}

// Body returns everything after the first blank line
func (ProxyRequestParser) Body(rawRequest string) string {
	crlf := strings.Index(rawRequest, "\r\n\r\n")
	lf := strings.Index(rawRequest, "\n\n")

	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return rawRequest[crlf+4:]
	case lf >= 0:
		return rawRequest[lf+2:]
	default:
		return ""
	}
}
