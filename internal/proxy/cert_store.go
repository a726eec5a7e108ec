package proxy

import (
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
)

// certCache keeps the leaf certificate generated for each intercepted host
type certCache struct {
	mu     sync.Mutex
	byHost map[string]*tls.Certificate
}

// Verify interface implementation
var _ goproxy.CertStorage = (*certCache)(nil)

func newCertCache() *certCache {
	return &certCache{byHost: make(map[string]*tls.Certificate)}
}

// Fetch returns the certificate for hostname, generating it on first use
func (c *certCache) Fetch(hostname string, gen func() (*tls.Certificate, error)) (*tls.Certificate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cert := c.byHost[hostname]; cert != nil {
		return cert, nil
	}

	cert, err := gen()
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate for %s: %w", hostname, err)
	}
	logrus.Debugf("Generated interception certificate for %s", hostname)

	c.byHost[hostname] = cert
	return cert, nil
}

// Len returns the number of hosts a certificate was generated for
func (c *certCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byHost)
}
