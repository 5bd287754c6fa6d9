// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"
)

// HTTPTimeout is the default overall timeout for outgoing requests.
const HTTPTimeout = 30 * time.Second

func protectedDialerControl(_, address string, _ syscall.RawConn) error {
	return AddressReferencesPrivateIP(address)
}

// ValidatingTransport rejects plain-HTTP requests to non-local hosts before
// they leave the process.
type ValidatingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip validates the request URL and forwards it.
func (t *ValidatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL == nil {
		return nil, fmt.Errorf("request has no URL")
	}
	if req.URL.Scheme != HTTPSScheme && !IsLocalhost(req.URL.Host) {
		return nil, fmt.Errorf("the supplied URL %s is not HTTPS scheme", req.URL.Redacted())
	}
	return t.Transport.RoundTrip(req)
}

// HTTPClientBuilder builds *http.Client values with consistent timeouts and
// TLS settings.
type HTTPClientBuilder struct {
	clientTimeout         time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	caCertPath            string
	allowPrivate          bool
	requireHTTPS          bool
}

// NewHTTPClientBuilder returns a builder with default timeouts. Private
// addresses are allowed and HTTPS is not enforced until configured otherwise.
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{
		clientTimeout:         HTTPTimeout,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 10 * time.Second,
		allowPrivate:          true,
	}
}

// WithTimeout sets the overall client timeout.
func (b *HTTPClientBuilder) WithTimeout(d time.Duration) *HTTPClientBuilder {
	b.clientTimeout = d
	return b
}

// WithCABundle sets a PEM CA bundle used instead of the system roots.
func (b *HTTPClientBuilder) WithCABundle(path string) *HTTPClientBuilder {
	b.caCertPath = path
	return b
}

// WithPrivateIPs controls whether connections to private addresses are allowed.
func (b *HTTPClientBuilder) WithPrivateIPs(allow bool) *HTTPClientBuilder {
	b.allowPrivate = allow
	return b
}

// WithRequireHTTPS rejects plain-HTTP requests to non-local hosts.
func (b *HTTPClientBuilder) WithRequireHTTPS(require bool) *HTTPClientBuilder {
	b.requireHTTPS = require
	return b
}

// Build creates the configured client.
func (b *HTTPClientBuilder) Build() (*http.Client, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   b.tlsHandshakeTimeout,
		ResponseHeaderTimeout: b.responseHeaderTimeout,
	}

	if !b.allowPrivate {
		transport.DialContext = (&net.Dialer{
			Control: protectedDialerControl,
		}).DialContext
	}

	if b.caCertPath != "" {
		caCert, err := os.ReadFile(b.caCertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate bundle")
		}
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    pool,
		}
	}

	var rt http.RoundTripper = transport
	if b.requireHTTPS {
		rt = &ValidatingTransport{Transport: transport}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   b.clientTimeout,
	}, nil
}
