// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package networking

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// HTTPScheme is the plain HTTP scheme.
	HTTPScheme = "http"
	// HTTPSScheme is the HTTPS scheme.
	HTTPSScheme = "https"
)

var privateIPBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("parse %q: %v", cidr, err))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

// IsLocalhost reports whether host (optionally with a port) is a loopback name
// or address.
func IsLocalhost(host string) bool {
	h := hostOnly(host)
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

// IsPrivateHost reports whether host is a loopback or private-range IP literal,
// or localhost. Host names other than localhost are never treated as private.
func IsPrivateHost(host string) bool {
	if IsLocalhost(host) {
		return true
	}
	ip := net.ParseIP(hostOnly(host))
	if ip == nil {
		return false
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// AddressReferencesPrivateIP returns an error if address resolves to a private
// or loopback IP.
func AddressReferencesPrivateIP(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			return fmt.Errorf("the address %s references a loopback IP", address)
		}
		for _, block := range privateIPBlocks {
			if block.Contains(ip) {
				return fmt.Errorf("the address %s references a private IP", address)
			}
		}
	}
	return nil
}

// IsURL reports whether s parses as an absolute http(s) URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == HTTPScheme || u.Scheme == HTTPSScheme) && u.Host != ""
}

// ValidateEndpointURL checks that endpoint is an absolute URL. Plain HTTP is
// accepted only for localhost unless allowHTTP is set.
func ValidateEndpointURL(endpoint string, allowHTTP bool) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", endpoint)
	}
	switch u.Scheme {
	case HTTPSScheme:
		return nil
	case HTTPScheme:
		if allowHTTP || IsLocalhost(u.Host) {
			return nil
		}
		return fmt.Errorf("URL %q must use HTTPS", endpoint)
	default:
		return fmt.Errorf("URL %q has unsupported scheme %q", endpoint, u.Scheme)
	}
}
