package utils

import (
	"net/netip"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether an Origin belongs to a development or LAN
// frontend: localhost, loopback/private/link-local IPs, .local hostnames and
// single-label hostnames. Public origins are never trusted here; they must
// be listed explicitly in RouterOptions.AllowedOrigins.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	switch {
	case hostname == "localhost", strings.HasSuffix(hostname, ".localhost"):
		return true
	case strings.HasSuffix(hostname, ".local"):
		return true
	}

	if addr, err := netip.ParseAddr(hostname); err == nil {
		return isPrivateAddr(addr)
	}

	// single-label names (no dots) only resolve on the LAN
	return !strings.Contains(hostname, ".")
}

// isPrivateAddr covers RFC1918, unique-local IPv6, loopback and link-local.
func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}
