package source

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrBlockedLocation is returned when a guard refuses to fetch a location.
var ErrBlockedLocation = errors.New("location blocked")

// Pre-compiled CIDR networks for private/reserved IP ranges.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// RemoteGuard restricts which remote locations imports may be fetched from.
// The zero value allows every http and https location.
type RemoteGuard struct {
	// RequireHTTPS refuses plain http.
	RequireHTTPS bool

	// BlockPrivate refuses localhost, local domains and private addresses.
	BlockPrivate bool

	// AllowHosts, when non-empty, is the exhaustive list of hosts that may
	// be contacted. Entries match the host or any subdomain of it.
	AllowHosts []string
}

// Check vets a location before it is fetched.
func (g *RemoteGuard) Check(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if g.RequireHTTPS {
			return fmt.Errorf("%w: only HTTPS URLs are allowed: %s", ErrBlockedLocation, rawURL)
		}
	default:
		return fmt.Errorf("%w: scheme %q: %s", ErrBlockedLocation, parsed.Scheme, rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if len(g.AllowHosts) > 0 && !hostAllowed(host, g.AllowHosts) {
		return fmt.Errorf("%w: host %s is not allowed", ErrBlockedLocation, host)
	}

	if !g.BlockPrivate {
		return nil
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return fmt.Errorf("%w: localhost URLs are not allowed", ErrBlockedLocation)
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: local domain URLs are not allowed", ErrBlockedLocation)
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("%w: private IP addresses are not allowed", ErrBlockedLocation)
	}
	return nil
}

func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimPrefix(a, "."))
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	return cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip)
}
