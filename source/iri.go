package source

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// CollapseSeparators removes duplicated path separators from an IRI,
// leaving the authority marker, query and fragment alone:
// "file:///tmp//a.ttl" becomes "file:///tmp/a.ttl".
func CollapseSeparators(iri string) string {
	prefix, rest := "", iri
	if i := strings.Index(iri, "://"); i >= 0 {
		prefix, rest = iri[:i+3], iri[i+3:]
	}
	tail := ""
	if j := strings.IndexAny(rest, "?#"); j >= 0 {
		rest, tail = rest[:j], rest[j:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return prefix + rest + tail
}

// NormalizeIRI returns the form used to compare document locations: the
// scheme and host lowercased, internationalized hosts in their ASCII form,
// and duplicated separators collapsed for file: IRIs. IRIs that do not parse
// are returned unchanged.
func NormalizeIRI(iri string) string {
	u, err := url.Parse(iri)
	if err != nil || u.Scheme == "" {
		return iri
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "file" {
		return CollapseSeparators(u.String())
	}
	if u.Host != "" {
		host, port := u.Hostname(), u.Port()
		if ascii, err := idna.Lookup.ToASCII(host); err == nil {
			host = ascii
		}
		host = strings.ToLower(host)
		if port != "" {
			u.Host = net.JoinHostPort(host, port)
		} else if strings.Contains(host, ":") {
			u.Host = "[" + host + "]"
		} else {
			u.Host = host
		}
	}
	return u.String()
}
