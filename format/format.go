// Package format names the RDF syntaxes semonto understands, detects them
// from media types and file names, and provides the native readers that turn
// a document into triples.
package format

import (
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/c360studio/semonto/rdf"
)

// Kind identifies a document syntax.
type Kind string

const (
	// Turtle is the Terse RDF Triple Language.
	Turtle Kind = "turtle"

	// NTriples is the line-based triple syntax.
	NTriples Kind = "ntriples"

	// NQuads is N-Triples with an optional graph label per line.
	NQuads Kind = "nquads"

	// JSONLD is JSON for Linked Data.
	JSONLD Kind = "jsonld"

	// YAML is the structural ontology document read by the fallback loader.
	YAML Kind = "yaml"
)

// Info provides metadata about a syntax.
type Info struct {
	// Kind is the syntax identifier.
	Kind Kind

	// MediaTypes lists the media types that name the syntax, preferred first.
	MediaTypes []string

	// Extensions lists file extensions (with dot), preferred first.
	Extensions []string

	// Description describes the syntax.
	Description string
}

var infos = map[Kind]Info{
	Turtle: {
		Kind:        Turtle,
		MediaTypes:  []string{"text/turtle", "application/x-turtle"},
		Extensions:  []string{".ttl", ".turtle"},
		Description: "Turtle - Terse RDF Triple Language",
	},
	NTriples: {
		Kind:        NTriples,
		MediaTypes:  []string{"application/n-triples", "text/plain"},
		Extensions:  []string{".nt", ".ntriples"},
		Description: "N-Triples - Line-based RDF format",
	},
	NQuads: {
		Kind:        NQuads,
		MediaTypes:  []string{"application/n-quads"},
		Extensions:  []string{".nq", ".nquads"},
		Description: "N-Quads - Line-based RDF dataset format",
	},
	JSONLD: {
		Kind:        JSONLD,
		MediaTypes:  []string{"application/ld+json", "application/json"},
		Extensions:  []string{".jsonld", ".json"},
		Description: "JSON-LD - JSON for Linked Data",
	},
	YAML: {
		Kind:        YAML,
		MediaTypes:  []string{"application/yaml", "application/x-yaml", "text/yaml"},
		Extensions:  []string{".yaml", ".yml"},
		Description: "Structural ontology document",
	},
}

// Preference is the order native readers are tried when neither an explicit
// format nor a detected one succeeds.
var Preference = []Kind{Turtle, NTriples, NQuads, JSONLD}

// Lookup returns metadata for a syntax.
func Lookup(k Kind) (Info, bool) {
	info, ok := infos[k]
	return info, ok
}

// ParseKind resolves a syntax name. It accepts kind names, common short
// names and file extensions.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "ttl":
		return Turtle, true
	case "nt", "n-triples":
		return NTriples, true
	case "nq", "n-quads":
		return NQuads, true
	case "json-ld", "json":
		return JSONLD, true
	case "yml":
		return YAML, true
	}
	if _, ok := infos[Kind(name)]; ok {
		return Kind(name), true
	}
	return "", false
}

// Detect guesses the syntax of a document from its content type and its name
// (a path or IRI). The content type wins when both identify a syntax.
func Detect(contentType, name string) (Kind, bool) {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			for _, k := range sortedKinds() {
				for _, m := range infos[k].MediaTypes {
					// text/plain is too generic to identify N-Triples on its own
					if m == mt && m != "text/plain" {
						return k, true
					}
				}
			}
		}
	}
	if name != "" {
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		ext := strings.ToLower(path.Ext(name))
		if ext != "" {
			for _, k := range sortedKinds() {
				for _, e := range infos[k].Extensions {
					if e == ext {
						return k, true
					}
				}
			}
		}
	}
	return "", false
}

func sortedKinds() []Kind {
	out := make([]Kind, 0, len(infos))
	for k := range infos {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Prefixes maps prefix names to namespace IRIs.
type Prefixes map[string]string

// DefaultPrefixes returns the namespaces every written ontology declares.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":  rdf.RDFNamespace,
		"rdfs": rdf.RDFSNamespace,
		"owl":  rdf.OWLNamespace,
		"xsd":  rdf.XSDNamespace,
	}
}

// Clone returns an independent copy.
func (p Prefixes) Clone() Prefixes {
	out := make(Prefixes, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge adds the entries of other that p does not define yet.
func (p Prefixes) Merge(other Prefixes) {
	for k, v := range other {
		if _, ok := p[k]; !ok {
			p[k] = v
		}
	}
}

// Names returns the prefix names in sorted order.
func (p Prefixes) Names() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Shorten abbreviates iri with the longest matching namespace. The local
// part must be a valid prefixed-name local part.
func (p Prefixes) Shorten(iri string) (string, bool) {
	best, bestNS := "", ""
	for name, ns := range p {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) <= len(bestNS) {
			continue
		}
		if !validLocal(iri[len(ns):]) {
			continue
		}
		best, bestNS = name, ns
	}
	if bestNS == "" {
		return "", false
	}
	return best + ":" + iri[len(bestNS):], true
}

func validLocal(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		case (r == '-' || r == '.') && i > 0 && i < len(s)-1:
		default:
			return false
		}
	}
	return true
}

// Format is the syntax an ontology was read in, with the prefix map the
// document declared.
type Format struct {
	Kind     Kind
	Prefixes Prefixes
}

// String returns the syntax name.
func (f Format) String() string {
	if f.Kind == "" {
		return "unknown"
	}
	return string(f.Kind)
}
