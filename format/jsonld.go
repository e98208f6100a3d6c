package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/c360studio/semonto/rdf"
)

// JSONLDReader reads JSON-LD documents. The document is converted to
// N-Quads by json-gold and the statements are read from there; the terms of
// the top-level @context become the prefix map.
type JSONLDReader struct {
	// Loader resolves remote contexts. Nil uses the json-gold default,
	// which fetches over HTTP.
	Loader ld.DocumentLoader
}

// Read implements Reader.
func (jr JSONLDReader) Read(g rdf.Graph, r io.Reader, base string) (Prefixes, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Kind: JSONLD, Msg: err.Error()}
	}
	switch doc.(type) {
	case map[string]any, []any:
	default:
		return nil, &ParseError{Kind: JSONLD, Msg: "document is not an object or array"}
	}

	opts := ld.NewJsonLdOptions(base)
	opts.Format = "application/n-quads"
	if jr.Loader != nil {
		opts.DocumentLoader = jr.Loader
	}
	out, err := ld.NewJsonLdProcessor().ToRDF(doc, opts)
	if err != nil {
		return nil, &ParseError{Kind: JSONLD, Msg: err.Error()}
	}
	nq, ok := out.(string)
	if !ok {
		return nil, &ParseError{Kind: JSONLD, Msg: fmt.Sprintf("unexpected conversion result %T", out)}
	}
	if _, err := (QuadReader{}).Read(g, strings.NewReader(nq), base); err != nil {
		return nil, err
	}
	return contextPrefixes(doc), nil
}

func contextPrefixes(doc any) Prefixes {
	out := Prefixes{}
	m, ok := doc.(map[string]any)
	if !ok {
		return out
	}
	var contexts []any
	switch c := m["@context"].(type) {
	case map[string]any:
		contexts = []any{c}
	case []any:
		contexts = c
	}
	for _, c := range contexts {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for name, v := range cm {
			ns, ok := v.(string)
			if !ok || strings.HasPrefix(name, "@") {
				continue
			}
			if strings.HasSuffix(ns, "#") || strings.HasSuffix(ns, "/") {
				out[name] = ns
			}
		}
	}
	return out
}
