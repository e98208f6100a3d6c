package format

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/c360studio/semonto/rdf"
)

// Reader parses one document into g. base resolves relative IRIs. The
// returned prefixes are those the document declared.
type Reader interface {
	Read(g rdf.Graph, r io.Reader, base string) (Prefixes, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(g rdf.Graph, r io.Reader, base string) (Prefixes, error)

// Read calls f.
func (f ReaderFunc) Read(g rdf.Graph, r io.Reader, base string) (Prefixes, error) {
	return f(g, r, base)
}

// Registry holds the native readers by syntax.
type Registry struct {
	mu      sync.RWMutex
	readers map[Kind]Reader
}

// NewRegistry creates a registry with every native reader registered.
func NewRegistry() *Registry {
	r := &Registry{readers: make(map[Kind]Reader)}
	r.Register(Turtle, TurtleReader{})
	r.Register(NTriples, QuadReader{})
	r.Register(NQuads, QuadReader{})
	r.Register(JSONLD, JSONLDReader{})
	return r
}

// Register installs or replaces the reader for a syntax.
func (r *Registry) Register(k Kind, rd Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[k] = rd
}

// Reader returns the reader registered for a syntax.
func (r *Registry) Reader(k Kind) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.readers[k]
	return rd, ok
}

// Supports reports whether a native reader exists for k.
func (r *Registry) Supports(k Kind) bool {
	_, ok := r.Reader(k)
	return ok
}

// Candidates ranks the syntaxes to attempt: the explicit format, then the
// detected hint, then every other registered syntax in Preference order.
// Syntaxes without a reader are left out, so the list may be empty.
func (r *Registry) Candidates(explicit, hint Kind) []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Kind]bool)
	var out []Kind
	add := func(k Kind) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		if _, ok := r.readers[k]; ok {
			out = append(out, k)
		}
	}
	add(explicit)
	add(hint)
	for _, k := range Preference {
		add(k)
	}
	for _, k := range sortedKinds() {
		add(k)
	}
	return out
}

// ParseError reports a syntax error in a document. Line is the source line
// for Turtle and the statement number for the line-based syntaxes.
type ParseError struct {
	Kind Kind
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

var blankSeq atomic.Uint64

// blankScope relabels document blank nodes so that nodes from different
// documents never share a label.
type blankScope map[string]rdf.Term

func (s blankScope) get(label string) rdf.Term {
	if t, ok := s[label]; ok {
		return t
	}
	t := s.fresh()
	s[label] = t
	return t
}

func (s blankScope) fresh() rdf.Term {
	return rdf.Blank("b" + strconv.FormatUint(blankSeq.Add(1), 10))
}
