// Package source locates and opens ontology documents: in-memory bytes,
// local files, HTTP resources and already parsed graphs, plus the provider
// overrides and IRI mappers that decide where an import is read from.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/semstreams/pkg/errs"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

// ErrUnsupportedScheme is returned for locations no built-in source can open.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// Document is an opened document stream.
type Document struct {
	Body io.ReadCloser

	// ContentType is the media type reported by the transport, if any.
	ContentType string

	// Location is the final location after redirects.
	Location string
}

// Source is a document that can be read by the loader.
type Source interface {
	// Location is the document IRI. It is also the base for relative IRIs.
	Location() string

	// Format is the syntax the caller asserts, or empty to detect it.
	Format() format.Kind

	// Open starts reading the document.
	Open(ctx context.Context) (*Document, error)
}

// GraphSource is a source whose statements are already parsed. The loader
// uses the graph directly and never reads bytes from it.
type GraphSource interface {
	Source
	Graph() rdf.Graph
}

// Bytes is an in-memory document.
type Bytes struct {
	Loc         string
	Data        []byte
	Kind        format.Kind
	ContentType string
}

// NewBytes creates an in-memory source. kind may be empty.
func NewBytes(location string, data []byte, kind format.Kind) *Bytes {
	return &Bytes{Loc: location, Data: data, Kind: kind}
}

// Location implements Source.
func (b *Bytes) Location() string { return b.Loc }

// Format implements Source.
func (b *Bytes) Format() format.Kind { return b.Kind }

// Open implements Source.
func (b *Bytes) Open(context.Context) (*Document, error) {
	return &Document{
		Body:        io.NopCloser(bytes.NewReader(b.Data)),
		ContentType: b.ContentType,
		Location:    b.Loc,
	}, nil
}

// File is a document on the local file system.
type File struct {
	Path string
	Kind format.Kind
}

// NewFile creates a file source. kind may be empty.
func NewFile(path string, kind format.Kind) *File {
	return &File{Path: path, Kind: kind}
}

// Location implements Source. It is the file: IRI of the absolute path.
func (f *File) Location() string {
	return FileIRI(f.Path)
}

// Format implements Source.
func (f *File) Format() format.Kind { return f.Kind }

// Open implements Source.
func (f *File) Open(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	return &Document{Body: fh, Location: f.Location()}, nil
}

// FileIRI converts a path to a file: IRI.
func FileIRI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// FilePath converts a file: IRI to a local path.
func FilePath(iri string) (string, bool) {
	u, err := url.Parse(iri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// Accept is the Accept header sent for ontology documents.
const Accept = "text/turtle, application/n-triples;q=0.9, application/n-quads;q=0.8, " +
	"application/ld+json;q=0.8, application/yaml;q=0.5, */*;q=0.1"

// HTTP is a document fetched over HTTP(S).
type HTTP struct {
	IRI    string
	Kind   format.Kind
	Client *http.Client

	// Guard, when set, vets the target before the request is made.
	Guard *RemoteGuard
}

// NewHTTP creates an HTTP source using http.DefaultClient.
func NewHTTP(iri string, kind format.Kind) *HTTP {
	return &HTTP{IRI: iri, Kind: kind}
}

// Location implements Source.
func (h *HTTP) Location() string { return h.IRI }

// Format implements Source.
func (h *HTTP) Format() format.Kind { return h.Kind }

// Open implements Source.
func (h *HTTP) Open(ctx context.Context) (*Document, error) {
	if h.Guard != nil {
		if err := h.Guard.Check(h.IRI); err != nil {
			return nil, errs.WrapInvalid(err, "source.HTTP", "Open", "check location")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.IRI, nil)
	if err != nil {
		return nil, errs.WrapInvalid(err, "source.HTTP", "Open", "build request")
	}
	req.Header.Set("Accept", Accept)

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.WrapTransient(err, "source.HTTP", "Open", "GET "+h.IRI)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		statusErr := fmt.Errorf("GET %s: %s", h.IRI, resp.Status)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, errs.WrapTransient(statusErr, "source.HTTP", "Open", "fetch")
		}
		return nil, errs.WrapInvalid(statusErr, "source.HTTP", "Open", "fetch")
	}

	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return &Document{Body: resp.Body, ContentType: ct, Location: resp.Request.URL.String()}, nil
}

// Graph is an already parsed document.
type Graph struct {
	Loc string
	G   rdf.Graph
}

// NewGraph wraps a parsed graph as a source.
func NewGraph(location string, g rdf.Graph) *Graph {
	return &Graph{Loc: location, G: g}
}

// Location implements Source.
func (g *Graph) Location() string { return g.Loc }

// Format implements Source.
func (g *Graph) Format() format.Kind { return "" }

// Open implements Source by serving nothing; the graph is used directly.
func (g *Graph) Open(context.Context) (*Document, error) {
	return nil, errors.New("graph sources are not read")
}

// Graph implements GraphSource.
func (g *Graph) Graph() rdf.Graph { return g.G }

// ForLocation picks the built-in source for a location: file: IRIs and bare
// paths read from disk, http and https IRIs are fetched with client.
func ForLocation(location string, client *http.Client, guard *RemoteGuard) (Source, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", location, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		path, _ := FilePath(location)
		return &File{Path: path}, nil
	case "http", "https":
		return &HTTP{IRI: location, Client: client, Guard: guard}, nil
	case "":
		return &File{Path: location}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, location)
	}
}
