package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

// DefaultDocumentPattern matches the document syntaxes read natively.
const DefaultDocumentPattern = "**/*.{ttl,turtle,nt,nq,jsonld,json}"

// IdentifyFunc returns the ontology and version IRIs a document declares.
type IdentifyFunc func(path string) ([]string, error)

// DirectoryOptions configures a DirectoryMapper.
type DirectoryOptions struct {
	// Pattern selects documents relative to the root (doublestar syntax).
	Pattern string

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string

	// Identify extracts ontology IRIs from a document. Defaults to
	// reading the document with the native format readers.
	Identify IdentifyFunc

	// DebounceDelay batches file changes before rescanning. Defaults to 200ms.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// DirectoryMapper maps ontology IRIs to the documents under a directory
// that declare them. It scans once on creation and, when watching, rescans
// changed files.
type DirectoryMapper struct {
	root     string
	pattern  string
	identify IdentifyFunc
	excludes map[string]bool
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	byIRI  map[string]string
	byFile map[string][]string

	watcher   *fsnotify.Watcher
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
	done      chan struct{}
}

// NewDirectoryMapper scans root and returns a mapper over its documents.
func NewDirectoryMapper(root string, opts DirectoryOptions) (*DirectoryMapper, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", abs)
	}

	if opts.Pattern == "" {
		opts.Pattern = DefaultDocumentPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("invalid document pattern %q", opts.Pattern)
	}
	if opts.Identify == nil {
		opts.Identify = NativeIdentify(format.NewRegistry())
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	excludes := map[string]bool{".git": true, "node_modules": true, "vendor": true}
	if len(opts.ExcludeDirs) > 0 {
		excludes = make(map[string]bool, len(opts.ExcludeDirs))
		for _, d := range opts.ExcludeDirs {
			excludes[d] = true
		}
	}

	m := &DirectoryMapper{
		root:     abs,
		pattern:  opts.Pattern,
		identify: opts.Identify,
		excludes: excludes,
		debounce: opts.DebounceDelay,
		logger:   opts.Logger,
		byIRI:    make(map[string]string),
		byFile:   make(map[string][]string),
		pending:  make(map[string]fsnotify.Op),
	}
	if err := m.Scan(); err != nil {
		return nil, err
	}
	return m, nil
}

// Root returns the absolute directory the mapper covers.
func (m *DirectoryMapper) Root() string { return m.root }

// DocumentIRI implements IRIMapper.
func (m *DirectoryMapper) DocumentIRI(iri string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.byIRI[iri]
	if !ok {
		return "", false
	}
	return FileIRI(path), true
}

// Mappings returns a copy of the ontology IRI to file path table.
func (m *DirectoryMapper) Mappings() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.byIRI))
	for k, v := range m.byIRI {
		out[k] = v
	}
	return out
}

// Scan rebuilds the table from every matching document.
func (m *DirectoryMapper) Scan() error {
	matches, err := doublestar.FilepathGlob(filepath.Join(m.root, filepath.FromSlash(m.pattern)))
	if err != nil {
		return fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)

	m.mu.Lock()
	m.byIRI = make(map[string]string)
	m.byFile = make(map[string][]string)
	m.mu.Unlock()

	for _, path := range matches {
		if m.excluded(path) {
			continue
		}
		m.rescan(path)
	}
	return nil
}

func (m *DirectoryMapper) excluded(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if m.excludes[part] {
			return true
		}
	}
	return false
}

func (m *DirectoryMapper) matches(path string) bool {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(m.pattern, filepath.ToSlash(rel))
	return err == nil && ok && !m.excluded(path)
}

// rescan reads one document and replaces its entries.
func (m *DirectoryMapper) rescan(path string) {
	iris, err := m.identify(path)
	if err != nil {
		m.logger.Debug("Skipping unreadable document", "path", path, "error", err)
		iris = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgetLocked(path)
	for _, iri := range iris {
		if prev, ok := m.byIRI[iri]; ok && prev != path {
			m.logger.Warn("Ontology IRI declared by several documents",
				"iri", iri, "kept", prev, "ignored", path)
			continue
		}
		m.byIRI[iri] = path
		m.byFile[path] = append(m.byFile[path], iri)
	}
}

func (m *DirectoryMapper) forgetLocked(path string) {
	for _, iri := range m.byFile[path] {
		if m.byIRI[iri] == path {
			delete(m.byIRI, iri)
		}
	}
	delete(m.byFile, path)
}

// Watch keeps the table current until ctx is done or Close is called.
func (m *DirectoryMapper) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = fsw
	m.done = make(chan struct{})
	if err := m.addWatchesRecursive(m.root); err != nil {
		fsw.Close()
		return err
	}
	go m.processEvents(ctx)

	m.logger.Info("Directory mapper watching",
		"root", m.root,
		"pattern", m.pattern,
		"debounce", m.debounce)
	return nil
}

// Close stops watching. It is safe to call when not watching.
func (m *DirectoryMapper) Close() error {
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	<-m.done
	return err
}

func (m *DirectoryMapper) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && (m.excludes[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}
		if err := m.watcher.Add(path); err != nil {
			m.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (m *DirectoryMapper) processEvents(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFSEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			m.flushPending()
		}
	}
}

func (m *DirectoryMapper) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := m.addWatchesRecursive(path); err != nil {
				m.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}
	if !m.matches(path) {
		return
	}
	m.pendingMu.Lock()
	m.pending[path] |= event.Op
	m.pendingMu.Unlock()
}

func (m *DirectoryMapper) flushPending() {
	m.pendingMu.Lock()
	if len(m.pending) == 0 {
		m.pendingMu.Unlock()
		return
	}
	toProcess := m.pending
	m.pending = make(map[string]fsnotify.Op)
	m.pendingMu.Unlock()

	for path := range toProcess {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			m.mu.Lock()
			m.forgetLocked(path)
			m.mu.Unlock()
			m.logger.Debug("Document removed", "path", path)
			continue
		}
		m.rescan(path)
		m.logger.Debug("Document rescanned", "path", path)
	}
}

// NativeIdentify reads a document with the native readers and returns the
// subjects typed owl:Ontology together with their version IRIs.
func NativeIdentify(registry *format.Registry) IdentifyFunc {
	return func(path string) ([]string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		hint, _ := format.Detect("", path)
		var lastErr error
		for _, kind := range registry.Candidates("", hint) {
			reader, _ := registry.Reader(kind)
			g := rdf.NewMemGraph()
			if _, err := reader.Read(g, strings.NewReader(string(data)), FileIRI(path)); err != nil {
				lastErr = err
				continue
			}
			return OntologyIRIs(g), nil
		}
		return nil, lastErr
	}
}

// OntologyIRIs lists the IRIs of the ontology headers in g with their
// version IRIs.
func OntologyIRIs(g rdf.Graph) []string {
	var out []string
	for _, node := range rdf.Subjects(g, rdf.RDFType, rdf.OWLOntology) {
		if !node.IsIRI() {
			continue
		}
		out = append(out, node.Value)
		for _, v := range rdf.Objects(g, node, rdf.OWLVersionIRI) {
			if v.IsIRI() {
				out = append(out, v.Value)
			}
		}
	}
	return out
}
