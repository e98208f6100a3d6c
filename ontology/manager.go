package ontology

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360studio/semonto/export"
	"github.com/c360studio/semonto/fallback"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/source"
	"github.com/c360studio/semonto/transform"
)

// FallbackOptions tunes one fallback load.
type FallbackOptions = fallback.Options

// FallbackLoader reads documents no native reader accepts. Reset is called
// after every Load and must be idempotent.
type FallbackLoader interface {
	Load(ctx context.Context, src source.Source, g rdf.Graph, opts FallbackOptions) (*fallback.Result, error)
	Reset()
}

// OntologyFactory creates the base graph of a new ontology.
type OntologyFactory interface {
	// CanCreate reports whether the factory serves documents at location.
	CanCreate(location string) bool
	// CreateGraph returns an empty graph for the ontology.
	CreateGraph(id ID, location string) rdf.Graph
}

// MemoryFactory creates in-memory graphs for any location.
type MemoryFactory struct{}

// CanCreate implements OntologyFactory.
func (MemoryFactory) CanCreate(string) bool { return true }

// CreateGraph implements OntologyFactory.
func (MemoryFactory) CreateGraph(ID, string) rdf.Graph { return rdf.NewMemGraph() }

// MissingImportEvent describes an import skipped under the silent policy.
type MissingImportEvent struct {
	Declaration string
	Importer    string
	Err         error
}

// MissingImportListener is notified of every skipped import.
type MissingImportListener func(MissingImportEvent)

// CopyMode selects how CopyOntology duplicates an ontology.
type CopyMode int

const (
	// CopyShallow shares the base graph with the original.
	CopyShallow CopyMode = iota
	// CopyDeep copies every statement into a new graph.
	CopyDeep
)

// String returns the string representation of CopyMode.
func (c CopyMode) String() string {
	if c == CopyDeep {
		return "deep"
	}
	return "shallow"
}

// Manager is the registry of ontologies. It loads documents with their
// imports and applies structural changes. A Manager is not safe for
// concurrent use; wrap it with NewConcurrent for that.
type Manager struct {
	cfg         LoaderConfig
	logger      *slog.Logger
	registry    *format.Registry
	fallback    FallbackLoader
	fallbackSet bool
	transformer *transform.Transformer
	client      *http.Client
	guard       *source.RemoteGuard
	tracer      trace.Tracer
	metrics     *Metrics
	mappers     []source.IRIMapper
	providers   source.Providers
	factories   []OntologyFactory
	listeners   []MissingImportListener

	ontologies map[ID]*Ontology
	order      []*Ontology
	locations  map[*Ontology]string
	byGraph    map[*graph.Composite]*Ontology
	stats      map[*Ontology]transform.Stats
	processor  *processor
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConfig sets the loader configuration.
func WithConfig(cfg LoaderConfig) ManagerOption {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithFormatRegistry sets the native readers.
func WithFormatRegistry(r *format.Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithFallbackLoader sets the loader used when no native reader succeeds.
// A nil loader disables the fallback.
func WithFallbackLoader(l FallbackLoader) ManagerOption {
	return func(m *Manager) {
		m.fallback = l
		m.fallbackSet = true
	}
}

// WithIRIMapper adds an IRI mapper. Mappers are asked in the order added.
func WithIRIMapper(mapper source.IRIMapper) ManagerOption {
	return func(m *Manager) {
		m.mappers = append(m.mappers, mapper)
	}
}

// WithProvider adds a document provider with a priority.
func WithProvider(p source.Provider, priority int) ManagerOption {
	return func(m *Manager) {
		m.providers.Add(p, priority)
	}
}

// WithFactory adds an ontology factory ahead of the in-memory default.
func WithFactory(f OntologyFactory) ManagerOption {
	return func(m *Manager) {
		m.factories = append(m.factories, f)
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer for load spans.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithHTTPClient sets the client used for remote documents.
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) {
		m.client = c
	}
}

// WithRemoteGuard vets remote locations before they are fetched.
func WithRemoteGuard(g *source.RemoteGuard) ManagerOption {
	return func(m *Manager) {
		m.guard = g
	}
}

// WithTransformer replaces the graph normalization passes.
func WithTransformer(t *transform.Transformer) ManagerOption {
	return func(m *Manager) {
		m.transformer = t
	}
}

// WithMissingImportListener registers a listener for skipped imports.
func WithMissingImportListener(l MissingImportListener) ManagerOption {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		cfg:        DefaultLoaderConfig(),
		logger:     slog.Default(),
		ontologies: make(map[ID]*Ontology),
		locations:  make(map[*Ontology]string),
		byGraph:    make(map[*graph.Composite]*Ontology),
		stats:      make(map[*Ontology]transform.Stats),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	if m.registry == nil {
		m.registry = format.NewRegistry()
	}
	if !m.fallbackSet {
		m.fallback = fallback.NewLoader(
			fallback.WithLogger(m.logger),
			fallback.WithHTTPClient(m.client),
			fallback.WithRemoteGuard(m.guard))
	}
	if m.transformer == nil {
		m.transformer = transform.New(m.logger)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("github.com/c360studio/semonto/ontology")
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	m.factories = append(m.factories, MemoryFactory{})
	m.processor = &processor{m: m}
	return m, nil
}

// Config returns the loader configuration.
func (m *Manager) Config() LoaderConfig {
	return m.cfg
}

// AddMissingImportListener registers a listener for skipped imports.
func (m *Manager) AddMissingImportListener(l MissingImportListener) {
	m.listeners = append(m.listeners, l)
}

// AddIRIMapper adds an IRI mapper after the existing ones.
func (m *Manager) AddIRIMapper(mapper source.IRIMapper) {
	m.mappers = append(m.mappers, mapper)
}

// AddProvider adds a document provider.
func (m *Manager) AddProvider(p source.Provider, priority int) {
	m.providers.Add(p, priority)
}

// CreateOntology creates and registers an empty ontology. A zero ID
// creates an anonymous ontology.
func (m *Manager) CreateOntology(id ID) (*Ontology, error) {
	if id.IsZero() {
		id = NewAnonymousID()
	}
	if _, ok := m.ontologies[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrOntologyAlreadyExists, id)
	}
	loc := m.documentIRI(id)
	if owner := m.ontologyAt(loc); owner != nil {
		return nil, fmt.Errorf("%w: %s is used by %s", ErrDocumentAlreadyExists, loc, owner.id)
	}
	base, err := m.createGraph(id, loc)
	if err != nil {
		return nil, err
	}
	o := newOntology(m, id, graph.NewComposite(base), format.Format{Prefixes: format.DefaultPrefixes()})
	writeHeader(base, id)
	m.register(o, loc)
	m.heal(o)
	m.logger.Debug("Created ontology", "id", id.String(), "location", loc)
	return o, nil
}

func (m *Manager) createGraph(id ID, loc string) (rdf.Graph, error) {
	for _, f := range m.factories {
		if f.CanCreate(loc) {
			return f.CreateGraph(id, loc), nil
		}
	}
	return nil, fmt.Errorf("no ontology factory accepts %s", loc)
}

// writeHeader declares a named ontology in g.
func writeHeader(g rdf.Graph, id ID) {
	if id.IsAnonymous() {
		return
	}
	node := rdf.IRI(id.OntologyIRI)
	g.Add(rdf.NewTriple(node, rdf.RDFType, rdf.OWLOntology))
	if id.VersionIRI != "" {
		g.Add(rdf.NewTriple(node, rdf.OWLVersionIRI, rdf.IRI(id.VersionIRI)))
	}
}

// documentIRI picks the location of a new ontology: a mapped location,
// else the version or ontology IRI, else a fresh urn:uuid.
func (m *Manager) documentIRI(id ID) string {
	if !id.IsAnonymous() {
		for _, iri := range []string{id.VersionIRI, id.OntologyIRI} {
			if iri == "" {
				continue
			}
			for _, mapper := range m.mappers {
				if loc, ok := mapper.DocumentIRI(iri); ok {
					return loc
				}
			}
		}
		return id.DefaultDocumentIRI()
	}
	if strings.HasPrefix(id.anonymous, "urn:uuid:") {
		return id.anonymous
	}
	return "urn:uuid:" + uuid.NewString()
}

func (m *Manager) register(o *Ontology, loc string) {
	m.ontologies[o.id] = o
	m.order = append(m.order, o)
	m.locations[o] = loc
	m.byGraph[o.graph] = o
	m.metrics.Ontologies.Set(float64(len(m.ontologies)))
}

func (m *Manager) unregister(o *Ontology) {
	for _, other := range m.order {
		if other != o && other.graph.RemoveChild(o.graph) {
			other.changed()
		}
	}
	delete(m.ontologies, o.id)
	delete(m.locations, o)
	delete(m.byGraph, o.graph)
	delete(m.stats, o)
	for i, other := range m.order {
		if other == o {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	o.manager = nil
	m.metrics.Ontologies.Set(float64(len(m.ontologies)))
}

// Ontology returns the ontology registered under id.
func (m *Manager) Ontology(id ID) (*Ontology, bool) {
	o, ok := m.ontologies[id]
	return o, ok
}

// OntologyByIRI finds an ontology by its ontology or version IRI. An exact
// ID match is tried first, then every registered ID is scanned.
func (m *Manager) OntologyByIRI(iri string) (*Ontology, bool) {
	if iri == "" {
		return nil, false
	}
	if o, ok := m.ontologies[ID{OntologyIRI: iri}]; ok {
		return o, true
	}
	for _, o := range m.order {
		if o.id.Matches(iri) {
			return o, true
		}
	}
	return nil, false
}

// Contains reports whether id is registered.
func (m *Manager) Contains(id ID) bool {
	_, ok := m.ontologies[id]
	return ok
}

// ContainsIRI reports whether an ontology is registered under iri.
func (m *Manager) ContainsIRI(iri string) bool {
	_, ok := m.OntologyByIRI(iri)
	return ok
}

// Ontologies lists the registered ontologies in registration order.
func (m *Manager) Ontologies() []*Ontology {
	out := make([]*Ontology, len(m.order))
	copy(out, m.order)
	return out
}

// RemoveOntology unregisters o and detaches it from every importer.
func (m *Manager) RemoveOntology(o *Ontology) error {
	if !m.manages(o) {
		return ErrUnknownOntology
	}
	m.unregister(o)
	m.logger.Debug("Removed ontology", "id", o.id.String())
	return nil
}

func (m *Manager) manages(o *Ontology) bool {
	return o != nil && o.manager == m && m.ontologies[o.id] == o
}

// DocumentLocation returns where o was read from or will be saved to.
func (m *Manager) DocumentLocation(o *Ontology) string {
	return m.locations[o]
}

// SetDocumentLocation changes the location of o.
func (m *Manager) SetDocumentLocation(o *Ontology, loc string) error {
	if !m.manages(o) {
		return ErrUnknownOntology
	}
	if owner := m.ontologyAt(loc); owner != nil && owner != o {
		return fmt.Errorf("%w: %s is used by %s", ErrDocumentAlreadyExists, loc, owner.id)
	}
	m.locations[o] = loc
	return nil
}

// ontologyAt returns the ontology whose document location is loc.
func (m *Manager) ontologyAt(loc string) *Ontology {
	if loc == "" {
		return nil
	}
	for _, o := range m.order {
		if m.locations[o] == loc {
			return o
		}
	}
	return nil
}

// TransformStats returns what the transform passes changed in o when it
// was loaded.
func (m *Manager) TransformStats(o *Ontology) (transform.Stats, bool) {
	s, ok := m.stats[o]
	return s, ok
}

// DirectImports lists the registered ontologies linked directly below o.
func (m *Manager) DirectImports(o *Ontology) []*Ontology {
	var out []*Ontology
	for _, child := range o.graph.Children() {
		if imp := m.byGraph[child]; imp != nil && imp != o {
			out = append(out, imp)
		}
	}
	return out
}

// ImportsClosure lists every registered ontology reachable from o through
// imports, excluding o itself.
func (m *Manager) ImportsClosure(o *Ontology) []*Ontology {
	var out []*Ontology
	for _, member := range o.graph.Closure()[1:] {
		if imp := m.byGraph[member]; imp != nil && imp != o {
			out = append(out, imp)
		}
	}
	return out
}

// CopyOntology registers a copy of o, which may belong to another manager.
// A shallow copy shares the base graph of o; a deep copy gets its own
// graph and replays the import declarations as changes.
func (m *Manager) CopyOntology(o *Ontology, mode CopyMode) (*Ontology, error) {
	if _, ok := m.ontologies[o.id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrOntologyAlreadyExists, o.id)
	}
	loc := ""
	if o.manager != nil {
		loc = o.manager.DocumentLocation(o)
	}
	if loc == "" || m.ontologyAt(loc) != nil {
		loc = m.documentIRI(o.id)
	}
	if owner := m.ontologyAt(loc); owner != nil {
		return nil, fmt.Errorf("%w: %s is used by %s", ErrDocumentAlreadyExists, loc, owner.id)
	}

	f := format.Format{Kind: o.format.Kind, Prefixes: o.format.Prefixes.Clone()}
	if mode == CopyShallow {
		cp := newOntology(m, o.id, graph.NewComposite(o.Base()), f)
		m.register(cp, loc)
		m.heal(cp)
		return cp, nil
	}

	base, err := m.createGraph(o.id, loc)
	if err != nil {
		return nil, err
	}
	imports := o.Imports()
	for t := range o.Base().Find(rdf.Any) {
		if t.P == rdf.OWLImports && t.S == o.node {
			continue
		}
		base.Add(t)
	}
	cp := newOntology(m, o.id, graph.NewComposite(base), f)
	m.register(cp, loc)

	changes := make([]Change, 0, len(imports))
	for _, iri := range imports {
		changes = append(changes, AddImport{Ontology: cp, IRI: iri})
	}
	if len(changes) > 0 {
		if _, err := m.ApplyChanges(changes...); err != nil {
			m.unregister(cp)
			return nil, fmt.Errorf("replay imports of %s: %w", o.id, err)
		}
	}
	m.heal(cp)
	return cp, nil
}

// WriteOntology saves the own statements of o in the given syntax, using
// the prefixes o was read with.
func (m *Manager) WriteOntology(w io.Writer, o *Ontology, kind format.Kind) error {
	if kind == "" {
		kind = o.format.Kind
	}
	if kind == "" || kind == format.YAML {
		kind = format.Turtle
	}
	return export.NewRDFExporter(o.format.Prefixes).Write(w, o.Base(), kind)
}

// importLink is a composite edge from an importer to an imported ontology.
type importLink struct {
	importer *Ontology
	imported *Ontology
}

// heal links o with registered ontologies in both directions: below every
// ontology that imports it and above every ontology it imports. It returns
// the links it created.
func (m *Manager) heal(o *Ontology) []importLink {
	var links []importLink
	for _, iri := range o.Imports() {
		if imp, ok := m.OntologyByIRI(iri); ok && imp != o && o.graph.AddChild(imp.graph) {
			links = append(links, importLink{importer: o, imported: imp})
			m.refresh(o)
		}
	}
	if o.id.IsAnonymous() {
		return links
	}
	for _, other := range m.order {
		if other == o {
			continue
		}
		for _, iri := range other.Imports() {
			if o.id.Matches(iri) && other.graph.AddChild(o.graph) {
				m.logger.Debug("Linked import", "importer", other.id.String(), "import", o.id.String())
				links = append(links, importLink{importer: other, imported: o})
				m.refresh(other)
			}
		}
	}
	return links
}

// unlink removes links created by heal.
func (m *Manager) unlink(links []importLink) {
	for _, l := range links {
		if l.importer.graph.RemoveChild(l.imported.graph) {
			m.refresh(l.importer)
		}
	}
}

// refresh drops derived state of o and of every ontology that sees o
// through its imports.
func (m *Manager) refresh(o *Ontology) {
	o.changed()
	for _, other := range m.order {
		if other == o {
			continue
		}
		for _, member := range other.graph.Closure()[1:] {
			if member == o.graph {
				other.changed()
				break
			}
		}
	}
}

// notifyMissing reports a skipped import to the listeners.
func (m *Manager) notifyMissing(ev MissingImportEvent) {
	for _, l := range m.listeners {
		l(ev)
	}
}

// locate finds the source of an IRI: a provider override, a mapped
// location, or the IRI itself.
func (m *Manager) locate(ctx context.Context, iri string) (source.Source, error) {
	src, ok, err := m.providers.Provide(ctx, iri)
	if err != nil {
		return nil, err
	}
	if ok {
		return src, nil
	}
	loc := iri
	for _, mapper := range m.mappers {
		if mapped, ok := mapper.DocumentIRI(iri); ok {
			loc = mapped
			break
		}
	}
	return source.ForLocation(loc, m.client, m.guard)
}
