package ontology

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/source"
)

// LoadOntology reads src, resolves its imports and registers every new
// ontology found. Loading a location or identity that is already
// registered returns the registered ontology without reading anything.
func (m *Manager) LoadOntology(ctx context.Context, src source.Source) (o *Ontology, err error) {
	ctx, span := m.tracer.Start(ctx, "ontology.Load",
		trace.WithAttributes(attribute.String("source.location", src.Location())))
	defer span.End()
	defer func() {
		m.metrics.Loads.WithLabelValues(result(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(
			attribute.String("ontology.id", o.id.String()),
			attribute.String("ontology.format", o.format.String()))
	}()

	if existing := m.existing(src.Location()); existing != nil {
		m.logger.Debug("Ontology already loaded", "location", src.Location(), "id", existing.id.String())
		return existing, nil
	}

	l := newLoad(m)
	defer l.clear()

	root, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if root.ontology != nil {
		return root.ontology, nil
	}
	if err := l.resolve(ctx, root, make(map[*document]bool)); err != nil {
		return nil, err
	}
	l.assemble(root, make(map[*document]bool))
	l.transform()
	return l.materialize(root)
}

// LoadOntologyFromIRI loads the ontology named iri, locating its document
// through providers, IRI mappers or the IRI itself.
func (m *Manager) LoadOntologyFromIRI(ctx context.Context, iri string) (*Ontology, error) {
	if o, ok := m.OntologyByIRI(iri); ok {
		return o, nil
	}
	src, err := m.locate(ctx, iri)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", iri, err)
	}
	return m.LoadOntology(ctx, src)
}

// existing returns the ontology registered at location or under it as IRI.
func (m *Manager) existing(location string) *Ontology {
	if location == "" {
		return nil
	}
	if o := m.ontologyAt(location); o != nil {
		return o
	}
	if o, ok := m.OntologyByIRI(location); ok {
		return o
	}
	return nil
}

// load is the working state of one LoadOntology call.
type load struct {
	m          *Manager
	byID       map[ID]*document
	byLocation map[string]*document
	realized   map[*Ontology]*document
	order      []*document
}

func newLoad(m *Manager) *load {
	return &load{
		m:          m,
		byID:       make(map[ID]*document),
		byLocation: make(map[string]*document),
		realized:   make(map[*Ontology]*document),
	}
}

func (l *load) clear() {
	clear(l.byID)
	clear(l.byLocation)
	clear(l.realized)
	l.order = nil
}

// wrap returns the descriptor of a registered ontology.
func (l *load) wrap(o *Ontology) *document {
	if d, ok := l.realized[o]; ok {
		return d
	}
	d := realized(o)
	l.realized[o] = d
	return d
}

// fetch reads src into a descriptor and places it in the working maps.
// A graph whose identity is already known is replaced by the known
// descriptor when both graphs are isomorphic.
func (l *load) fetch(ctx context.Context, src source.Source) (*document, error) {
	var d *document
	if gs, ok := src.(source.GraphSource); ok {
		d = newDocument(gs.Graph(), format.Format{Prefixes: format.DefaultPrefixes()}, src.Location(), ID{})
		d.allowTransforms = false
	} else {
		var err error
		d, err = l.m.readDocument(ctx, src)
		if err != nil {
			return nil, err
		}
	}
	d.id, d.node = identify(d.graph)
	d.nodeDone = true

	if o, ok := l.m.ontologies[d.id]; ok {
		if !rdf.Isomorphic(o.Base(), d.graph) {
			return nil, fmt.Errorf("%w: %s at %s", ErrDuplicateNonIsomorphicGraph, d.id, d.location)
		}
		return l.wrap(o), nil
	}
	if w, ok := l.byID[d.id]; ok {
		if !rdf.Isomorphic(w.graph, d.graph) {
			return nil, fmt.Errorf("%w: %s at %s and %s", ErrDuplicateNonIsomorphicGraph, d.id, w.location, d.location)
		}
		return w, nil
	}

	l.byID[d.id] = d
	if d.location != "" {
		l.byLocation[d.location] = d
	}
	l.order = append(l.order, d)
	l.m.logger.Debug("Read ontology document",
		"location", d.location,
		"id", d.id.String(),
		"format", d.format.String(),
		"triples", d.graph.Size())
	return d, nil
}

// readDocument parses src with the native readers in ranked order and
// falls back to the fallback loader once when none succeeds.
func (m *Manager) readDocument(ctx context.Context, src source.Source) (*document, error) {
	loc := src.Location()
	opened, err := src.Open(ctx)
	if err != nil {
		return nil, &LoadError{Kind: ErrIO, Location: loc, Attempts: []error{err}}
	}
	data, err := io.ReadAll(opened.Body)
	opened.Body.Close()
	if err != nil {
		return nil, &LoadError{Kind: ErrIO, Location: loc, Attempts: []error{err}}
	}
	base := opened.Location
	if base == "" {
		base = loc
	}

	hint, _ := format.Detect(opened.ContentType, base)
	var attempts []error
	for _, k := range m.registry.Candidates(src.Format(), hint) {
		rd, _ := m.registry.Reader(k)
		g := rdf.NewMemGraph()
		prefixes, err := rd.Read(g, bytes.NewReader(data), base)
		m.metrics.FormatAttempts.WithLabelValues(string(k), result(err)).Inc()
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", k, err))
			continue
		}
		return newDocument(g, format.Format{Kind: k, Prefixes: prefixes}, loc, ID{}), nil
	}

	if m.fallback == nil {
		return nil, &LoadError{Kind: ErrUnsupportedFormat, Location: loc, Attempts: attempts}
	}
	m.logger.Debug("No native reader accepted document, trying fallback",
		"location", loc,
		"attempts", len(attempts))

	g := rdf.NewMemGraph()
	res, err := m.fallback.Load(ctx, &source.Bytes{
		Loc:         loc,
		Data:        data,
		Kind:        src.Format(),
		ContentType: opened.ContentType,
	}, g, FallbackOptions{ContentCache: false})
	m.fallback.Reset()
	m.metrics.Fallbacks.WithLabelValues(result(err)).Inc()
	if err != nil {
		attempts = append(attempts, fmt.Errorf("fallback: %w", err))
		kind := ErrUnsupportedFormat
		if errors.Is(err, ErrBadRecursion) {
			kind = ErrBadRecursion
		}
		return nil, &LoadError{Kind: kind, Location: loc, Attempts: attempts}
	}
	return newDocument(g, format.Format{Kind: res.Format, Prefixes: res.Prefixes}, loc, ID{}), nil
}

// resolve fetches the imports of d and then of every import found.
// branch holds the descriptors on the current path.
func (l *load) resolve(ctx context.Context, d *document, branch map[*document]bool) error {
	if d.resolved || d.ontology != nil {
		return nil
	}
	d.resolved = true
	if !l.m.cfg.ProcessImports {
		return nil
	}
	branch[d] = true
	defer delete(branch, d)

	imports := append([]string(nil), d.importIRIs()...)
	spliced := make(map[*document]bool)
	for i := 0; i < len(imports); i++ {
		iri := imports[i]
		if l.m.cfg.ignored(iri) {
			l.m.metrics.SkippedImports.WithLabelValues("ignored").Inc()
			l.m.logger.Debug("Ignoring import", "import", iri, "importer", d.location)
			continue
		}

		child, err := l.fetchImport(ctx, iri)
		if err != nil {
			if errors.Is(err, ErrBadRecursion) {
				return err
			}
			if l.m.cfg.MissingImports == MissingImportThrow {
				return &ImportError{Declaration: iri, Importer: d.location, Err: err}
			}
			l.m.metrics.SkippedImports.WithLabelValues("unloadable").Inc()
			l.m.logger.Warn("Skipping unloadable import",
				"import", iri,
				"importer", d.location,
				"error", err)
			l.m.notifyMissing(MissingImportEvent{Declaration: iri, Importer: d.location, Err: err})
			continue
		}
		if child == d {
			continue
		}

		if child.ontology == nil && child.id.IsAnonymous() && l.m.cfg.MissingHeaders == HeaderInclude {
			if spliced[child] {
				d.graph.Delete(rdf.NewTriple(d.ontologyNode(), rdf.OWLImports, rdf.IRI(iri)))
				continue
			}
			spliced[child] = true
			included := l.include(d, child, iri)
			rest := append([]string(nil), imports[i+1:]...)
			imports = append(append(imports[:i+1], included...), rest...)
			continue
		}

		if !containsDocument(d.children, child) {
			d.children = append(d.children, child)
		}
		if branch[child] {
			continue
		}
		if err := l.resolve(ctx, child, branch); err != nil {
			return err
		}
	}
	return nil
}

// include splices an anonymous document into its importer. The import
// statement is dropped and the document's own imports move to the
// importer; they are returned so the caller resolves them next.
func (l *load) include(d, child *document, iri string) []string {
	childNode := child.ontologyNode()
	childImports := child.importIRIs()

	node := d.ontologyNode()
	d.graph.Delete(rdf.NewTriple(node, rdf.OWLImports, rdf.IRI(iri)))
	for t := range child.graph.Find(rdf.Any) {
		if !childNode.IsZero() && t.S == childNode && axiom.IsHeaderTriple(t) {
			continue
		}
		d.graph.Add(t)
	}
	if !node.IsZero() {
		for _, imp := range childImports {
			d.graph.Add(rdf.NewTriple(node, rdf.OWLImports, rdf.IRI(imp)))
		}
	}
	d.invalidate()
	d.format.Prefixes = mergePrefixes(d.format.Prefixes, child.format.Prefixes)

	child.included = true
	child.setProcessed()
	l.m.logger.Debug("Included anonymous import",
		"location", child.location,
		"importer", d.location,
		"triples", child.graph.Size())
	return childImports
}

// fetchImport finds the descriptor for an import IRI.
func (l *load) fetchImport(ctx context.Context, iri string) (*document, error) {
	if d, ok := l.byLocation[iri]; ok {
		return d, nil
	}
	for _, d := range l.order {
		if d.id.Matches(iri) {
			return d, nil
		}
	}
	if o, ok := l.m.OntologyByIRI(iri); ok {
		return l.wrap(o), nil
	}
	if collapsed := source.CollapseSeparators(iri); collapsed != iri {
		if o, ok := l.m.OntologyByIRI(collapsed); ok {
			return l.wrap(o), nil
		}
	}

	src, err := l.m.locate(ctx, iri)
	if err != nil {
		return nil, err
	}
	if d, ok := l.byLocation[src.Location()]; ok {
		return d, nil
	}
	if o := l.m.ontologyAt(src.Location()); o != nil {
		return l.wrap(o), nil
	}
	return l.fetch(ctx, src)
}

// assemble builds composites bottom-up. Edges back to a descriptor on the
// current path are skipped; they are linked when the ontologies register.
func (l *load) assemble(d *document, path map[*document]bool) *graph.Composite {
	if d.composite != nil {
		return d.composite
	}
	path[d] = true
	defer delete(path, d)

	d.composite = graph.NewComposite(d.graph)
	for _, child := range d.children {
		if path[child] {
			continue
		}
		d.composite.AddChild(l.assemble(child, path))
	}
	return d.composite
}

// transform normalizes the freshly read graphs of this load.
func (l *load) transform() {
	if !l.m.cfg.Transformations {
		return
	}
	for _, d := range l.order {
		if !d.fresh || !d.allowTransforms || d.included || d.composite == nil {
			continue
		}
		stats := l.m.transformer.Run(d.graph, d.composite)
		d.stats = &stats
		d.invalidate()
	}
}

// materialize registers the fresh descriptors, root first, and links them
// with ontologies registered earlier. On failure every ontology this load
// registered is removed again.
func (l *load) materialize(root *document) (*Ontology, error) {
	docs := make([]*document, 0, len(l.order))
	docs = append(docs, root)
	for _, d := range l.order {
		if d != root {
			docs = append(docs, d)
		}
	}

	var created []*Ontology
	for _, d := range docs {
		if !d.fresh || d.ontology != nil || d.included || d.composite == nil {
			continue
		}
		o, err := l.m.realize(d)
		if err != nil {
			for _, c := range created {
				l.m.unregister(c)
			}
			return nil, err
		}
		d.ontology = o
		d.setProcessed()
		created = append(created, o)
	}
	for _, o := range created {
		l.m.heal(o)
	}
	l.m.metrics.Ontologies.Set(float64(len(l.m.ontologies)))
	l.m.logger.Info("Loaded ontology",
		"id", root.ontology.id.String(),
		"location", root.location,
		"registered", len(created))
	return root.ontology, nil
}

// realize registers one descriptor as an ontology.
func (m *Manager) realize(d *document) (*Ontology, error) {
	if _, ok := m.ontologies[d.id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrOntologyAlreadyExists, d.id)
	}
	loc := d.location
	if loc == "" {
		loc = m.documentIRI(d.id)
	}
	if owner := m.ontologyAt(loc); owner != nil {
		return nil, fmt.Errorf("%w: %s is used by %s", ErrDocumentAlreadyExists, loc, owner.id)
	}

	f := format.Format{Kind: d.format.Kind, Prefixes: mergePrefixes(d.format.Prefixes, format.DefaultPrefixes())}
	o := newOntology(m, d.id, d.composite, f)
	m.register(o, loc)
	if d.stats != nil {
		m.stats[o] = *d.stats
	}
	m.logger.Debug("Registered ontology",
		"id", d.id.String(),
		"location", loc,
		"format", f.String())
	return o, nil
}

// mergePrefixes returns a copy of p completed with the entries of other.
func mergePrefixes(p, other format.Prefixes) format.Prefixes {
	out := p.Clone()
	out.Merge(other)
	return out
}

func containsDocument(ds []*document, d *document) bool {
	for _, x := range ds {
		if x == d {
			return true
		}
	}
	return false
}
