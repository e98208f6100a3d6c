package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/c360studio/semonto/rdf"
	"github.com/c360studio/semonto/vocabulary/onto"
	"github.com/c360studio/semstreams/message"
)

// GraphIngestSubject is the stream subject for knowledge-graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// StreamPublisher is the part of natsclient.Client the publisher needs.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher sends the statements of an ontology graph to the knowledge graph,
// one ingest message per subject.
type Publisher struct {
	nc      StreamPublisher
	subject string
	source  string
	logger  *slog.Logger
	now     func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSubject overrides the ingest subject.
func WithSubject(subject string) PublisherOption {
	return func(p *Publisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithSource sets the source recorded on every triple.
func WithSource(source string) PublisherOption {
	return func(p *Publisher) {
		p.source = source
	}
}

// NewPublisher creates a publisher. A nil client turns publishing into a no-op.
func NewPublisher(nc StreamPublisher, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		nc:      nc,
		subject: GraphIngestSubject,
		source:  "semonto.load",
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishGraph publishes every IRI subject of g and returns the number of
// entity messages sent. Blank-node subjects are skipped; they have no
// identity outside g. Predicates with a registered dotted form are
// published under it.
func (p *Publisher) PublishGraph(ctx context.Context, ontologyIRI string, g rdf.Graph) (int, error) {
	if p.nc == nil {
		return 0, nil
	}

	now := p.now()
	bySubject := make(map[string][]message.Triple)
	for t := range g.Find(rdf.Any) {
		if !t.S.IsIRI() {
			continue
		}
		bySubject[t.S.Value] = append(bySubject[t.S.Value], message.Triple{
			Subject:    t.S.Value,
			Predicate:  predicate(t.P),
			Object:     objectValue(t.O),
			Source:     p.source,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	subjects := make([]string, 0, len(bySubject))
	for s := range bySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	for _, s := range subjects {
		payload := &EntityPayload{
			EntityID_:  s,
			Ontology:   ontologyIRI,
			TripleData: bySubject[s],
			UpdatedAt:  now,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal entity %s: %w", s, err)
		}
		if err := p.nc.PublishToStream(ctx, p.subject, data); err != nil {
			return 0, fmt.Errorf("publish entity %s: %w", s, err)
		}
	}

	p.logger.Debug("Published ontology entities",
		"ontology", ontologyIRI,
		"entities", len(subjects))
	return len(subjects), nil
}

func predicate(t rdf.Term) string {
	if p, ok := onto.Predicate(t.Value); ok {
		return p
	}
	return t.Value
}

func objectValue(t rdf.Term) any {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}
