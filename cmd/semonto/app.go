package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semonto/config"
	"github.com/c360studio/semonto/fallback"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/source"
	"github.com/c360studio/semonto/storage"
)

// graphStream is the JetStream stream carrying published ontology entities.
const graphStream = "SEMONTO_GRAPH"

// app holds the manager and the connections one command runs against.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	metrics *prometheus.Registry
	formats *format.Registry

	manager *ontology.Concurrent
	dirs    []*source.DirectoryMapper

	nats  *natsclient.Client
	store *storage.Store
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		metrics: prometheus.NewRegistry(),
		formats: format.NewRegistry(),
	}

	m, err := a.newManager(a.metrics)
	if err != nil {
		return nil, err
	}

	for _, mapper := range cfg.StaticMappers() {
		m.AddIRIMapper(mapper)
	}
	for _, d := range cfg.Mapping.Directories {
		dm, err := source.NewDirectoryMapper(d.Root, source.DirectoryOptions{
			Pattern:     d.Pattern,
			ExcludeDirs: d.ExcludeDirs,
			Identify:    source.NativeIdentify(a.formats),
			Logger:      logger,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("map directory %s: %w", d.Root, err)
		}
		a.dirs = append(a.dirs, dm)
		if d.Watch {
			if err := dm.Watch(ctx); err != nil {
				a.close()
				return nil, fmt.Errorf("watch directory %s: %w", d.Root, err)
			}
		}
		m.AddIRIMapper(dm)
		logger.Debug("Mapped ontology directory", "root", dm.Root(), "ontologies", len(dm.Mappings()))
	}

	a.manager = ontology.NewConcurrent(m)
	return a, nil
}

// newManager builds a manager from the configuration, without mappers.
// Metrics are registered with reg when it is not nil.
func (a *app) newManager(reg prometheus.Registerer, extra ...ontology.ManagerOption) (*ontology.Manager, error) {
	client := a.cfg.HTTPClient()
	guard := a.cfg.RemoteGuard()

	opts := []ontology.ManagerOption{
		ontology.WithConfig(a.cfg.OntologyConfig()),
		ontology.WithLogger(a.logger),
		ontology.WithFormatRegistry(a.formats),
		ontology.WithHTTPClient(client),
		ontology.WithRemoteGuard(guard),
		ontology.WithFallbackLoader(fallback.NewLoader(
			fallback.WithLogger(a.logger),
			fallback.WithHTTPClient(client),
			fallback.WithRemoteGuard(guard),
		)),
		ontology.WithMetrics(ontology.NewMetrics(reg)),
		ontology.WithMissingImportListener(func(ev ontology.MissingImportEvent) {
			a.logger.Warn("Import not loaded",
				"import", ev.Declaration,
				"importer", ev.Importer,
				"error", ev.Err)
		}),
	}
	return ontology.NewManager(append(opts, extra...)...)
}

// connect opens the NATS connection once.
func (a *app) connect(ctx context.Context) error {
	if a.nats != nil {
		return nil
	}
	client, err := connectToNATS(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.nats = client
	return nil
}

// documentStore opens the KV document store once.
func (a *app) documentStore(ctx context.Context) (*storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.connect(ctx); err != nil {
		return nil, err
	}
	js, err := a.nats.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	store, err := storage.NewStore(ctx, js, a.cfg.NATS.DocumentBucket)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// attachStore lets the manager serve documents from the KV store ahead of
// mapped and remote locations.
func (a *app) attachStore(ctx context.Context) error {
	store, err := a.documentStore(ctx)
	if err != nil {
		return err
	}
	return a.manager.Update(func(m *ontology.Manager) error {
		m.AddProvider(&source.KVProvider{Store: store}, 10)
		return nil
	})
}

// ensureGraphStream creates the stream the publisher writes to.
func (a *app) ensureGraphStream(ctx context.Context) error {
	js, err := a.nats.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     graphStream,
		Subjects: []string{a.cfg.NATS.Subject},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", graphStream, err)
	}
	return nil
}

// publisher returns a graph publisher over the NATS connection.
func (a *app) publisher() *graph.Publisher {
	return graph.NewPublisher(a.nats, a.logger,
		graph.WithSubject(a.cfg.NATS.Subject),
		graph.WithSource(appName+".publish"))
}

// open loads the ontology at arg: an IRI (resolved through providers and
// mappers) or a local file path.
func (a *app) open(ctx context.Context, arg string, kind format.Kind) (*ontology.Ontology, error) {
	if isIRI(arg) {
		return a.manager.LoadOntologyFromIRI(ctx, arg)
	}
	return a.manager.LoadOntology(ctx, source.NewFile(arg, kind))
}

func isIRI(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "urn:")
}

func (a *app) writeMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, a.metrics); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) close() {
	for _, d := range a.dirs {
		if err := d.Close(); err != nil {
			a.logger.Warn("Failed to stop directory watcher", "root", d.Root(), "error", err)
		}
	}
	if a.nats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.nats.Close(ctx); err != nil {
			a.logger.Warn("Failed to close NATS connection", "error", err)
		}
	}
}
