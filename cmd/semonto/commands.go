package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360studio/semonto/axiom"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/ontology"
	"github.com/c360studio/semonto/source"
	"github.com/c360studio/semonto/storage"
)

func parseFormat(name string) (format.Kind, error) {
	if name == "" {
		return "", nil
	}
	kind, ok := format.ParseKind(name)
	if !ok {
		return "", fmt.Errorf("unknown format %q", name)
	}
	return kind, nil
}

func loadCmd(opts *globalOptions) *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "load <file-or-iri>...",
		Short: "Load ontologies with their imports and print a summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFormat(inputFormat)
			if err != nil {
				return err
			}
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				for _, arg := range args {
					o, err := a.open(ctx, arg, kind)
					if err != nil {
						return fmt.Errorf("load %s: %w", arg, err)
					}
					if err := a.summarize(o); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input syntax (turtle, ntriples, nquads, jsonld, yaml); detected when empty")
	return cmd
}

// summarize prints one ontology with its imports and transform statistics.
func (a *app) summarize(o *ontology.Ontology) error {
	hash := a.manager.ContentHash(o)
	return a.manager.View(func(m *ontology.Manager) error {
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "%s\n", o.ID())
		fmt.Fprintf(w, "  location:\t%s\n", m.DocumentLocation(o))
		fmt.Fprintf(w, "  format:\t%s\n", o.Format())
		fmt.Fprintf(w, "  hash:\t%016x\n", hash)
		fmt.Fprintf(w, "  axioms:\t%d (closure %d)\n", len(o.Axioms()), len(o.ClosureAxioms()))
		fmt.Fprintf(w, "  annotations:\t%d\n", len(o.Annotations()))
		fmt.Fprintf(w, "  unparsed:\t%d\n", len(o.Unparsed()))
		if imports := o.Imports(); len(imports) > 0 {
			fmt.Fprintf(w, "  imports:\t%s\n", strings.Join(imports, ", "))
		}
		for _, imp := range m.ImportsClosure(o) {
			fmt.Fprintf(w, "  closure:\t%s\n", imp.ID())
		}
		if stats, ok := m.TransformStats(o); ok {
			fmt.Fprintf(w, "  transforms:\t%s\n", stats)
		}
		return w.Flush()
	})
}

func axiomsCmd(opts *globalOptions) *cobra.Command {
	var (
		inputFormat string
		kindName    string
		closure     bool
	)

	cmd := &cobra.Command{
		Use:   "axioms <file-or-iri>",
		Short: "List the axioms of an ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFormat(inputFormat)
			if err != nil {
				return err
			}
			var filter axiom.Kind
			if kindName != "" {
				k, ok := axiom.ParseKind(kindName)
				if !ok {
					return fmt.Errorf("unknown axiom kind %q", kindName)
				}
				filter = k
			}
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				o, err := a.open(ctx, args[0], kind)
				if err != nil {
					return err
				}
				var axioms []axiom.Axiom
				switch {
				case closure:
					axioms = a.manager.ClosureAxioms(o)
				case filter != 0:
					axioms = a.manager.AxiomsOfKind(o, filter)
				default:
					axioms = a.manager.Axioms(o)
				}
				return writeAxioms(a.out, axioms, filter)
			})
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input syntax; detected when empty")
	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "Only list axioms of this kind (e.g. SubClassOf)")
	cmd.Flags().BoolVar(&closure, "closure", false, "Include the axioms of the import closure")
	return cmd
}

func writeAxioms(w io.Writer, axioms []axiom.Axiom, filter axiom.Kind) error {
	for _, ax := range axioms {
		if filter != 0 && ax.Kind() != filter {
			continue
		}
		if _, err := fmt.Fprintln(w, ax); err != nil {
			return err
		}
	}
	return nil
}

func exportCmd(opts *globalOptions) *cobra.Command {
	var (
		inputFormat  string
		outputFormat string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "export <file-or-iri>",
		Short: "Write an ontology in another syntax",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseFormat(inputFormat)
			if err != nil {
				return err
			}
			out, err := parseFormat(outputFormat)
			if err != nil {
				return err
			}
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				o, err := a.open(ctx, args[0], in)
				if err != nil {
					return err
				}
				w := a.out
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create output: %w", err)
					}
					defer f.Close()
					w = f
				}
				return a.manager.WriteOntology(w, o, out)
			})
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input syntax; detected when empty")
	cmd.Flags().StringVarP(&outputFormat, "to", "t", "turtle", "Output syntax (turtle, ntriples, jsonld)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func publishCmd(opts *globalOptions) *cobra.Command {
	var (
		inputFormat string
		withImports bool
	)

	cmd := &cobra.Command{
		Use:   "publish <file-or-iri>",
		Short: "Publish ontology statements to the knowledge graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFormat(inputFormat)
			if err != nil {
				return err
			}
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				o, err := a.open(ctx, args[0], kind)
				if err != nil {
					return err
				}
				if err := a.connect(ctx); err != nil {
					return err
				}
				if err := a.ensureGraphStream(ctx); err != nil {
					return err
				}

				targets := []*ontology.Ontology{o}
				if withImports {
					targets = append(targets, a.manager.ImportsClosure(o)...)
				}
				pub := a.publisher()
				for _, t := range targets {
					n, err := pub.PublishGraph(ctx, t.ID().OntologyIRI, t.Base())
					if err != nil {
						return fmt.Errorf("publish %s: %w", t.ID(), err)
					}
					fmt.Fprintf(a.out, "%s: %d entities\n", t.ID(), n)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input syntax; detected when empty")
	cmd.Flags().BoolVar(&withImports, "imports", false, "Also publish every ontology of the import closure")
	return cmd
}

func storeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage ontology documents in the NATS KV document store",
	}
	cmd.AddCommand(storePutCmd(opts), storeGetCmd(opts), storeListCmd(opts), storeDeleteCmd(opts))
	return cmd
}

func storePutCmd(opts *globalOptions) *cobra.Command {
	var (
		inputFormat string
		iri         string
	)

	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Store a document under its ontology IRI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFormat(inputFormat)
			if err != nil {
				return err
			}
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				doc, err := a.prepareDocument(ctx, args[0], kind, iri)
				if err != nil {
					return err
				}
				store, err := a.documentStore(ctx)
				if err != nil {
					return err
				}
				rev, err := store.Put(ctx, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (%s) revision %d\n", doc.IRI, doc.Format, rev)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "f", "", "Input syntax; detected when empty")
	cmd.Flags().StringVar(&iri, "iri", "", "Ontology IRI to store under (default: read from the document)")
	return cmd
}

// prepareDocument reads a file and determines its ontology IRI and syntax by
// loading it on its own, without imports.
func (a *app) prepareDocument(ctx context.Context, path string, kind format.Kind, iri string) (*storage.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	standalone := a.cfg.OntologyConfig()
	standalone.ProcessImports = false
	scratch, err := a.newManager(nil, ontology.WithConfig(standalone))
	if err != nil {
		return nil, err
	}
	o, err := scratch.LoadOntology(ctx, source.NewFile(path, kind))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if iri == "" {
		if o.ID().IsAnonymous() {
			return nil, errors.New("document declares no ontology IRI; pass --iri")
		}
		iri = o.ID().OntologyIRI
	}
	return &storage.Document{
		IRI:     iri,
		Format:  o.Format().Kind,
		Content: content,
	}, nil
}

func storeGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <iri>",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				store, err := a.documentStore(ctx)
				if err != nil {
					return err
				}
				doc, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = a.out.Write(doc.Content)
				return err
			})
		},
	}
}

func storeListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored ontology IRIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				store, err := a.documentStore(ctx)
				if err != nil {
					return err
				}
				iris, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, iri := range iris {
					fmt.Fprintln(a.out, iri)
				}
				return nil
			})
		},
	}
}

func storeDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <iri>",
		Short: "Remove a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, func(ctx context.Context, a *app) error {
				store, err := a.documentStore(ctx)
				if err != nil {
					return err
				}
				return store.Delete(ctx, args[0])
			})
		},
	}
}
