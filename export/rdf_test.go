package export_test

import (
	"strings"
	"testing"

	"github.com/c360studio/semonto/export"
	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

func sampleGraph() *rdf.MemGraph {
	onto := rdf.IRI("http://ex/onto")
	person := rdf.IRI("http://ex/Person")
	node := rdf.Blank("n1")
	return rdf.NewMemGraph(
		rdf.NewTriple(onto, rdf.RDFType, rdf.OWLOntology),
		rdf.NewTriple(onto, rdf.OWLImports, rdf.IRI("http://other/onto")),
		rdf.NewTriple(person, rdf.RDFType, rdf.OWLClass),
		rdf.NewTriple(person, rdf.RDFSLabel, rdf.LangLiteral("Person", "en")),
		rdf.NewTriple(person, rdf.RDFSComment, rdf.PlainLiteral("A \"quoted\"\nline")),
		rdf.NewTriple(person, rdf.IRI("http://ex/rank"), rdf.Literal("3", rdf.XSDInteger)),
		rdf.NewTriple(node, rdf.IRI("http://ex/about"), person),
	)
}

func TestNewRDFExporter(t *testing.T) {
	exporter := export.NewRDFExporter(format.Prefixes{"ex": "http://ex/"})
	prefixes := exporter.Prefixes()
	if prefixes["ex"] != "http://ex/" {
		t.Errorf("expected ex prefix, got %q", prefixes["ex"])
	}
	if prefixes["owl"] != rdf.OWLNamespace {
		t.Errorf("expected default owl prefix, got %q", prefixes["owl"])
	}
}

func TestExportTurtle(t *testing.T) {
	exporter := export.NewRDFExporter(format.Prefixes{"ex": "http://ex/"})

	output, err := exporter.Export(sampleGraph(), format.Turtle)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if !strings.Contains(output, "@prefix ex: <http://ex/> .") {
		t.Error("Turtle output should contain prefix declarations")
	}
	if !strings.Contains(output, "ex:Person\n    a owl:Class ;") {
		t.Errorf("Turtle output should abbreviate types, got:\n%s", output)
	}
	if !strings.Contains(output, `"3"^^xsd:integer`) {
		t.Error("Turtle output should abbreviate datatypes")
	}
	if !strings.Contains(output, `"Person"@en`) {
		t.Error("Turtle output should keep language tags")
	}
}

func TestExportNTriples(t *testing.T) {
	exporter := export.NewRDFExporter(nil)

	output, err := exporter.Export(sampleGraph(), format.NTriples)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), output)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, " .") {
			t.Errorf("line should end with ' .': %s", line)
		}
	}
}

func TestExportJSONLD(t *testing.T) {
	exporter := export.NewRDFExporter(format.Prefixes{"ex": "http://ex/"})

	output, err := exporter.Export(sampleGraph(), format.JSONLD)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(output, `"@context"`) {
		t.Error("JSON-LD output should contain @context")
	}
	if !strings.Contains(output, `"ex:Person"`) {
		t.Error("JSON-LD output should compact IRIs")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter := export.NewRDFExporter(nil)
	if _, err := exporter.Export(sampleGraph(), format.YAML); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExportRoundTrip(t *testing.T) {
	registry := format.NewRegistry()
	exporter := export.NewRDFExporter(format.Prefixes{"ex": "http://ex/"})

	for _, kind := range []format.Kind{format.Turtle, format.NTriples, format.JSONLD} {
		t.Run(string(kind), func(t *testing.T) {
			original := sampleGraph()
			output, err := exporter.Export(original, kind)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			reader, ok := registry.Reader(kind)
			if !ok {
				t.Fatalf("no reader for %s", kind)
			}
			parsed := rdf.NewMemGraph()
			if _, err := reader.Read(parsed, strings.NewReader(output), ""); err != nil {
				t.Fatalf("Read failed: %v\n%s", err, output)
			}
			if !rdf.Isomorphic(original, parsed) {
				t.Errorf("round trip through %s changed the graph:\n%s", kind, output)
			}
		})
	}
}
