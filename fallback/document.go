package fallback

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semonto/format"
	"github.com/c360studio/semonto/rdf"
)

// document is the structural YAML form of an ontology.
//
//	ontology: http://example.org/people
//	version: http://example.org/people/1.0
//	prefixes: {ex: "http://example.org/people#"}
//	imports: [http://example.org/base]
//	include: [shared/agents.yaml]
//	classes:
//	  - iri: ex:Person
//	    subClassOf: ex:Agent
//	objectProperties:
//	  - iri: ex:knows
//	    domain: ex:Person
//	    range: ex:Person
//	individuals:
//	  - iri: ex:alice
//	    types: ex:Person
//	    facts: {ex:knows: ex:bob}
//	    data: {ex:age: 42}
type document struct {
	Ontology             string            `yaml:"ontology"`
	Version              string            `yaml:"version"`
	Prefixes             map[string]string `yaml:"prefixes"`
	Imports              names             `yaml:"imports"`
	Include              names             `yaml:"include"`
	Annotations          map[string]Value  `yaml:"annotations"`
	Classes              []classDef        `yaml:"classes"`
	ObjectProperties     []propertyDef     `yaml:"objectProperties"`
	DataProperties       []propertyDef     `yaml:"dataProperties"`
	AnnotationProperties []propertyDef     `yaml:"annotationProperties"`
	Individuals          []individualDef   `yaml:"individuals"`
}

type classDef struct {
	IRI          string           `yaml:"iri"`
	SubClassOf   names            `yaml:"subClassOf"`
	EquivalentTo names            `yaml:"equivalentTo"`
	DisjointWith names            `yaml:"disjointWith"`
	Annotations  map[string]Value `yaml:"annotations"`
}

type propertyDef struct {
	IRI           string           `yaml:"iri"`
	SubPropertyOf names            `yaml:"subPropertyOf"`
	Domain        names            `yaml:"domain"`
	Range         names            `yaml:"range"`
	InverseOf     names            `yaml:"inverseOf"`
	Functional    bool             `yaml:"functional"`
	Annotations   map[string]Value `yaml:"annotations"`
}

type individualDef struct {
	IRI           string           `yaml:"iri"`
	Types         names            `yaml:"types"`
	Facts         map[string]names `yaml:"facts"`
	Data          map[string]Value `yaml:"data"`
	SameAs        names            `yaml:"sameAs"`
	DifferentFrom names            `yaml:"differentFrom"`
	Annotations   map[string]Value `yaml:"annotations"`
}

// names accepts a single scalar or a sequence of scalars.
type names []string

// UnmarshalYAML implements yaml.Unmarshaler for names.
func (n *names) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*n = names{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a name or a list of names", value.Line)
	}
}

// Value is a literal written either as a plain YAML scalar or as a mapping
// with an explicit language tag or datatype.
type Value struct {
	Lexical  string `yaml:"value"`
	Lang     string `yaml:"lang"`
	Datatype string `yaml:"datatype"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Value. Scalars keep their
// YAML type: integers become xsd:integer, floats xsd:decimal and booleans
// xsd:boolean.
func (v *Value) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		type plain Value
		return value.Decode((*plain)(v))
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a literal value", value.Line)
	}
	v.Lexical = value.Value
	switch value.ShortTag() {
	case "!!int":
		v.Datatype = rdf.XSDInteger
	case "!!float":
		f, err := strconv.ParseFloat(value.Value, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			v.Datatype = rdf.XSDDouble
		} else {
			v.Datatype = rdf.XSDDecimal
		}
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		v.Lexical = strconv.FormatBool(b)
		v.Datatype = rdf.XSDBoolean
	}
	return nil
}

// decodeDocument parses one YAML document. Unknown keys are rejected so
// that arbitrary YAML is not mistaken for an ontology.
func decodeDocument(data []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("not a structural ontology document: top level is not a mapping")
	}

	var doc document
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// builder writes a decoded document into a graph.
type builder struct {
	g        rdf.Graph
	prefixes format.Prefixes
	node     rdf.Term
}

func (b *builder) name(s string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return rdf.Term{}, fmt.Errorf("empty name")
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return rdf.IRI(s[1 : len(s)-1]), nil
	case strings.Contains(s, "://") || strings.HasPrefix(s, "urn:"):
		return rdf.IRI(s), nil
	}
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return rdf.Term{}, fmt.Errorf("name %q is neither an IRI nor a prefixed name", s)
	}
	ns, ok := b.prefixes[prefix]
	if !ok {
		return rdf.Term{}, fmt.Errorf("undefined prefix %q in %q", prefix, s)
	}
	return rdf.IRI(ns + local), nil
}

func (b *builder) literal(v Value) (rdf.Term, error) {
	if v.Lang != "" {
		return rdf.LangLiteral(v.Lexical, v.Lang), nil
	}
	if v.Datatype == "" {
		return rdf.PlainLiteral(v.Lexical), nil
	}
	dt, err := b.name(v.Datatype)
	if err != nil {
		return rdf.Term{}, err
	}
	return rdf.Literal(v.Lexical, dt.Value), nil
}

func (b *builder) add(s, p, o rdf.Term) {
	b.g.Add(rdf.NewTriple(s, p, o))
}

func (b *builder) links(s, p rdf.Term, targets names) error {
	for _, target := range targets {
		o, err := b.name(target)
		if err != nil {
			return err
		}
		b.add(s, p, o)
	}
	return nil
}

func (b *builder) annotate(s rdf.Term, anns map[string]Value) error {
	for _, key := range sortedKeys(anns) {
		p, err := b.name(key)
		if err != nil {
			return err
		}
		o, err := b.literal(anns[key])
		if err != nil {
			return err
		}
		b.add(s, p, o)
	}
	return nil
}

// header writes the ontology node of the top-level document.
func (b *builder) header(doc *document) error {
	if doc.Ontology == "" {
		if doc.Version != "" {
			return fmt.Errorf("version %q given without an ontology IRI", doc.Version)
		}
		return nil
	}
	node, err := b.name(doc.Ontology)
	if err != nil {
		return err
	}
	b.node = node
	b.add(node, rdf.RDFType, rdf.OWLOntology)
	if doc.Version != "" {
		v, err := b.name(doc.Version)
		if err != nil {
			return err
		}
		b.add(node, rdf.OWLVersionIRI, v)
	}
	return nil
}

// body writes everything except the header. Imports and ontology
// annotations attach to the top-level ontology node.
func (b *builder) body(doc *document) error {
	if !b.node.IsZero() {
		if err := b.links(b.node, rdf.OWLImports, doc.Imports); err != nil {
			return err
		}
		if err := b.annotate(b.node, doc.Annotations); err != nil {
			return err
		}
	}

	for _, c := range doc.Classes {
		s, err := b.name(c.IRI)
		if err != nil {
			return fmt.Errorf("class: %w", err)
		}
		b.add(s, rdf.RDFType, rdf.OWLClass)
		for _, l := range []struct {
			p       rdf.Term
			targets names
		}{
			{rdf.RDFSSubClassOf, c.SubClassOf},
			{rdf.OWLEquivalentClass, c.EquivalentTo},
			{rdf.OWLDisjointWith, c.DisjointWith},
		} {
			if err := b.links(s, l.p, l.targets); err != nil {
				return fmt.Errorf("class %s: %w", c.IRI, err)
			}
		}
		if err := b.annotate(s, c.Annotations); err != nil {
			return fmt.Errorf("class %s: %w", c.IRI, err)
		}
	}

	for _, group := range []struct {
		typ   rdf.Term
		props []propertyDef
	}{
		{rdf.OWLObjectProperty, doc.ObjectProperties},
		{rdf.OWLDatatypeProperty, doc.DataProperties},
		{rdf.OWLAnnotationProperty, doc.AnnotationProperties},
	} {
		for _, p := range group.props {
			if err := b.property(group.typ, p); err != nil {
				return fmt.Errorf("property %s: %w", p.IRI, err)
			}
		}
	}

	for _, ind := range doc.Individuals {
		if err := b.individual(ind); err != nil {
			return fmt.Errorf("individual %s: %w", ind.IRI, err)
		}
	}
	return nil
}

func (b *builder) property(typ rdf.Term, p propertyDef) error {
	s, err := b.name(p.IRI)
	if err != nil {
		return err
	}
	b.add(s, rdf.RDFType, typ)
	if p.Functional {
		b.add(s, rdf.RDFType, rdf.OWLFunctionalProperty)
	}
	if err := b.links(s, rdf.RDFSSubPropertyOf, p.SubPropertyOf); err != nil {
		return err
	}
	if err := b.links(s, rdf.RDFSDomain, p.Domain); err != nil {
		return err
	}
	if err := b.links(s, rdf.RDFSRange, p.Range); err != nil {
		return err
	}
	if err := b.links(s, rdf.OWLInverseOf, p.InverseOf); err != nil {
		return err
	}
	return b.annotate(s, p.Annotations)
}

func (b *builder) individual(ind individualDef) error {
	s, err := b.name(ind.IRI)
	if err != nil {
		return err
	}
	b.add(s, rdf.RDFType, rdf.OWLNamedIndividual)
	if err := b.links(s, rdf.RDFType, ind.Types); err != nil {
		return err
	}
	if err := b.links(s, rdf.OWLSameAs, ind.SameAs); err != nil {
		return err
	}
	if err := b.links(s, rdf.OWLDifferentFrom, ind.DifferentFrom); err != nil {
		return err
	}
	for _, key := range sortedKeys(ind.Facts) {
		p, err := b.name(key)
		if err != nil {
			return err
		}
		if err := b.links(s, p, ind.Facts[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(ind.Data) {
		p, err := b.name(key)
		if err != nil {
			return err
		}
		o, err := b.literal(ind.Data[key])
		if err != nil {
			return err
		}
		b.add(s, p, o)
	}
	return b.annotate(s, ind.Annotations)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
