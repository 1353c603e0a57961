package ontology

import (
	"github.com/msalah0e/ontoview/internal/graph"
)

var (
	isClass      = Tag(OWL, "owl", "Class")
	isIndividual = Tag(OWL, "owl", "NamedIndividual")
	isObjectProp = Tag(OWL, "owl", "ObjectProperty")
	isDataProp   = Tag(OWL, "owl", "DatatypeProperty")
	isSubClassOf = Tag(RDFS, "rdfs", "subClassOf")
	isLabel      = Tag(RDFS, "rdfs", "label")
	isComment    = Tag(RDFS, "rdfs", "comment")
	isType       = Tag(RDF, "rdf", "type")
	isDomain     = Tag(RDFS, "rdfs", "domain")
	isRange      = Tag(RDFS, "rdfs", "range")
	isInverseOf  = Tag(OWL, "owl", "inverseOf")
)

// Ingest parses markup into a graph model. It fails only when the markup is
// not well-formed; every dangling link endpoint is repaired with an Unknown
// placeholder node.
func Ingest(markup string) (*graph.Model, error) {
	root, err := Parse(markup)
	if err != nil {
		return nil, err
	}

	b := graph.NewBuilder()

	for _, el := range root.Walk(isClass) {
		ingestClass(b, el)
	}
	for _, el := range root.Walk(isIndividual) {
		ingestIndividual(b, el)
	}
	for _, el := range root.Walk(func(e *Element) bool { return isObjectProp(e) || isDataProp(e) }) {
		ingestProperty(b, el)
	}

	for _, id := range b.Dangling() {
		b.Put(graph.Node{ID: id, Label: LocalName(id), Kind: graph.KindUnknown})
	}

	return b.Build(markup), nil
}

func ingestClass(b *graph.Builder, el *Element) {
	id, ok := About(el)
	if !ok {
		return
	}

	n := graph.Node{ID: id, Label: labelOf(el, id), Kind: graph.KindClass, Snippet: el.Raw()}
	if c, ok := el.Child(isComment); ok && c.Text() != "" {
		n.Attributes.Add("comment", c.Text())
	}
	b.Put(n)

	for _, sub := range el.Walk(isSubClassOf) {
		if parent, ok := Resource(sub); ok {
			b.Link(id, parent, graph.LabelSubClassOf, graph.SubClassOfURI)
		}
	}
}

func ingestIndividual(b *graph.Builder, el *Element) {
	id, ok := About(el)
	if !ok {
		return
	}

	n := graph.Node{ID: id, Label: labelOf(el, id), Kind: graph.KindIndividual, Snippet: el.Raw()}
	for _, c := range el.Children {
		if isType(c) {
			if class, ok := Resource(c); ok {
				b.Link(id, class, graph.LabelType, graph.TypeURI)
			}
			continue
		}
		if target, ok := Resource(c); ok {
			b.Link(id, target, c.Local, c.URI())
			continue
		}
		if text := c.Text(); text != "" {
			n.Attributes.Add(c.Local, text)
		}
	}
	b.Put(n)
}

func ingestProperty(b *graph.Builder, el *Element) {
	id, ok := About(el)
	if !ok {
		return
	}
	p := graph.Property{ID: id, Label: labelOf(el, id), Datatype: isDataProp(el)}
	for _, c := range el.Children {
		ref, ok := Resource(c)
		if !ok {
			continue
		}
		switch {
		case isDomain(c):
			p.Domain = append(p.Domain, ref)
		case isRange(c):
			p.Range = append(p.Range, ref)
		case isInverseOf(c):
			p.InverseOf = append(p.InverseOf, ref)
		}
	}
	b.AddProperty(p)
}

// labelOf returns the element's declared label, falling back to the local name of id.
func labelOf(el *Element, id string) string {
	if l, ok := el.Child(isLabel); ok {
		if text := l.Text(); text != "" {
			return text
		}
	}
	return LocalName(id)
}
