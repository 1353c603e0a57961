package ontology

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/ontoview/internal/graph"
)

const header = `<?xml version="1.0"?>
<rdf:RDF xmlns="http://example.org/onto#"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
     xmlns:ex="http://example.org/onto#">
`

func doc(body string) string {
	return header + body + "\n</rdf:RDF>\n"
}

func linkTriples(m *graph.Model) [][3]string {
	var out [][3]string
	for _, l := range m.Links() {
		out = append(out, [3]string{l.Source.ID(), l.Target.ID(), l.Label})
	}
	return out
}

func TestIngestSubClass(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:Class rdf:about="http://example.org/onto#A">
    <rdfs:subClassOf rdf:resource="http://example.org/onto#B"/>
  </owl:Class>
  <owl:Class rdf:about="http://example.org/onto#B"/>`))
	require.NoError(t, err)

	require.Equal(t, 2, m.Len())
	assert.Equal(t, "A", m.Node(0).Label)
	assert.Equal(t, graph.KindClass, m.Node(0).Kind)
	assert.Equal(t, "B", m.Node(1).Label)
	assert.Equal(t, [][3]string{{"http://example.org/onto#A", "http://example.org/onto#B", "subClassOf"}}, linkTriples(m))
	assert.Equal(t, graph.SubClassOfURI, m.Links()[0].OriginURI)
}

func TestIngestIndividualWithPlaceholder(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:Class rdf:about="http://example.org/onto#C"/>
  <owl:NamedIndividual rdf:about="http://example.org/onto#I">
    <rdf:type rdf:resource="http://example.org/onto#C"/>
    <ex:relatedTo rdf:resource="http://example.org/other/X"/>
  </owl:NamedIndividual>`))
	require.NoError(t, err)

	require.Equal(t, 3, m.Len())
	x, ok := m.Get("http://example.org/other/X")
	require.True(t, ok)
	assert.Equal(t, graph.KindUnknown, x.Kind)
	assert.Equal(t, "X", x.Label)

	i, ok := m.Get("http://example.org/onto#I")
	require.True(t, ok)
	assert.Equal(t, graph.KindIndividual, i.Kind)
	assert.Equal(t, 0, i.Attributes.Len())

	links := m.Links()
	require.Len(t, links, 2)
	assert.Equal(t, "type", links[0].Label)
	assert.Equal(t, graph.TypeURI, links[0].OriginURI)
	assert.Equal(t, "relatedTo", links[1].Label)
	assert.Equal(t, "http://example.org/onto#relatedTo", links[1].OriginURI)
}

func TestIngestAttributeAccumulation(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:NamedIndividual rdf:about="http://example.org/onto#P">
    <ex:Nombre>  A </ex:Nombre>
    <ex:Edad>40</ex:Edad>
    <ex:Nombre>B</ex:Nombre>
    <ex:Vacio>   </ex:Vacio>
  </owl:NamedIndividual>`))
	require.NoError(t, err)

	p, ok := m.Get("http://example.org/onto#P")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, p.Attributes.Get("Nombre"))
	assert.Equal(t, []string{"Nombre", "Edad"}, p.Attributes.Keys())
	assert.Nil(t, p.Attributes.Get("Vacio"))
}

func TestIngestLabelOverride(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:NamedIndividual rdf:about="http://example.org/onto#p1">
    <rdfs:label>Dr. Ada</rdfs:label>
  </owl:NamedIndividual>`))
	require.NoError(t, err)

	n, _ := m.Get("http://example.org/onto#p1")
	assert.Equal(t, "Dr. Ada", n.Label)
}

func TestIngestLastWriteWins(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:Class rdf:about="http://example.org/onto#A"><rdfs:label>First</rdfs:label></owl:Class>
  <owl:Class rdf:about="http://example.org/onto#B"/>
  <owl:Class rdf:about="http://example.org/onto#A"><rdfs:label>Second</rdfs:label></owl:Class>`))
	require.NoError(t, err)

	require.Equal(t, 2, m.Len())
	assert.Equal(t, "Second", m.Node(0).Label)
	assert.Equal(t, "B", m.Node(1).Label)
}

func TestIngestSkipsElementsWithoutIdentifier(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:Class>
    <rdfs:subClassOf rdf:resource="http://example.org/onto#B"/>
  </owl:Class>
  <owl:NamedIndividual><ex:name>x</ex:name></owl:NamedIndividual>`))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Links())
}

func TestIngestNoDanglingLinks(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:NamedIndividual rdf:about="#a">
    <ex:knows rdf:resource="#b"/>
    <rdf:type rdf:resource="#Person"/>
  </owl:NamedIndividual>
  <owl:Class rdf:about="#Person">
    <rdfs:subClassOf rdf:resource="#Agent"/>
  </owl:Class>`))
	require.NoError(t, err)

	for _, l := range m.Links() {
		_, ok := m.Get(l.Source.ID())
		assert.True(t, ok, "missing source %s", l.Source.ID())
		_, ok = m.Get(l.Target.ID())
		assert.True(t, ok, "missing target %s", l.Target.ID())
	}
}

func TestIngestDeterministic(t *testing.T) {
	data, err := os.ReadFile("../../sample/research.owl")
	require.NoError(t, err)

	a, err := Ingest(string(data))
	require.NoError(t, err)
	b, err := Ingest(string(data))
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		na, nb := a.Node(i), b.Node(i)
		assert.Equal(t, na.ID, nb.ID)
		assert.Equal(t, na.Label, nb.Label)
		assert.Equal(t, na.Kind, nb.Kind)
		assert.Equal(t, na.Attributes, nb.Attributes)
	}
	assert.Equal(t, linkTriples(a), linkTriples(b))
}

func TestIngestSample(t *testing.T) {
	data, err := os.ReadFile("../../sample/research.owl")
	require.NoError(t, err)

	m, err := Ingest(string(data))
	require.NoError(t, err)

	stats := m.GetStats()
	assert.Greater(t, stats.Classes, 20)
	assert.Greater(t, stats.Individuals, 5)
	assert.NotEmpty(t, m.Properties())

	for _, l := range m.Links() {
		_, ok := m.Get(l.Target.ID())
		assert.True(t, ok)
	}
}

func TestIngestProperties(t *testing.T) {
	m, err := Ingest(doc(`
  <owl:ObjectProperty rdf:about="http://example.org/onto#worksOn">
    <rdfs:domain rdf:resource="http://example.org/onto#Person"/>
    <rdfs:range rdf:resource="http://example.org/onto#Project"/>
    <owl:inverseOf rdf:resource="http://example.org/onto#hasWorker"/>
    <rdfs:label>works on</rdfs:label>
  </owl:ObjectProperty>
  <owl:DatatypeProperty rdf:about="http://example.org/onto#name"/>`))
	require.NoError(t, err)

	props := m.Properties()
	require.Len(t, props, 2)
	assert.Equal(t, "works on", props[0].Label)
	assert.False(t, props[0].Datatype)
	assert.Equal(t, []string{"http://example.org/onto#Person"}, props[0].Domain)
	assert.Equal(t, []string{"http://example.org/onto#Project"}, props[0].Range)
	assert.Equal(t, []string{"http://example.org/onto#hasWorker"}, props[0].InverseOf)
	assert.True(t, props[1].Datatype)
	assert.Equal(t, 0, m.Len())
}

func TestIngestMalformed(t *testing.T) {
	cases := []string{
		"",
		"not xml at all",
		"<rdf:RDF><owl:Class></rdf:RDF>",
		"<a/><b/>",
	}
	for _, c := range cases {
		_, err := Ingest(c)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Ingest(%q): expected ErrMalformed, got %v", c, err)
		}
	}
}

func TestIngestSnippet(t *testing.T) {
	cls := `<owl:Class rdf:about="http://example.org/onto#A"><rdfs:label>A</rdfs:label></owl:Class>`
	m, err := Ingest(doc(cls))
	require.NoError(t, err)
	assert.Equal(t, cls, m.Node(0).Snippet)
}

func TestIngestUndeclaredPrefixes(t *testing.T) {
	m, err := Ingest(`<rdf:RDF><owl:Class rdf:about="urn:x#A"><rdfs:subClassOf rdf:resource="urn:x#B"/></owl:Class></rdf:RDF>`)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, graph.KindUnknown, m.Node(1).Kind)
}

func TestIngestDoctypeEntities(t *testing.T) {
	markup := `<?xml version="1.0"?>
<!DOCTYPE rdf:RDF [
    <!ENTITY owl "http://www.w3.org/2002/07/owl#" >
    <!ENTITY rdfs "http://www.w3.org/2000/01/rdf-schema#" >
    <!ENTITY rdf "http://www.w3.org/1999/02/22-rdf-syntax-ns#" >
    <!ENTITY ex "http://example.org/onto#" >
    <!ENTITY people '&ex;people/' >
    <!ENTITY % ignored "parameter entity" >
]>
<rdf:RDF xmlns="&ex;"
     xml:base="http://example.org/onto"
     xmlns:rdf="&rdf;"
     xmlns:rdfs="&rdfs;"
     xmlns:owl="&owl;">
  <owl:Class rdf:about="&ex;A">
    <rdfs:subClassOf rdf:resource="&ex;B"/>
  </owl:Class>
  <owl:Class rdf:about="&ex;B"/>
  <owl:NamedIndividual rdf:about="&people;ana">
    <rdf:type rdf:resource="&ex;A"/>
    <Nombre>Ana &amp; Eva</Nombre>
  </owl:NamedIndividual>
</rdf:RDF>
`
	m, err := Ingest(markup)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	a, ok := m.Get("http://example.org/onto#A")
	require.True(t, ok)
	assert.Equal(t, graph.KindClass, a.Kind)

	ana, ok := m.Get("http://example.org/onto#people/ana")
	require.True(t, ok)
	assert.Equal(t, graph.KindIndividual, ana.Kind)
	assert.Equal(t, []string{"Ana & Eva"}, ana.Attributes.Get("Nombre"))

	assert.Equal(t, [][3]string{
		{"http://example.org/onto#A", "http://example.org/onto#B", "subClassOf"},
		{"http://example.org/onto#people/ana", "http://example.org/onto#A", "type"},
	}, linkTriples(m))
}

func TestIngestUndeclaredEntityIsMalformed(t *testing.T) {
	_, err := Ingest(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:owl="http://www.w3.org/2002/07/owl#"><owl:Class rdf:about="&ex;A"/></rdf:RDF>`)
	assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
}
