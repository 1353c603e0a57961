package graph

import (
	"encoding/json"
	"strings"
	"testing"
)

func testModel() *Model {
	b := NewBuilder()
	b.Put(Node{ID: "urn:x#Researcher", Label: "Researcher", Kind: KindClass})
	b.Put(Node{ID: "urn:x#Person", Label: "Person", Kind: KindClass})
	b.Put(Node{ID: "urn:x#SeniorResearcher", Label: "Senior Researcher", Kind: KindClass})
	ada := Node{ID: "urn:x#ada", Label: "Ada", Kind: KindIndividual}
	ada.Attributes.Add("name", "Ada")
	ada.Attributes.Add("name", "Augusta")
	b.Put(ada)
	b.Link("urn:x#Researcher", "urn:x#Person", LabelSubClassOf, SubClassOfURI)
	b.Link("urn:x#SeniorResearcher", "urn:x#Researcher", LabelSubClassOf, SubClassOfURI)
	b.Link("urn:x#ada", "urn:x#SeniorResearcher", LabelType, TypeURI)
	b.Link("urn:x#ada", "urn:x#proj", "worksOn", "urn:x#worksOn")
	b.AddProperty(Property{ID: "urn:x#worksOn", Label: "works on"})
	for _, id := range b.Dangling() {
		b.Put(Node{ID: id, Label: "proj", Kind: KindUnknown})
	}
	return b.Build("<rdf:RDF/>")
}

func TestBuilderLastWriteWins(t *testing.T) {
	b := NewBuilder()
	b.Put(Node{ID: "a", Label: "first"})
	b.Put(Node{ID: "b", Label: "b"})
	b.Put(Node{ID: "a", Label: "second"})
	m := b.Build("")

	if m.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", m.Len())
	}
	if m.Node(0).Label != "second" {
		t.Errorf("expected overwritten label 'second', got %q", m.Node(0).Label)
	}
	if i, _ := m.IndexOf("b"); i != 1 {
		t.Errorf("expected b at index 1, got %d", i)
	}
}

func TestDangling(t *testing.T) {
	b := NewBuilder()
	b.Put(Node{ID: "a"})
	b.Link("a", "x", "r", "")
	b.Link("y", "a", "r", "")
	b.Link("a", "x", "s", "")

	got := b.Dangling()
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("expected [x y], got %v", got)
	}
}

func TestFindByExactLabel(t *testing.T) {
	m := testModel()

	n, ok := m.FindByExactLabel("researcher")
	if !ok {
		t.Fatal("expected a match")
	}
	if n.ID != "urn:x#Researcher" {
		t.Errorf("expected Researcher, got %q", n.ID)
	}

	if _, ok := m.FindByExactLabel("Research"); ok {
		t.Error("expected no exact match for partial label")
	}
}

func TestFindByExactID(t *testing.T) {
	m := testModel()
	n, ok := m.FindByExactID("URN:X#ADA")
	if !ok || n.Label != "Ada" {
		t.Errorf("expected Ada, got %+v (ok=%v)", n, ok)
	}
}

func TestFindByLabelContains(t *testing.T) {
	m := testModel()
	n, ok := m.FindByLabelContains("SEARCH")
	if !ok {
		t.Fatal("expected a match")
	}
	if n.ID != "urn:x#Researcher" {
		t.Errorf("expected first match in ingestion order, got %q", n.ID)
	}
	if _, ok := m.FindByLabelContains("zzz"); ok {
		t.Error("expected no match")
	}
}

func TestOutgoingIncoming(t *testing.T) {
	m := testModel()

	out := m.OutgoingLinks("urn:x#ada")
	if len(out) != 2 {
		t.Fatalf("expected 2 outgoing links, got %d", len(out))
	}
	if out[0].Label != LabelType || out[1].Label != "worksOn" {
		t.Errorf("unexpected order: %q, %q", out[0].Label, out[1].Label)
	}

	in := m.IncomingLinks("urn:x#Researcher")
	if len(in) != 1 || in[0].Source.ID() != "urn:x#SeniorResearcher" {
		t.Errorf("unexpected incoming links: %+v", in)
	}

	if got := m.Degree("urn:x#Researcher"); got != 2 {
		t.Errorf("expected degree 2, got %d", got)
	}
}

func TestResolveLinksIdempotent(t *testing.T) {
	m := testModel()

	for _, l := range m.Links() {
		if _, ok := l.Target.Resolved(); ok {
			t.Fatal("expected unresolved endpoints before ResolveLinks")
		}
	}

	m.ResolveLinks()
	first := m.Links()
	m.ResolveLinks()
	second := m.Links()

	for i, l := range first {
		si, ok := l.Source.Resolved()
		if !ok {
			t.Fatalf("link %d source unresolved", i)
		}
		if m.Node(si).ID != l.Source.ID() {
			t.Errorf("link %d source resolved to %q, want %q", i, m.Node(si).ID, l.Source.ID())
		}
		ti, _ := l.Target.Resolved()
		if m.Node(ti).ID != l.Target.ID() {
			t.Errorf("link %d target resolved to %q, want %q", i, m.Node(ti).ID, l.Target.ID())
		}
		if second[i] != l {
			t.Errorf("link %d changed on second resolution", i)
		}
	}
}

func TestAttributesJSONOrder(t *testing.T) {
	var a Attributes
	a.Add("zeta", "1")
	a.Add("alpha", "2")
	a.Add("zeta", "3")

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"zeta":["1","3"],"alpha":["2"]}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestDescribe(t *testing.T) {
	m := testModel()

	v, err := m.Describe("urn:x#ada")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if len(v.Outgoing) != 2 || len(v.Incoming) != 0 {
		t.Fatalf("expected 2 outgoing / 0 incoming, got %d / %d", len(v.Outgoing), len(v.Incoming))
	}
	if v.Outgoing[1].PropertyLabel != "works on" {
		t.Errorf("expected declared property label, got %q", v.Outgoing[1].PropertyLabel)
	}
	if v.Outgoing[1].Other.Kind != KindUnknown {
		t.Errorf("expected placeholder target, got %q", v.Outgoing[1].Other.Kind)
	}

	if _, err := m.Describe("nope"); err == nil {
		t.Error("expected error for unknown node")
	}
}

func TestStats(t *testing.T) {
	s := testModel().GetStats()
	if s.Nodes != 5 || s.Links != 4 || s.Classes != 3 || s.Individuals != 1 || s.Unknown != 1 || s.Properties != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestRadiusAndTitle(t *testing.T) {
	if (Node{Kind: KindClass}).Radius() != 14 {
		t.Error("expected class radius 14")
	}
	if (Node{Kind: KindIndividual}).Radius() != 10 {
		t.Error("expected individual radius 10")
	}
	title := Node{ID: "urn:x#a", Label: "A", Kind: KindIndividual}.Title()
	if title != "Individual: A\nurn:x#a" {
		t.Errorf("unexpected title %q", title)
	}
}

func TestExportJSON(t *testing.T) {
	data, err := testModel().ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	var doc struct {
		Nodes []struct {
			ID         string              `json:"id"`
			Attributes map[string][]string `json:"attributes"`
		} `json:"nodes"`
		Links []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(doc.Nodes) != 5 || len(doc.Links) != 4 {
		t.Fatalf("expected 5 nodes / 4 links, got %d / %d", len(doc.Nodes), len(doc.Links))
	}
	if doc.Links[0].Source != "urn:x#Researcher" {
		t.Errorf("expected endpoint ids in JSON, got %q", doc.Links[0].Source)
	}
	if got := doc.Nodes[3].Attributes["name"]; len(got) != 2 {
		t.Errorf("expected 2 name values, got %v", got)
	}
}

func TestExportDOT(t *testing.T) {
	dot := testModel().ExportDOT()
	if !strings.HasPrefix(dot, "digraph ontology {") {
		t.Error("expected digraph header")
	}
	if !strings.Contains(dot, `"urn:x#Researcher" -> "urn:x#Person" [label="subClassOf", arrowhead=empty];`) {
		t.Errorf("missing subClassOf edge:\n%s", dot)
	}
}

func TestExportHTML(t *testing.T) {
	page := testModel().ExportHTML(HTMLOptions{Title: "<demo>", Live: true})
	if !strings.Contains(page, "<title>&lt;demo&gt;</title>") {
		t.Error("expected escaped title")
	}
	if !strings.Contains(page, "const LIVE=true;") {
		t.Error("expected live flag")
	}
	if !strings.Contains(page, `"id":"urn:x#ada"`) {
		t.Error("expected embedded nodes")
	}
}

func TestRenderShow(t *testing.T) {
	id := func(s string) string { return s }
	out, err := RenderShow(testModel(), "urn:x#Researcher", id, id, id)
	if err != nil {
		t.Fatalf("RenderShow failed: %v", err)
	}
	for _, want := range []string{"● Researcher", "subClassOf", "Person", "Senior Researcher"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestReturnedNodesDoNotAliasModel(t *testing.T) {
	m := testModel()

	n, ok := m.Get("urn:x#ada")
	if !ok {
		t.Fatal("ada not found")
	}
	n.Attributes.Add("name", "Byron")
	n.Attributes.Add("born", "1815")
	n.Attributes.Get("name")[0] = "Z"

	i, _ := m.IndexOf("urn:x#ada")
	byIndex := m.Node(i)
	byIndex.Attributes.Add("name", "Lovelace")
	for _, other := range m.Nodes() {
		other.Attributes.Add("name", "X")
	}

	fresh, _ := m.Get("urn:x#ada")
	got := fresh.Attributes.Get("name")
	if len(got) != 2 || got[0] != "Ada" || got[1] != "Augusta" {
		t.Errorf("expected model attributes [Ada Augusta], got %v", got)
	}
	if keys := fresh.Attributes.Keys(); len(keys) != 1 {
		t.Errorf("expected only the name key, got %v", keys)
	}
	if got := n.Attributes.Get("name"); len(got) != 3 || got[2] != "Byron" {
		t.Errorf("expected the copy to keep its own values, got %v", got)
	}
}

func TestAttributesGetReturnsCopy(t *testing.T) {
	var a Attributes
	a.Add("k", "v")
	a.Get("k")[0] = "changed"
	if got := a.Get("k"); got[0] != "v" {
		t.Errorf("expected stored value v, got %q", got[0])
	}
	if a.Get("missing") != nil {
		t.Error("expected nil for a missing key")
	}
}

func TestReturnedPropertiesDoNotAliasModel(t *testing.T) {
	b := NewBuilder()
	b.AddProperty(Property{ID: "urn:x#p", Domain: []string{"urn:x#A"}})
	m := b.Build("")

	p, _ := m.Property("urn:x#p")
	p.Domain[0] = "urn:x#Z"
	m.Properties()[0].Domain[0] = "urn:x#Y"

	fresh, _ := m.Property("urn:x#p")
	if fresh.Domain[0] != "urn:x#A" {
		t.Errorf("expected domain urn:x#A, got %v", fresh.Domain)
	}
}
