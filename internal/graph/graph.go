package graph

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Kind classifies a node.
type Kind string

const (
	KindClass      Kind = "Class"
	KindIndividual Kind = "Individual"
	KindProperty   Kind = "Property"
	KindUnknown    Kind = "Unknown"
)

// Structural link labels.
const (
	LabelSubClassOf = "subClassOf"
	LabelType       = "type"

	SubClassOfURI = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	TypeURI       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// Attributes maps attribute names to their values. Keys and values keep
// insertion order and duplicates are retained.
type Attributes struct {
	keys   []string
	values map[string][]string
}

// Add appends value under key.
func (a *Attributes) Add(key, value string) {
	if a.values == nil {
		a.values = make(map[string][]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = append(a.values[key], value)
}

// Get returns a copy of the values recorded under key.
func (a Attributes) Get(key string) []string {
	v, ok := a.values[key]
	if !ok {
		return nil
	}
	return append([]string(nil), v...)
}

// Clone returns attributes that share no storage with a.
func (a Attributes) Clone() Attributes {
	if a.values == nil {
		return Attributes{}
	}
	c := Attributes{
		keys:   append([]string(nil), a.keys...),
		values: make(map[string][]string, len(a.values)),
	}
	for k, v := range a.values {
		c.values[k] = append([]string(nil), v...)
	}
	return c
}

// Keys returns attribute names in insertion order.
func (a Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Len returns the number of distinct keys.
func (a Attributes) Len() int {
	return len(a.keys)
}

// MarshalJSON writes the attributes as an object in insertion order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Node is a class, individual, or placeholder for an undeclared reference.
type Node struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Kind       Kind       `json:"kind"`
	Attributes Attributes `json:"attributes"`
	Snippet    string     `json:"snippet,omitempty"`
}

// Radius is the drawn circle radius for the node.
func (n Node) Radius() float64 {
	if n.Kind == KindClass {
		return 14
	}
	return 10
}

func (n Node) clone() Node {
	n.Attributes = n.Attributes.Clone()
	return n
}

// Title is the hover text for the node.
func (n Node) Title() string {
	return string(n.Kind) + ": " + n.Label + "\n" + n.ID
}

// Endpoint is either an unresolved identifier or a resolved node index.
// ID is available in both states.
type Endpoint struct {
	id       string
	index    int
	resolved bool
}

// Unresolved returns an endpoint referring to id.
func Unresolved(id string) Endpoint {
	return Endpoint{id: id}
}

// ID returns the identifier of the referenced node.
func (e Endpoint) ID() string { return e.id }

// Resolved returns the node index once the endpoint has been resolved.
func (e Endpoint) Resolved() (int, bool) {
	return e.index, e.resolved
}

// MarshalJSON writes the endpoint as its identifier.
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.id)
}

// Link is a directed, labeled relation.
type Link struct {
	Source    Endpoint `json:"source"`
	Target    Endpoint `json:"target"`
	Label     string   `json:"label"`
	OriginURI string   `json:"originUri"`
}

// Property is a declared object or datatype property.
type Property struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Datatype  bool     `json:"datatype"`
	Domain    []string `json:"domain,omitempty"`
	Range     []string `json:"range,omitempty"`
	InverseOf []string `json:"inverseOf,omitempty"`
}

func (p Property) clone() Property {
	p.Domain = append([]string(nil), p.Domain...)
	p.Range = append([]string(nil), p.Range...)
	p.InverseOf = append([]string(nil), p.InverseOf...)
	return p
}

// Model is an immutable arena of nodes and links built by one ingestion pass.
// Only link endpoint resolution changes after construction.
type Model struct {
	nodes      []Node
	index      map[string]int
	properties []Property
	markup     string

	mu       sync.RWMutex
	links    []Link
	resolved bool
}

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// Node returns a copy of the node at index i.
func (m *Model) Node(i int) Node { return m.nodes[i].clone() }

// Nodes returns copies of all nodes in ingestion order.
func (m *Model) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.clone()
	}
	return out
}

// IndexOf returns the arena index of the node with the given id.
func (m *Model) IndexOf(id string) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// Get returns the node with the given id.
func (m *Model) Get(id string) (Node, bool) {
	i, ok := m.index[id]
	if !ok {
		return Node{}, false
	}
	return m.nodes[i].clone(), true
}

// Links returns a copy of all links in ingestion order.
func (m *Model) Links() []Link {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Link(nil), m.links...)
}

// Properties returns declared properties in document order.
func (m *Model) Properties() []Property {
	out := make([]Property, len(m.properties))
	for i, p := range m.properties {
		out[i] = p.clone()
	}
	return out
}

// Property returns the declared property with the given id.
func (m *Model) Property(id string) (Property, bool) {
	for _, p := range m.properties {
		if p.ID == id {
			return p.clone(), true
		}
	}
	return Property{}, false
}

// Markup returns the raw document the model was built from.
func (m *Model) Markup() string { return m.markup }

// ResolveLinks flips every endpoint whose id names a node from unresolved to
// resolved. Calling it again is a no-op.
func (m *Model) ResolveLinks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return
	}
	for i := range m.links {
		m.links[i].Source = m.resolve(m.links[i].Source)
		m.links[i].Target = m.resolve(m.links[i].Target)
	}
	m.resolved = true
}

func (m *Model) resolve(e Endpoint) Endpoint {
	if e.resolved {
		return e
	}
	if i, ok := m.index[e.id]; ok {
		return Endpoint{id: e.id, index: i, resolved: true}
	}
	return e
}

// Stats holds summary counts.
type Stats struct {
	Nodes       int `json:"nodes"`
	Links       int `json:"links"`
	Classes     int `json:"classes"`
	Individuals int `json:"individuals"`
	Unknown     int `json:"unknown"`
	Properties  int `json:"properties"`
}

// GetStats returns summary statistics.
func (m *Model) GetStats() Stats {
	s := Stats{Nodes: len(m.nodes), Properties: len(m.properties)}
	for _, n := range m.nodes {
		switch n.Kind {
		case KindClass:
			s.Classes++
		case KindIndividual:
			s.Individuals++
		case KindUnknown:
			s.Unknown++
		}
	}
	m.mu.RLock()
	s.Links = len(m.links)
	m.mu.RUnlock()
	return s
}

// Builder accumulates nodes and links for a new Model.
type Builder struct {
	nodes      []Node
	index      map[string]int
	links      []Link
	properties []Property
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Put inserts n, replacing any earlier node with the same id in place.
func (b *Builder) Put(n Node) {
	n = n.clone()
	if i, ok := b.index[n.ID]; ok {
		b.nodes[i] = n
		return
	}
	b.index[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
}

// Has reports whether a node with id exists.
func (b *Builder) Has(id string) bool {
	_, ok := b.index[id]
	return ok
}

// Link appends a link between two identifiers.
func (b *Builder) Link(source, target, label, originURI string) {
	b.links = append(b.links, Link{
		Source:    Unresolved(source),
		Target:    Unresolved(target),
		Label:     label,
		OriginURI: originURI,
	})
}

// AddProperty records a property declaration, replacing an earlier one with the same id.
func (b *Builder) AddProperty(p Property) {
	p = p.clone()
	for i := range b.properties {
		if b.properties[i].ID == p.ID {
			b.properties[i] = p
			return
		}
	}
	b.properties = append(b.properties, p)
}

// Dangling returns endpoint ids with no node, in first-seen order.
func (b *Builder) Dangling() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range b.links {
		for _, id := range []string{l.Source.ID(), l.Target.ID()} {
			if b.Has(id) || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Build returns the finished model.
func (b *Builder) Build(markup string) *Model {
	idx := make(map[string]int, len(b.index))
	for k, v := range b.index {
		idx[k] = v
	}
	return &Model{
		nodes:      append([]Node(nil), b.nodes...),
		index:      idx,
		links:      append([]Link(nil), b.links...),
		properties: append([]Property(nil), b.properties...),
		markup:     markup,
	}
}
