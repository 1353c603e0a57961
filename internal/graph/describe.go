package graph

import (
	"fmt"
	"strings"
)

// View holds the data for displaying a node with its connections.
type View struct {
	Node     Node       `json:"node"`
	Outgoing []ViewEdge `json:"outgoing"`
	Incoming []ViewEdge `json:"incoming"`
}

// ViewEdge is a relation seen from one endpoint.
type ViewEdge struct {
	Label         string `json:"label"`
	PropertyLabel string `json:"propertyLabel,omitempty"`
	OriginURI     string `json:"originUri"`
	Other         Node   `json:"other"`
}

// Describe builds the side-panel view of a node.
func (m *Model) Describe(id string) (*View, error) {
	n, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	v := &View{Node: n, Outgoing: []ViewEdge{}, Incoming: []ViewEdge{}}
	for _, l := range m.OutgoingLinks(id) {
		v.Outgoing = append(v.Outgoing, m.edge(l, l.Target.ID()))
	}
	for _, l := range m.IncomingLinks(id) {
		v.Incoming = append(v.Incoming, m.edge(l, l.Source.ID()))
	}
	return v, nil
}

func (m *Model) edge(l Link, other string) ViewEdge {
	e := ViewEdge{Label: l.Label, OriginURI: l.OriginURI}
	if n, ok := m.Get(other); ok {
		e.Other = n
	} else {
		e.Other = Node{ID: other, Label: other, Kind: KindUnknown}
	}
	if p, ok := m.Property(l.OriginURI); ok && p.Label != l.Label {
		e.PropertyLabel = p.Label
	}
	return e
}

// RenderShow produces a terminal tree view of a node and its connections.
func RenderShow(m *Model, id string, brandFn, subtleFn, infoFn func(string) string) (string, error) {
	v, err := m.Describe(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	for i, edge := range v.Incoming {
		prefix := "  ├── "
		if i == len(v.Incoming)-1 && len(v.Outgoing) == 0 {
			prefix = "  └── "
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", prefix, brandFn(edge.Other.Label), subtleFn("──"), subtleFn(edgeName(edge))))
		b.WriteString("  │\n")
	}

	b.WriteString(fmt.Sprintf("  ● %s %s\n", brandFn(v.Node.Label), subtleFn("["+string(v.Node.Kind)+"]")))
	b.WriteString(fmt.Sprintf("  │  %s\n", subtleFn(v.Node.ID)))
	for _, k := range v.Node.Attributes.Keys() {
		for _, val := range v.Node.Attributes.Get(k) {
			b.WriteString(fmt.Sprintf("  │  %s %s\n", subtleFn(k+":"), infoFn("\""+val+"\"")))
		}
	}

	if len(v.Outgoing) > 0 {
		b.WriteString("  │\n")
	}
	for i, edge := range v.Outgoing {
		prefix := "  ├── "
		if i == len(v.Outgoing)-1 {
			prefix = "  └── "
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", prefix, subtleFn(edgeName(edge)), subtleFn("──"), brandFn(edge.Other.Label)))
		b.WriteString(fmt.Sprintf("              %s\n", subtleFn(string(edge.Other.Kind))))
	}

	return b.String(), nil
}

func edgeName(e ViewEdge) string {
	if e.PropertyLabel != "" {
		return e.Label + " (" + e.PropertyLabel + ")"
	}
	return e.Label
}
