package graph

import "strings"

func normalize(s string) string {
	return strings.ToLower(s)
}

// FindByExactLabel returns the first node, in ingestion order, whose label
// equals text ignoring case.
func (m *Model) FindByExactLabel(text string) (Node, bool) {
	q := normalize(text)
	for _, n := range m.nodes {
		if normalize(n.Label) == q {
			return n, true
		}
	}
	return Node{}, false
}

// FindByExactID returns the first node whose id equals text ignoring case.
func (m *Model) FindByExactID(text string) (Node, bool) {
	q := normalize(text)
	for _, n := range m.nodes {
		if normalize(n.ID) == q {
			return n, true
		}
	}
	return Node{}, false
}

// FindByLabelContains returns the first node whose label contains text ignoring case.
func (m *Model) FindByLabelContains(text string) (Node, bool) {
	q := normalize(text)
	for _, n := range m.nodes {
		if strings.Contains(normalize(n.Label), q) {
			return n, true
		}
	}
	return Node{}, false
}

// OutgoingLinks returns the links leaving the node, in ingestion order.
func (m *Model) OutgoingLinks(id string) []Link {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Link
	for _, l := range m.links {
		if l.Source.ID() == id {
			out = append(out, l)
		}
	}
	return out
}

// IncomingLinks returns the links arriving at the node, in ingestion order.
func (m *Model) IncomingLinks(id string) []Link {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Link
	for _, l := range m.links {
		if l.Target.ID() == id {
			out = append(out, l)
		}
	}
	return out
}

// Degree returns how many links touch the node.
func (m *Model) Degree(id string) int {
	return len(m.OutgoingLinks(id)) + len(m.IncomingLinks(id))
}
