package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/ontology"
)

// Stub answers from the declared structure of the document only. It needs
// no network and is deterministic, which makes it the default backend.
type Stub struct{}

// NewStub returns the offline backend.
func NewStub() *Stub { return &Stub{} }

// Complete answers a query with the subclasses and instances of a single
// named class, and a chat question with a summary of the document.
func (s *Stub) Complete(ctx context.Context, req Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := ontology.Ingest(req.Ontology)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch req.Mode {
	case ModeQuery:
		r := s.query(m, req.Input)
		text, _ := json.Marshal(r)
		return &Reply{Text: string(text), Result: r}, nil
	case ModeChat:
		return &Reply{Text: s.chat(m, req.Input)}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", req.Mode)
	}
}

// query resolves the leading class name of the expression and lists its
// declared subclasses and instances, following subClassOf transitively.
func (s *Stub) query(m *graph.Model, expr string) *Result {
	r := &Result{Subclasses: []string{}, Instances: []string{}}
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		r.Explanation = "Empty class expression."
		return r
	}
	class, ok := m.FindByExactLabel(fields[0])
	if !ok {
		class, ok = m.FindByExactID(fields[0])
	}
	if !ok {
		for _, n := range m.Nodes() {
			if strings.EqualFold(ontology.LocalName(n.ID), fields[0]) {
				class, ok = n, true
				break
			}
		}
	}
	if !ok || class.Kind != graph.KindClass {
		r.Explanation = fmt.Sprintf("No class named %q is declared.", fields[0])
		return r
	}

	members := map[string]bool{class.ID: true}
	queue := []string{class.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, l := range m.IncomingLinks(id) {
			if l.Label != graph.LabelSubClassOf || members[l.Source.ID()] {
				continue
			}
			members[l.Source.ID()] = true
			queue = append(queue, l.Source.ID())
			if n, ok := m.Get(l.Source.ID()); ok {
				r.Subclasses = append(r.Subclasses, n.Label)
			}
		}
	}
	for _, n := range m.Nodes() {
		if n.Kind != graph.KindIndividual {
			continue
		}
		for _, l := range m.OutgoingLinks(n.ID) {
			if l.Label == graph.LabelType && members[l.Target.ID()] {
				r.Instances = append(r.Instances, n.Label)
				break
			}
		}
	}

	r.Explanation = fmt.Sprintf("Declared subclasses and instances of %s.", class.Label)
	if len(fields) > 1 {
		r.Explanation += " Restrictions after the class name were not evaluated."
	}
	return r
}

func (s *Stub) chat(m *graph.Model, question string) string {
	st := m.GetStats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "The ontology declares %d classes, %d individuals and %d properties.",
		st.Classes, st.Individuals, st.Properties)

	q := strings.ToLower(question)
	var mentioned []string
	for _, n := range m.Nodes() {
		if n.Kind == graph.KindUnknown || len(n.Label) < 3 {
			continue
		}
		if strings.Contains(q, strings.ToLower(n.Label)) {
			mentioned = append(mentioned, n.Label)
		}
	}
	for _, label := range mentioned {
		n, _ := m.FindByExactLabel(label)
		fmt.Fprintf(&sb, "\n\n%s (%s)", n.Label, n.Kind)
		for _, l := range m.OutgoingLinks(n.ID) {
			other, _ := m.Get(l.Target.ID())
			fmt.Fprintf(&sb, "\n  %s → %s", l.Label, other.Label)
		}
	}
	if len(mentioned) == 0 {
		sb.WriteString("\n\nNo entity named in the question was found.")
	}
	return sb.String()
}
