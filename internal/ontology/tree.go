package ontology

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Namespaces recognized by the ingestor.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
)

// ErrMalformed is returned when the markup is not well-formed XML.
var ErrMalformed = errors.New("malformed ontology markup")

// Element is one node of the generic attributed tree built from the markup.
// Space holds the resolved namespace URI, or the literal prefix when the
// document never declared it.
type Element struct {
	Space    string
	Local    string
	Attrs    []xml.Attr
	Children []*Element
	Parent   *Element

	runs       []textRun
	src        string
	start, end int64
}

// Parse reads markup into a tree rooted at the document element.
func Parse(markup string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Strict = true
	dec.Entity = make(map[string]string)

	var root *Element
	var stack []*Element

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Space: t.Name.Space,
				Local: t.Name.Local,
				Attrs: append([]xml.Attr(nil), t.Attr...),
				src:   markup,
				start: offset,
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				el.Parent = parent
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			el := stack[len(stack)-1]
			el.end = dec.InputOffset()
			stack = stack[:len(stack)-1]
		case xml.Directive:
			declareEntities(dec.Entity, string(t))
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside root element", ErrMalformed)
				}
				continue
			}
			el := stack[len(stack)-1]
			el.runs = append(el.runs, textRun{at: len(el.Children), s: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element %s", ErrMalformed, stack[len(stack)-1].Local)
	}
	return root, nil
}

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_:][\w.:-]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// declareEntities records the general entities of a DOCTYPE internal subset.
// The decoder reads the map lazily, so they apply to the rest of the
// document. Values may refer to entities declared before them.
func declareEntities(entities map[string]string, directive string) {
	if !strings.HasPrefix(strings.TrimSpace(directive), "DOCTYPE") {
		return
	}
	for _, m := range entityDecl.FindAllStringSubmatch(directive, -1) {
		name, value := m[1], m[2]+m[3]
		if _, ok := entities[name]; ok {
			continue
		}
		for ref, v := range entities {
			value = strings.ReplaceAll(value, "&"+ref+";", v)
		}
		entities[name] = value
	}
}

// Is reports whether the element's tag is local in namespace space, also
// accepting the conventional prefix when the namespace was never declared.
func (e *Element) Is(space, prefix, local string) bool {
	return e.Local == local && (e.Space == space || e.Space == prefix)
}

// URI returns the full identifier of the element's tag.
func (e *Element) URI() string {
	switch {
	case e.Space == "":
		return e.Local
	case strings.Contains(e.Space, ":"):
		return e.Space + e.Local
	default:
		return e.Space + ":" + e.Local
	}
}

// Text returns the trimmed text content of the element and its descendants.
func (e *Element) Text() string {
	var b strings.Builder
	e.collectText(&b)
	return strings.TrimSpace(b.String())
}

// textRun is character data that appeared before child number at.
type textRun struct {
	at int
	s  string
}

func (e *Element) collectText(b *strings.Builder) {
	r := 0
	for i, c := range e.Children {
		for ; r < len(e.runs) && e.runs[r].at <= i; r++ {
			b.WriteString(e.runs[r].s)
		}
		c.collectText(b)
	}
	for ; r < len(e.runs); r++ {
		b.WriteString(e.runs[r].s)
	}
}

// Raw returns the verbatim markup the element was parsed from.
func (e *Element) Raw() string {
	if e.src == "" || e.end <= e.start || int(e.end) > len(e.src) {
		return ""
	}
	return e.src[e.start:e.end]
}

// Walk returns the element and all its descendants matching fn, in document order.
func (e *Element) Walk(fn func(*Element) bool) []*Element {
	var out []*Element
	var visit func(*Element)
	visit = func(el *Element) {
		if fn(el) {
			out = append(out, el)
		}
		for _, c := range el.Children {
			visit(c)
		}
	}
	visit(e)
	return out
}

// Find returns the first descendant (excluding e) matching fn.
func (e *Element) Find(fn func(*Element) bool) (*Element, bool) {
	for _, c := range e.Children {
		if fn(c) {
			return c, true
		}
		if found, ok := c.Find(fn); ok {
			return found, true
		}
	}
	return nil, false
}

// Child returns the first direct child matching fn.
func (e *Element) Child(fn func(*Element) bool) (*Element, bool) {
	for _, c := range e.Children {
		if fn(c) {
			return c, true
		}
	}
	return nil, false
}

// Tag returns a matcher for the given namespace, prefix and local name.
func Tag(space, prefix, local string) func(*Element) bool {
	return func(e *Element) bool { return e.Is(space, prefix, local) }
}
