// Package docs builds a read-only reference page for an ontology document.
// It walks the markup independently of the graph model so it also lists
// properties and anonymous entities the viewer does not draw.
package docs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msalah0e/ontoview/internal/ontology"
)

// Metadata describes the ontology header.
type Metadata struct {
	IRI         string `json:"iri" yaml:"iri"`
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
}

// Entity is one documented class, property or individual.
type Entity struct {
	ID           string   `json:"id" yaml:"id"`
	Label        string   `json:"label" yaml:"label"`
	Comment      string   `json:"comment,omitempty" yaml:"comment,omitempty"`
	SuperClasses []string `json:"superClasses,omitempty" yaml:"superClasses,omitempty"`
	Domain       []string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Range        []string `json:"range,omitempty" yaml:"range,omitempty"`
}

// Doc is the generated reference.
type Doc struct {
	Metadata         Metadata `json:"metadata" yaml:"metadata"`
	Classes          []Entity `json:"classes" yaml:"classes"`
	ObjectProperties []Entity `json:"objectProperties" yaml:"objectProperties"`
	DataProperties   []Entity `json:"dataProperties" yaml:"dataProperties"`
	Individuals      []Entity `json:"individuals" yaml:"individuals"`
}

var (
	isOntology   = ontology.Tag(ontology.OWL, "owl", "Ontology")
	isClass      = ontology.Tag(ontology.OWL, "owl", "Class")
	isObjectProp = ontology.Tag(ontology.OWL, "owl", "ObjectProperty")
	isDataProp   = ontology.Tag(ontology.OWL, "owl", "DatatypeProperty")
	isIndividual = ontology.Tag(ontology.OWL, "owl", "NamedIndividual")
	isSubClassOf = ontology.Tag(ontology.RDFS, "rdfs", "subClassOf")
	isDomain     = ontology.Tag(ontology.RDFS, "rdfs", "domain")
	isRange      = ontology.Tag(ontology.RDFS, "rdfs", "range")
)

// Generate parses markup and collects its reference entries.
func Generate(markup string) (*Doc, error) {
	root, err := ontology.Parse(markup)
	if err != nil {
		return nil, err
	}

	d := &Doc{
		Metadata: Metadata{
			IRI:         "Unknown IRI",
			Title:       "Ontology Documentation",
			Version:     "1.0",
			Description: "No description available.",
		},
	}
	if el, ok := first(root, isOntology); ok {
		if iri, ok := ontology.About(el); ok {
			d.Metadata.IRI = iri
		}
		if s := childText(el, "comment"); s != "" {
			d.Metadata.Description = s
		}
		if s := childText(el, "label"); s != "" {
			d.Metadata.Title = s
		}
	}

	for _, el := range root.Walk(isClass) {
		if _, ok := ontology.About(el); ok {
			d.Classes = append(d.Classes, entity(el))
		}
	}
	for _, el := range root.Walk(isObjectProp) {
		d.ObjectProperties = append(d.ObjectProperties, entity(el))
	}
	for _, el := range root.Walk(isDataProp) {
		d.DataProperties = append(d.DataProperties, entity(el))
	}
	for _, el := range root.Walk(isIndividual) {
		d.Individuals = append(d.Individuals, entity(el))
	}

	for _, s := range [][]Entity{d.Classes, d.ObjectProperties, d.DataProperties, d.Individuals} {
		sortByLabel(s)
	}
	return d, nil
}

func first(root *ontology.Element, fn func(*ontology.Element) bool) (*ontology.Element, bool) {
	if fn(root) {
		return root, true
	}
	return root.Find(fn)
}

func identifier(el *ontology.Element) string {
	for _, name := range []string{"about", "nodeID"} {
		if v, ok := ontology.Attr(el, name); ok && v != "" {
			return v
		}
	}
	return "Anonymous"
}

// childText returns the text of the first direct child with the given local
// name, whatever its prefix.
func childText(el *ontology.Element, local string) string {
	c, ok := el.Child(func(e *ontology.Element) bool { return e.Local == local })
	if !ok {
		return ""
	}
	return c.Text()
}

func references(el *ontology.Element, fn func(*ontology.Element) bool) []string {
	var out []string
	for _, c := range el.Walk(fn) {
		if c == el {
			continue
		}
		if v, ok := ontology.Attr(c, "resource"); ok && v != "" {
			out = append(out, ontology.LocalName(v))
		}
	}
	return out
}

func entity(el *ontology.Element) Entity {
	id := identifier(el)
	label := childText(el, "label")
	if label == "" {
		label = ontology.LocalName(id)
	}
	return Entity{
		ID:           id,
		Label:        label,
		Comment:      childText(el, "comment"),
		SuperClasses: references(el, isSubClassOf),
		Domain:       references(el, isDomain),
		Range:        references(el, isRange),
	}
}

func sortByLabel(s []Entity) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := strings.ToLower(s[i].Label), strings.ToLower(s[j].Label)
		if a != b {
			return a < b
		}
		return s[i].Label < s[j].Label
	})
}

// JSON renders the document as indented JSON.
func (d *Doc) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML renders the document as YAML.
func (d *Doc) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Text renders a plain-text reference page.
func (d *Doc) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\nVersion %s\n\n%s\n", d.Metadata.Title, d.Metadata.IRI, d.Metadata.Version, d.Metadata.Description)

	section := func(title string, entities []Entity) {
		fmt.Fprintf(&b, "\n%s (%d)\n%s\n", title, len(entities), strings.Repeat("=", len(title)))
		for _, e := range entities {
			fmt.Fprintf(&b, "\n%s\n  %s\n", e.Label, e.ID)
			if e.Comment != "" {
				fmt.Fprintf(&b, "  %s\n", e.Comment)
			}
			if len(e.SuperClasses) > 0 {
				fmt.Fprintf(&b, "  subClassOf: %s\n", strings.Join(e.SuperClasses, ", "))
			}
			if len(e.Domain) > 0 {
				fmt.Fprintf(&b, "  domain: %s\n", strings.Join(e.Domain, ", "))
			}
			if len(e.Range) > 0 {
				fmt.Fprintf(&b, "  range: %s\n", strings.Join(e.Range, ", "))
			}
		}
	}
	section("Classes", d.Classes)
	section("Object Properties", d.ObjectProperties)
	section("Data Properties", d.DataProperties)
	section("Individuals", d.Individuals)
	return b.String()
}

// Render picks an output format by name: text, json or yaml.
func (d *Doc) Render(format string) ([]byte, error) {
	switch format {
	case "", "text":
		return []byte(d.Text()), nil
	case "json":
		return d.JSON()
	case "yaml", "yml":
		return d.YAML()
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
