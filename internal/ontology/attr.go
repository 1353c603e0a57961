package ontology

import "strings"

// Attr resolves an attribute that may be written unprefixed or under the rdf
// namespace. The literal unprefixed name wins, then the rdf-qualified name,
// then the first attribute in document order whose local name matches.
func Attr(e *Element, name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	for _, a := range e.Attrs {
		if (a.Name.Space == RDF || a.Name.Space == "rdf") && a.Name.Local == name {
			return a.Value, true
		}
	}
	for _, a := range e.Attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// About returns the identifier an element declares.
func About(e *Element) (string, bool) {
	v, ok := Attr(e, "about")
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Resource returns the identifier an element refers to, falling back to its
// own identifier.
func Resource(e *Element) (string, bool) {
	if v, ok := Attr(e, "resource"); ok && v != "" {
		return v, true
	}
	return About(e)
}

// LocalName returns the fragment after the last '#', else after the last '/',
// else id itself.
func LocalName(id string) string {
	if i := strings.LastIndex(id, "#"); i >= 0 {
		return id[i+1:]
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
