package layout

import (
	"fmt"
	"html"
	"strings"

	"github.com/msalah0e/ontoview/internal/graph"
)

var svgColors = map[graph.Kind]string{
	graph.KindClass:      "#3b82f6",
	graph.KindIndividual: "#22c55e",
	graph.KindProperty:   "#eab308",
	graph.KindUnknown:    "#64748b",
}

// SVG renders the placed nodes and the links between them through the
// state's transform. Unplaced nodes are omitted.
func (s State) SVG() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		s.Viewport.Width, s.Viewport.Height, s.Viewport.Width, s.Viewport.Height)
	b.WriteString(`<rect width="100%" height="100%" fill="#0f172a"/>` + "\n")
	fmt.Fprintf(&b, `<g transform="translate(%g,%g) scale(%g)">`+"\n", s.Transform.X, s.Transform.Y, s.Transform.K)

	placed := make(map[string]NodeState, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Placed {
			placed[n.ID] = n
		}
	}

	for _, l := range s.Links {
		src, ok1 := placed[l.Source]
		tgt, ok2 := placed[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#475569" stroke-width="1.5"/>`+"\n",
			src.X, src.Y, tgt.X, tgt.Y)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="9" fill="#64748b" text-anchor="middle">%s</text>`+"\n",
			(src.X+tgt.X)/2, (src.Y+tgt.Y)/2-4, html.EscapeString(l.Label))
	}

	for _, n := range s.Nodes {
		if !n.Placed {
			continue
		}
		color, ok := svgColors[n.Kind]
		if !ok {
			color = svgColors[graph.KindUnknown]
		}
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="%g" fill="%s"><title>%s</title></circle>`+"\n",
			n.X, n.Y, n.R, color, html.EscapeString(string(n.Kind)+": "+n.Label+"\n"+n.ID))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="11" fill="#e2e8f0" text-anchor="middle">%s</text>`+"\n",
			n.X, n.Y+n.R+12, html.EscapeString(n.Label))
	}

	b.WriteString("</g>\n</svg>\n")
	return b.String()
}
