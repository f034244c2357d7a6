package publish

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// DotOptions configures dependency-graph rendering.
type DotOptions struct {
	// Detailed includes the kind noun in node labels.
	Detailed bool
}

// ToDOT converts the relationship maps to Graphviz DOT format. The
// rendered graph is a debugging aid: it shows the order the publisher
// will put resources in (edges point from a predecessor to its
// dependents).
func (r *Relationships) ToDOT(opts DotOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph resources {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, key := range r.Keys() {
		label := key.String()
		if opts.Detailed {
			label = key.Kind.Singular + "\n" + label
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", key.Fold(), label)
	}

	buf.WriteString("\n")
	for _, key := range r.Keys() {
		for _, succ := range r.Successors(key) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", key.Fold(), succ.Fold())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the relationship graph to SVG via graphviz.
func (r *Relationships) RenderSVG(ctx context.Context, opts DotOptions) ([]byte, error) {
	g, err := graphviz.New(ctx)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	graph, err := graphviz.ParseBytes([]byte(r.ToDOT(opts)))
	if err != nil {
		return nil, err
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
