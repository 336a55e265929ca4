// Package render draws feature models as Graphviz diagrams: the feature tree
// with group decorations in the usual feature-diagram notation, plus the
// cross-tree constraints as a caption.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/uvlkit/uvlkit/pkg/fm"
	"github.com/uvlkit/uvlkit/pkg/observability"
)

// Options configures diagram rendering.
type Options struct {
	// Constraints includes the cross-tree constraints as a caption below
	// the tree.
	Constraints bool
}

// ToDOT converts a feature model to Graphviz DOT. Edges carry the standard
// feature-diagram markers: a filled dot for mandatory children, an open dot
// for optional ones, and labeled edges for or/alternative group members.
// Output is deterministic: features are emitted in declaration order.
func ToDOT(m *fm.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph FeatureModel {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	writeFeature(&buf, m.Root, true)
	buf.WriteString("\n")
	writeEdges(&buf, m.Root)

	if opts.Constraints && len(m.Constraints) > 0 {
		lines := make([]string, len(m.Constraints))
		for i, c := range m.Constraints {
			lines[i] = c.String()
		}
		fmt.Fprintf(&buf, "\n  label=%q;\n  labelloc=b;\n", strings.Join(lines, "\n"))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeFeature(buf *bytes.Buffer, f *fm.Feature, isRoot bool) {
	attrs := []string{fmt.Sprintf("label=%q", f.Name)}
	if isRoot {
		attrs = append(attrs, "penwidth=2")
	}
	fmt.Fprintf(buf, "  %q [%s];\n", f.Name, strings.Join(attrs, ", "))

	for _, c := range f.Children() {
		writeFeature(buf, c, false)
	}
}

func writeEdges(buf *bytes.Buffer, f *fm.Feature) {
	for _, g := range f.Groups {
		for _, c := range g.Children {
			fmt.Fprintf(buf, "  %q -> %q [%s];\n", f.Name, c.Name, edgeAttrs(g.Kind))
			writeEdges(buf, c)
		}
	}
}

func edgeAttrs(k fm.GroupKind) string {
	switch k {
	case fm.GroupMandatory:
		return "arrowhead=dot"
	case fm.GroupOptional:
		return "arrowhead=odot"
	case fm.GroupOr:
		return `arrowhead=none, label="or", fontsize=10`
	case fm.GroupAlternative:
		return `arrowhead=none, label="alt", fontsize=10`
	}
	return "arrowhead=none"
}

// ToSVG renders a DOT diagram to SVG using Graphviz.
func ToSVG(ctx context.Context, dot string) (out []byte, err error) {
	start := time.Now()
	observability.Render().OnRenderStart(ctx, "svg")
	defer func() {
		observability.Render().OnRenderComplete(ctx, "svg", time.Since(start), err)
	}()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
