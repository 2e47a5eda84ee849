package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/storybox/pkg/render"
	"github.com/matzehuels/storybox/pkg/story"
)

// Options configures story diagram rendering.
type Options struct {
	// Detailed adds controls and media locators to stage labels.
	Detailed bool
}

// ToDOT converts a package's story graph to Graphviz DOT.
//
// Stages are rounded boxes, actions are diamonds, the root has a double
// outline. Nodes the validator found unreachable are dashed and grey;
// transitions that close a loop are dashed.
func ToDOT(pkg *story.Package, opts Options) string {
	g := pkg.Graph()
	report := pkg.Report()

	unreachable := make(map[int]bool)
	for _, w := range report.Warnings {
		if w.Kind == story.FindingUnreachable {
			unreachable[w.Node] = true
		}
	}
	back := make(map[story.Edge]bool, len(report.BackEdges))
	for _, e := range report.BackEdges {
		back[e] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", pkg.ID())
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := nodeAttrs(n, fmtLabel(n, opts.Detailed))
		if n.Index == g.RootIndex() {
			attrs = append(attrs, "peripheries=2")
		}
		if unreachable[n.Index] {
			attrs = append(attrs, "color=grey", "fontcolor=grey")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.Index, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, t := range n.Transitions {
			attrs := []string{fmt.Sprintf("label=%q", edgeLabel(t))}
			if t.Default {
				attrs = append(attrs, "penwidth=2")
			}
			if back[story.Edge{From: n.Index, To: t.Target}] {
				attrs = append(attrs, "style=dashed")
			}
			fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", n.Index, t.Target, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n story.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", n.Kind, n.Index)
	}
	if !detailed || n.IsAction() {
		return name
	}

	var parts []string
	if c := controls(n.Controls); c != "" {
		parts = append(parts, c)
	}
	if n.Image != nil {
		parts = append(parts, "image: "+n.Image.Locator())
	}
	if n.Audio != nil {
		parts = append(parts, "audio: "+n.Audio.Locator())
	}
	if len(parts) == 0 {
		return name
	}
	return name + "\n" + strings.Join(parts, "\n")
}

func controls(c story.Controls) string {
	var on []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"wheel", c.Wheel}, {"ok", c.Ok}, {"home", c.Home}, {"pause", c.Pause}, {"autoplay", c.Autoplay},
	} {
		if f.set {
			on = append(on, f.name)
		}
	}
	return strings.Join(on, " ")
}

func nodeAttrs(n story.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsAction() {
		attrs = append(attrs, "shape=diamond", "style=filled", "fillcolor=lightyellow")
	}
	return attrs
}

func edgeLabel(t story.Transition) string {
	var label string
	if t.Condition.Kind == story.CondOption {
		label = fmt.Sprintf("%d/%d", t.Condition.Index+1, t.Condition.Count)
	} else {
		label = t.Condition.Kind.String()
	}
	switch {
	case t.Entry == story.RandomEntry:
		label += " (random)"
	case t.Entry > 0:
		label += fmt.Sprintf(" (#%d)", t.Entry+1)
	}
	return label
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox with
// matching pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF. Requires rsvg-convert.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG at the given scale. Requires
// rsvg-convert.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
