package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/storybox/internal/testsupport"
	"github.com/matzehuels/storybox/pkg/loader"
	"github.com/matzehuels/storybox/pkg/story"
)

func forest(t *testing.T) *story.Package {
	t.Helper()
	dir := testsupport.WriteForestStudio(t, t.TempDir())
	pkg, err := loader.New(loader.Options{}).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return pkg
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(forest(t), Options{})

	for _, want := range []string{
		`digraph "FOREST01" {`,
		`n0 [label="Cover", peripheries=2];`,
		`n3 [label="Choose", shape=diamond, style=filled, fillcolor=lightyellow];`,
		`n0 -> n3 [label="ok"];`,
		`n3 -> n1 [label="1/2"];`,
		`n3 -> n2 [label="2/2"];`,
		`n1 -> n4 [label="timeout"];`,
		`n4 -> n0 [label="1/1", style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(forest(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="Cover\nok home\nimage: cover.png\naudio: cover.mp3"`) {
		t.Errorf("detailed cover label missing\n%s", dot)
	}
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		t    story.Transition
		want string
	}{
		{story.Transition{Condition: story.OkPressed(), Entry: story.NoEntry}, "ok"},
		{story.Transition{Condition: story.HomePressed(), Entry: 0}, "home"},
		{story.Transition{Condition: story.OkPressed(), Entry: 2}, "ok (#3)"},
		{story.Transition{Condition: story.TimeoutElapsed(), Entry: story.RandomEntry}, "timeout (random)"},
		{story.Transition{Condition: story.Option(0, 3)}, "1/3"},
	}
	for _, tt := range tests {
		if got := edgeLabel(tt.t); got != tt.want {
			t.Errorf("edgeLabel(%+v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(forest(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Errorf("SVG lacks a normalized viewBox: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}
}
