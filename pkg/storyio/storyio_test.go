package storyio

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/storybox/internal/testsupport"
	"github.com/matzehuels/storybox/pkg/loader"
	"github.com/matzehuels/storybox/pkg/story"
	"github.com/matzehuels/storybox/pkg/story/validate"
)

func loadForest(t *testing.T, device bool) *story.Package {
	t.Helper()
	var dir string
	if device {
		dir = testsupport.WriteForestDevice(t, t.TempDir())
	} else {
		dir = testsupport.WriteForestStudio(t, t.TempDir())
	}
	pkg, err := loader.New(loader.Options{Keys: testsupport.ForestKeys(t)}).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return pkg
}

// rebuild turns a snapshot back into a validated package.
func rebuild(t *testing.T, s *Snapshot) *story.Package {
	t.Helper()
	raw, err := s.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	g, err := story.Build(raw)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report, err := validate.Validate(g, raw.Findings())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return story.NewPackage(story.PackageParams{
		ID:     raw.ID(),
		Format: raw.Format(),
		Info:   raw.Info(),
		Graph:  g,
		Report: report,
	})
}

func TestRoundTrip(t *testing.T) {
	for _, device := range []bool{true, false} {
		for _, format := range []string{"json", "yaml"} {
			pkg := loadForest(t, device)
			t.Run(string(pkg.Format())+"/"+format, func(t *testing.T) {
				var buf bytes.Buffer
				if err := Write(pkg, format, &buf); err != nil {
					t.Fatalf("Write: %v", err)
				}

				var s *Snapshot
				var err error
				if format == "json" {
					s, err = ReadJSON(&buf)
				} else {
					s, err = ReadYAML(&buf)
				}
				if err != nil {
					t.Fatalf("read: %v", err)
				}

				got := rebuild(t, s)
				if got.ID() != pkg.ID() || got.Info() != pkg.Info() {
					t.Errorf("metadata = %s %+v, want %s %+v", got.ID(), got.Info(), pkg.ID(), pkg.Info())
				}
				if !reflect.DeepEqual(got.Graph().Nodes(), pkg.Graph().Nodes()) {
					t.Errorf("nodes differ after round trip\n got %+v\nwant %+v", got.Graph().Nodes(), pkg.Graph().Nodes())
				}
				if !reflect.DeepEqual(got.Report().BackEdges, pkg.Report().BackEdges) {
					t.Errorf("back edges = %v, want %v", got.Report().BackEdges, pkg.Report().BackEdges)
				}
			})
		}
	}
}

func TestFromPackageDevice(t *testing.T) {
	s := FromPackage(loadForest(t, true))

	if s.Version != Version || s.ID != testsupport.ForestPackageID || s.Format != story.FormatDevice {
		t.Fatalf("header = %d %s %s", s.Version, s.ID, s.Format)
	}
	if len(s.Nodes) != 5 || len(s.Assets) != 4 {
		t.Fatalf("nodes=%d assets=%d, want 5 and 4", len(s.Nodes), len(s.Assets))
	}
	if !s.Info.NightMode {
		t.Error("night mode lost")
	}

	choose := s.Nodes[3]
	if choose.Kind != "action" || len(choose.Transitions) != 2 {
		t.Fatalf("choose = %+v", choose)
	}
	if tr := choose.Transitions[1]; tr.Condition != "option" || tr.Option != 2 || tr.Options != 2 || tr.Target != 2 {
		t.Errorf("second option = %+v", tr)
	}
	if a := s.Assets[*s.Nodes[2].Image]; a.Kind != "image" || !a.Obfuscated || a.Locator == "" {
		t.Errorf("owl image = %+v", a)
	}
}

func TestSharedAssetRows(t *testing.T) {
	shared := story.NewStudioAsset(story.AssetAudio, "loop.mp3")
	raw := &story.RawPackage{
		PackageFormat: story.FormatStudio,
		PackageID:     "SHARED",
		RawNodes: []story.RawNode{
			{ID: "a", Audio: shared, Controls: story.Controls{Ok: true}, Slots: []story.Slot{
				story.Use(story.Transition{Condition: story.OkPressed(), Target: 1, Entry: story.NoEntry}),
			}},
			{ID: "b", Audio: shared, Controls: story.Controls{Ok: true}, Slots: []story.Slot{
				story.Use(story.Transition{Condition: story.OkPressed(), Target: 0, Entry: story.NoEntry}),
			}},
		},
	}
	g, err := story.Build(raw)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pkg := story.NewPackage(story.PackageParams{ID: "SHARED", Format: story.FormatStudio, Graph: g})

	s := FromPackage(pkg)
	if len(s.Assets) != 1 || *s.Nodes[0].Audio != 0 || *s.Nodes[1].Audio != 0 {
		t.Fatalf("assets=%d rows=%d,%d; want one shared row", len(s.Assets), *s.Nodes[0].Audio, *s.Nodes[1].Audio)
	}

	back, err := s.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if back.RawNodes[0].Audio != back.RawNodes[1].Audio {
		t.Error("shared row did not come back as one *AssetRef")
	}
}

func TestRawErrors(t *testing.T) {
	row := 5
	tests := []struct {
		name string
		s    Snapshot
		want string
	}{
		{"version", Snapshot{Version: 9, Format: story.FormatStudio}, "unsupported snapshot version"},
		{"format", Snapshot{Version: Version, Format: "tape"}, "unknown format"},
		{"node kind", Snapshot{Version: Version, Format: story.FormatStudio, Nodes: []node{{Kind: "menu"}}}, "unknown kind"},
		{"asset kind", Snapshot{Version: Version, Format: story.FormatStudio, Assets: []asset{{Kind: "video"}}}, "unknown kind"},
		{"asset row", Snapshot{Version: Version, Format: story.FormatStudio, Nodes: []node{{Kind: "stage", Image: &row}}}, "out of range"},
		{"condition", Snapshot{Version: Version, Format: story.FormatStudio, Nodes: []node{{
			Kind:        "stage",
			Transitions: []transition{{Condition: "shake"}},
		}}}, "unknown condition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Raw()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Raw() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	pkg := loadForest(t, false)
	dir := t.TempDir()

	for _, name := range []string{"forest.json", "forest.yaml"} {
		path := filepath.Join(dir, name)
		if err := Export(pkg, path); err != nil {
			t.Fatalf("Export(%s): %v", name, err)
		}
		s, err := Import(path)
		if err != nil {
			t.Fatalf("Import(%s): %v", name, err)
		}
		if s.ID != pkg.ID() || len(s.Nodes) != pkg.Graph().Len() {
			t.Errorf("%s: id=%s nodes=%d", name, s.ID, len(s.Nodes))
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(loadForest(t, false), "xml", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown snapshot format") {
		t.Errorf("Write(xml) error = %v", err)
	}
}
