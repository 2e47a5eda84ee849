package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/storybox/internal/testsupport"
	"github.com/matzehuels/storybox/pkg/errors"
)

type env struct {
	config  string
	library string
	cache   string
}

// newEnv writes a library holding the forest story in both formats and a
// config file pointing at it.
func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		config:  filepath.Join(dir, "config.toml"),
		library: filepath.Join(dir, "library"),
		cache:   filepath.Join(dir, "cache"),
	}
	testsupport.WriteForestDevice(t, e.library)
	testsupport.WriteStudio(t, filepath.Join(e.library, "STUDIO01"), testsupport.ForestStudio(), testsupport.ForestAssets())

	cfg := fmt.Sprintf(`[library]
dir = %q

[keys.packs]
%s = %q

[cache]
backend = "file"
dir = %q
`, e.library, testsupport.ForestPackageID, hex.EncodeToString(testsupport.ForestPackKey), e.cache)
	if err := os.WriteFile(e.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) pkg(id string) string { return filepath.Join(e.library, id) }

func TestInspectJSON(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "inspect", e.pkg(testsupport.ForestPackageID), "-o", "json")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var snap struct {
		ID     string `json:"id"`
		Format string `json:"format"`
		Nodes  []any  `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if snap.ID != testsupport.ForestPackageID || snap.Format != "device" || len(snap.Nodes) != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestInspectYAML(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "inspect", e.pkg("STUDIO01"), "-o", "yaml")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "id: STUDIO01") || !strings.Contains(out, "format: studio") {
		t.Errorf("yaml output:\n%s", out)
	}
}

func TestInspectUnknownOutput(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "inspect", e.pkg("STUDIO01"), "-o", "xml"); err == nil {
		t.Error("expected an error for -o xml")
	}
}

func TestValidate(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "validate", e.pkg(testsupport.ForestPackageID), e.pkg("STUDIO01")); err != nil {
		t.Errorf("validate good packages: %v", err)
	}

	broken := filepath.Join(t.TempDir(), "BROKEN")
	testsupport.WriteFile(t, broken, "readme.txt", []byte("nothing"))
	_, err := e.run(t, "validate", e.pkg("STUDIO01"), broken)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 packages failed") {
		t.Errorf("validate with a broken package: %v", err)
	}
}

func TestAsset(t *testing.T) {
	e := newEnv(t)
	want := testsupport.ForestAssets()["owl.png"]

	out, err := e.run(t, "asset", e.pkg(testsupport.ForestPackageID), "2", "image")
	if err != nil {
		t.Fatalf("asset to stdout: %v", err)
	}
	if out != string(want) {
		t.Error("stdout asset differs")
	}

	file := filepath.Join(t.TempDir(), "owl.png")
	if _, err := e.run(t, "asset", e.pkg("STUDIO01"), "owl", "image", "-o", file); err != nil {
		t.Fatalf("asset by id: %v", err)
	}
	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("file asset differs")
	}

	entries, _ := os.ReadDir(e.cache)
	if len(entries) == 0 {
		t.Error("asset cache stayed empty")
	}
}

func TestAssetErrors(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"asset", e.pkg("STUDIO01"), "0", "video"}, errors.ErrCodeInvalidInput},
		{[]string{"asset", e.pkg("STUDIO01"), "nobody", "image"}, errors.ErrCodeNotFound},
		{[]string{"asset", e.pkg("STUDIO01"), "3", "audio"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		_, err := e.run(t, tt.args...)
		if !errors.Is(err, tt.code) {
			t.Errorf("%v: err = %v, want %s", tt.args[2:], err, tt.code)
		}
	}
}

func TestGraphDOT(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "graph", e.pkg("STUDIO01"))
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.HasPrefix(out, `digraph "STUDIO01" {`) {
		t.Errorf("graph output = %.80s", out)
	}
	if _, err := e.run(t, "graph", e.pkg("STUDIO01"), "-f", "gif"); err == nil {
		t.Error("expected an error for -f gif")
	}
}

func TestCachePath(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != e.cache {
		t.Errorf("cache path = %q, want %q", out, e.cache)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	e := &env{config: filepath.Join(dir, "nested", "config.toml")}

	if _, err := e.run(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(e.config)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[library]") {
		t.Errorf("sample config = %q", data)
	}

	if _, err := e.run(t, "config", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
	if _, err := e.run(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	out, err := e.run(t, "config", "path")
	if err != nil || strings.TrimSpace(out) != e.config {
		t.Errorf("config path = %q, %v", out, err)
	}
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	e := &env{config: filepath.Join(dir, "config.toml")}
	if err := os.WriteFile(e.config, []byte("[cache]\nbackend = \"floppy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "cache", "path"); err == nil {
		t.Error("expected a config validation error")
	}
}

func TestCompletion(t *testing.T) {
	e := newEnv(t)
	for _, shell := range []string{"bash", "fish", "powershell", "zsh"} {
		out, err := e.run(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, "storybox") {
			t.Errorf("completion %s does not mention the command name", shell)
		}
	}
	if _, err := e.run(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}
