package storyio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/storybox/pkg/story"
)

// WriteJSON encodes a snapshot of pkg as indented JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(pkg *story.Package, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromPackage(pkg)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes a snapshot of pkg as YAML and writes it to w.
func WriteYAML(pkg *story.Package, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromPackage(pkg)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes pkg in the named format, "json" or "yaml".
func Write(pkg *story.Package, format string, w io.Writer) error {
	switch strings.ToLower(format) {
	case "json":
		return WriteJSON(pkg, w)
	case "yaml", "yml":
		return WriteYAML(pkg, w)
	}
	return fmt.Errorf("unknown snapshot format %q (want json or yaml)", format)
}

// Export writes a snapshot of pkg to path, picking the encoding from the
// file extension. Anything other than .yaml or .yml is written as JSON.
func Export(pkg *story.Package, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(pkg, formatOf(path), f)
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
