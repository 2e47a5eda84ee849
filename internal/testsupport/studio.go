package testsupport

import (
	"encoding/json"
	"path"
	"testing"

	"github.com/matzehuels/storybox/pkg/formats/studio"
)

// WriteStudio writes doc as dir/story.json and every asset under
// dir/assets.
func WriteStudio(t testing.TB, dir string, doc *studio.Document, assets map[string][]byte) {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal story: %v", err)
	}
	WriteFile(t, dir, studio.StoryFile, data)
	for name, content := range assets {
		WriteFile(t, dir, path.Join(studio.AssetDir, name), content)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
