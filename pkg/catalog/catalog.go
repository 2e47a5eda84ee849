// Package catalog keeps track of the story packages in a library directory.
//
// A [Scanner] loads every package below a library directory and produces
// one [Entry] per package, including the ones that failed to load. Entries
// are kept in a [Store]:
//
//   - [MemoryStore]: process-local, the default
//   - [SQLiteStore]: a single-file database for the CLI and small servers
//   - [MongoStore]: shared by several `storybox serve` instances
package catalog

import (
	"context"
	"time"

	"github.com/matzehuels/storybox/pkg/story"
)

// Entry describes one package of a library.
type Entry struct {
	ID           string    `json:"id" bson:"_id"`
	Path         string    `json:"path" bson:"path"`
	Format       string    `json:"format,omitempty" bson:"format,omitempty"`
	Title        string    `json:"title,omitempty" bson:"title,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	StoryVersion int       `json:"story_version,omitempty" bson:"story_version,omitempty"`
	NightMode    bool      `json:"night_mode" bson:"night_mode"`
	Nodes        int       `json:"nodes" bson:"nodes"`
	Assets       int       `json:"assets" bson:"assets"`
	Warnings     int       `json:"warnings" bson:"warnings"`
	Error        string    `json:"error,omitempty" bson:"error,omitempty"`
	ScannedAt    time.Time `json:"scanned_at" bson:"scanned_at"`
}

// OK reports whether the package loaded.
func (e Entry) OK() bool { return e.Error == "" }

// EntryFor describes a loaded package.
func EntryFor(pkg *story.Package) Entry {
	info := pkg.Info()
	assets := make(map[*story.AssetRef]bool)
	for _, n := range pkg.Graph().Nodes() {
		for _, ref := range []*story.AssetRef{n.Image, n.Audio} {
			if ref != nil {
				assets[ref] = true
			}
		}
	}
	return Entry{
		ID:           pkg.ID(),
		Path:         pkg.Path(),
		Format:       string(pkg.Format()),
		Title:        info.Title,
		Description:  info.Description,
		StoryVersion: info.StoryVersion,
		NightMode:    info.NightMode,
		Nodes:        pkg.Graph().Len(),
		Assets:       len(assets),
		Warnings:     len(pkg.Warnings()),
		ScannedAt:    time.Now().UTC(),
	}
}

// Store persists catalog entries. Implementations are safe for concurrent
// use.
type Store interface {
	// Put inserts or replaces entries by ID.
	Put(ctx context.Context, entries ...Entry) error
	// Get returns the entry with the given ID, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (Entry, error)
	// List returns all entries ordered by ID.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}
