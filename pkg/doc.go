// Package pkg provides the libraries behind storybox, a reader for
// interactive story packages.
//
// # Overview
//
// A story package is a directory holding a graph of stages (media shown
// to the listener) and actions (choice points), plus the images and sounds
// the stages play. Two on-disk layouts exist: the binary device layout
// written to story boxes, and the JSON studio layout used by authoring
// tools. Both are read into the same story graph.
//
// # Architecture
//
// The data flow through storybox:
//
//	package directory
//	         ↓
//	    [formats] (detect layout: device first, then studio)
//	         ↓
//	    [formats/device] or [formats/studio] (decode into a raw graph)
//	         ↓
//	    [story] (unify into an immutable graph)
//	         ↓
//	    [story/validate] (structural checks, warnings, back edges)
//	         ↓
//	    [story.Package] → [resolve] (asset bytes) / [render/nodelink] / [storyio]
//
// [loader] runs the first four steps and names the stage a failure
// happened in.
//
// # Quick Start
//
//	ld := loader.New(loader.Options{Keys: provider})
//	pkg, err := ld.Load(ctx, "/media/storybox/.content/2643948D")
//	if err != nil {
//	    return err
//	}
//
//	src := resolve.New(pkg, storage.Dir(pkg.Path()))
//	img, err := resolve.Asset(ctx, src, pkg.Root(), story.AssetImage)
//
//	w := story.NewWalker(pkg.Graph())
//	_ = w.Ok()
//	fmt.Println(w.Stage().Name)
//
// # Main Packages
//
// ## Formats and Graph
//
// [cipher] - The self-inverse block cipher device packages obfuscate
// their indexes and assets with.
//
// [formats] - Parser interface and detection order. [formats/device]
// reads the ni/pi/pk layout; [formats/studio] reads story.json.
//
// [story] - The unified graph, nodes, transitions, the pack index and the
// [story.Walker] state machine.
//
// [story/validate] - Graph validation: dangling transitions, dangling
// asset references, reachability and back edges.
//
// [resolve] - Asset resolution with digest checks, plus a caching
// decorator.
//
// ## Infrastructure
//
// [storage] - Read-only file access to a package directory.
//
// [keys] - Pack key provisioning.
//
// [cache] - Byte caches for resolved assets and snapshots: null, file
// (zstd, flock) and Redis.
//
// [catalog] - Library scanning and catalog stores: memory, SQLite and
// MongoDB.
//
// [config] - TOML configuration.
//
// [observability] - Load, resolve and cache hooks.
//
// [errors] - Coded errors shared by every package.
//
// ## Output
//
// [render/nodelink] - Graphviz diagrams of a story graph. [render] converts
// SVG to PDF and PNG.
//
// [storyio] - JSON and YAML snapshots.
//
// # Testing
//
//	go test ./...                     # All tests
//	go test ./pkg/formats/...         # Parsers only
//	go test -run Example ./pkg/...    # Examples only
//
// Test fixtures are written on the fly by internal/testsupport; the same
// forest story exists in both layouts.
//
// [cipher]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/cipher
// [formats]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/formats
// [formats/device]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/formats/device
// [formats/studio]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/formats/studio
// [story]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/story
// [story.Package]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/story#Package
// [story.Walker]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/story#Walker
// [story/validate]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/story/validate
// [loader]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/loader
// [resolve]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/resolve
// [storage]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/storage
// [keys]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/keys
// [cache]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/cache
// [catalog]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/catalog
// [config]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/errors
// [render]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/render/nodelink
// [storyio]: https://pkg.go.dev/github.com/matzehuels/storybox/pkg/storyio
package pkg
