// Package loader turns a package directory into a validated story package.
//
// Loading runs three stages and stops at the first failure:
//
//  1. detection: the device parser is tried first, the studio parser when
//     the device parser answers FORMAT; UNKNOWN_FORMAT when both decline
//  2. parsing: the recognising parser decodes nodes and the graph is built
//  3. validation: the graph is checked for structural problems
//
// A failed load never returns a partial package. The error is a *[LoadError]
// naming the stage; its code stays reachable through errors.GetCode.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats"
	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/formats/studio"
	"github.com/matzehuels/storybox/pkg/keys"
	"github.com/matzehuels/storybox/pkg/observability"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
	"github.com/matzehuels/storybox/pkg/story/validate"
)

// Stage names the step a load failed in.
type Stage string

const (
	StageDetection  Stage = "detection"
	StageParsing    Stage = "parsing"
	StageValidation Stage = "validation"
)

// LoadError reports a failed load.
type LoadError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Options configure a Loader.
type Options struct {
	// Keys supplies pack keys for sealed device indexes.
	Keys keys.Provider
	// Logger receives per-stage debug output. Nil uses log.Default().
	Logger *log.Logger
	// Parsers overrides the detection order. Nil means device, then studio.
	Parsers []formats.Parser
}

// Loader loads story packages. It is safe for concurrent use.
type Loader struct {
	keys    keys.Provider
	logger  *log.Logger
	parsers []formats.Parser
}

// New returns a Loader.
func New(opts Options) *Loader {
	l := &Loader{keys: opts.Keys, logger: opts.Logger, parsers: opts.Parsers}
	if l.keys == nil {
		l.keys = keys.None
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.parsers == nil {
		l.parsers = []formats.Parser{device.Parser{}, studio.Parser{}}
	}
	return l
}

// Load reads the package in directory path. The package identifier is the
// directory name.
func (l *Loader) Load(ctx context.Context, path string) (*story.Package, error) {
	return l.LoadFS(ctx, path, storage.Dir(path))
}

// LoadFS reads the package visible through fsys. path is recorded on the
// package and in errors.
func (l *Loader) LoadFS(ctx context.Context, path string, fsys storage.FS) (pkg *story.Package, err error) {
	start := time.Now()
	observability.Load().OnLoadStart(ctx, path)
	defer func() {
		var format string
		var nodes int
		if pkg != nil {
			format, nodes = string(pkg.Format()), pkg.Graph().Len()
		}
		observability.Load().OnLoadComplete(ctx, path, format, nodes, time.Since(start), err)
	}()

	id := filepath.Base(filepath.Clean(path))
	if err := errors.ValidatePackageID(id); err != nil {
		return nil, &LoadError{Stage: StageDetection, Path: path, Err: err}
	}
	opts := formats.Options{ID: id, Keys: l.keys, Logger: l.logger}

	raw, err := formats.Detect(ctx, fsys, opts, l.parsers...)
	if err != nil {
		stage := StageParsing
		if errors.Is(err, errors.ErrCodeUnknownFormat) {
			stage = StageDetection
		}
		return nil, &LoadError{Stage: stage, Path: path, Err: err}
	}
	l.logger.Debug("detected package", "path", path, "format", raw.Format())

	g, err := story.Build(raw)
	if err != nil {
		return nil, &LoadError{Stage: StageParsing, Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Stage: StageValidation, Path: path, Err: err}
	}

	report, err := validate.Validate(g, raw.Findings())
	if err != nil {
		return nil, &LoadError{Stage: StageValidation, Path: path, Err: err}
	}
	for _, w := range report.Warnings {
		l.logger.Debug("package warning", "path", path, "finding", w)
	}

	params := story.PackageParams{
		ID:     raw.ID(),
		Format: raw.Format(),
		Path:   path,
		Info:   raw.Info(),
		Graph:  g,
		Report: report,
	}
	if ix, ok := raw.(interface{ PackIndex() *story.PackIndex }); ok {
		params.PackIndex = ix.PackIndex()
	}
	pkg = story.NewPackage(params)
	l.logger.Debug("loaded package", "id", pkg.ID(), "format", pkg.Format(),
		"nodes", g.Len(), "reachable", report.Reachable, "warnings", len(report.Warnings))
	return pkg, nil
}
