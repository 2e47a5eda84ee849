// Package formats defines how story package formats are recognised and
// decoded.
//
// Each on-disk format has a [Parser] in a sub-package (device, studio).
// [Detect] asks the parsers in order; a parser that answers with a FORMAT
// error ("not mine") hands the package to the next one, any other error is
// final. When every parser declines, Detect fails with UNKNOWN_FORMAT.
package formats

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/keys"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

// Parser decodes one package format into a raw graph.
type Parser interface {
	// Parse decodes the package visible through fsys. It returns a FORMAT
	// error when fsys does not hold a package of this format.
	Parse(ctx context.Context, fsys storage.FS, opts Options) (story.RawGraph, error)
	// Format returns the format this parser handles.
	Format() story.Format
}

// Options are shared by all parsers.
type Options struct {
	// ID is the package identifier, typically the directory name.
	ID string
	// Keys supplies pack keys for obfuscated device indexes. Nil means no
	// keys are available.
	Keys keys.Provider
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
}

// WithDefaults returns a copy of o with nil fields filled in.
func (o Options) WithDefaults() Options {
	if o.Keys == nil {
		o.Keys = keys.None
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Detect decodes fsys with the first parser that recognises it.
func Detect(ctx context.Context, fsys storage.FS, opts Options, parsers ...Parser) (story.RawGraph, error) {
	opts = opts.WithDefaults()
	var declined []error
	for _, p := range parsers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := p.Parse(ctx, fsys, opts)
		if err == nil {
			return raw, nil
		}
		if !errors.IsFormat(err) {
			return nil, err
		}
		opts.Logger.Debug("format declined", "format", p.Format(), "reason", errors.UserMessage(err))
		declined = append(declined, err)
	}
	return nil, errors.Wrap(errors.ErrCodeUnknownFormat, stderrors.Join(declined...),
		"package %q is not in any known format", opts.ID)
}
