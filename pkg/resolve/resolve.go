// Package resolve turns asset references into plain media bytes.
//
// A [Resolver] is bound to one loaded package and the storage it was loaded
// from. Device assets are read from the pack blob, deobfuscated when their
// pack entry says so and checked against the entry digest. Studio assets
// are read from the package's assets directory.
//
// Resolvers hold no mutable state and are safe for concurrent use. Failures
// are returned as *[AssetError], which keeps the coded error reachable:
//
//	data, err := r.Resolve(ctx, node.Image)
//	if errors.Is(err, errors.ErrCodeAssetMissing) { ... }
package resolve

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/storybox/pkg/cipher"
	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/formats/studio"
	"github.com/matzehuels/storybox/pkg/observability"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

// Source resolves the assets of one package.
type Source interface {
	Resolve(ctx context.Context, ref *story.AssetRef) ([]byte, error)
	// Package returns the package the source resolves for.
	Package() *story.Package
}

// AssetError reports a failure to resolve Ref.
type AssetError struct {
	Ref *story.AssetRef
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s asset %s: %v", e.Ref.Kind(), e.Ref.Locator(), e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// Code returns the error code of the underlying failure.
func (e *AssetError) Code() errors.Code { return errors.GetCode(e.Err) }

// Resolver reads assets of a loaded package.
type Resolver struct {
	pkg    *story.Package
	fs     storage.FS
	logger *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger debug output goes to.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Resolver for pkg reading through fsys, which must be the
// storage pkg was loaded from.
func New(pkg *story.Package, fsys storage.FS, opts ...Option) *Resolver {
	r := &Resolver{pkg: pkg, fs: fsys, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Package implements Source.
func (r *Resolver) Package() *story.Package { return r.pkg }

// Resolve returns the plain bytes of ref.
func (r *Resolver) Resolve(ctx context.Context, ref *story.AssetRef) ([]byte, error) {
	if ref == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil asset reference")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch ref.Format() {
	case story.FormatDevice:
		data, err = r.device(ref)
	case story.FormatStudio:
		data, err = r.studio(ref)
	default:
		err = errors.New(errors.ErrCodeUnsupported, "unknown asset format %q", ref.Format())
	}
	if err != nil {
		err = &AssetError{Ref: ref, Err: err}
	}

	observability.Resolve().OnResolve(ctx, r.pkg.ID(), ref.Locator(), len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved asset", "package", r.pkg.ID(), "asset", ref.Locator(), "bytes", len(data))
	return data, nil
}

// Asset resolves the asset of the given kind of node n. A node without
// such an asset yields NOT_FOUND.
func Asset(ctx context.Context, src Source, n story.Node, kind story.AssetKind) ([]byte, error) {
	ref := n.Asset(kind)
	if ref == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "node %d has no %s", n.Index, kind)
	}
	return src.Resolve(ctx, ref)
}

func (r *Resolver) device(ref *story.AssetRef) ([]byte, error) {
	entry, ok := r.pkg.PackIndex().Entry(ref.Index())
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetMissing,
			"pack entry %d outside index of %d", ref.Index(), r.pkg.PackIndex().Len())
	}

	offset, length := int64(entry.Offset), int64(entry.Length)
	data, err := r.fs.ReadAt(device.AssetBlobFile, offset, length)
	switch {
	case err == nil:
	case storage.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeAssetMissing, err, "no %s blob", device.AssetBlobFile)
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return nil, errors.New(errors.ErrCodeAssetCorrupt,
			"blob ends after %d of %d bytes", len(data), length)
	case stderrors.Is(err, io.EOF):
		return nil, errors.New(errors.ErrCodeAssetMissing,
			"offset %d is past the end of %s", offset, device.AssetBlobFile)
	default:
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", device.AssetBlobFile)
	}

	if entry.Flags.Has(story.PackObfuscated) {
		if entry.Key == nil {
			return nil, errors.New(errors.ErrCodeKey, "no key for pack entry %d", ref.Index())
		}
		if entry.Flags.Has(story.PackHeaderOnly) {
			data, err = cipher.DeobfuscateHeader(data, entry.Key)
		} else {
			data, err = cipher.Deobfuscate(data, entry.Key)
		}
		if err != nil {
			return nil, err
		}
	}

	if entry.HasDigest() {
		if sum := device.Digest(data); !bytes.Equal(sum[:], entry.Digest[:]) {
			return nil, errors.New(errors.ErrCodeAssetCorrupt,
				"digest %x does not match pack entry %x", sum, entry.Digest)
		}
	}
	return data, nil
}

func (r *Resolver) studio(ref *story.AssetRef) ([]byte, error) {
	path := ref.Path()
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	var lastErr error
	for _, name := range spellings(path) {
		data, err := r.fs.ReadFile(studio.AssetDir + "/" + name)
		if err == nil {
			return data, nil
		}
		if !storage.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
		}
		lastErr = err
	}
	return nil, errors.Wrap(errors.ErrCodeAssetMissing, lastErr, "%s is not in the package", path)
}

// spellings returns path followed by its distinct NFC and NFD forms.
// Packages edited on different systems disagree on accent composition.
func spellings(path string) []string {
	out := []string{path}
	for _, f := range []norm.Form{norm.NFC, norm.NFD} {
		alt := f.String(path)
		if alt != out[0] && (len(out) < 2 || alt != out[1]) {
			out = append(out, alt)
		}
	}
	return out
}

var _ Source = (*Resolver)(nil)
