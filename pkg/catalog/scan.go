package catalog

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/loader"
	"github.com/matzehuels/storybox/pkg/storage"
)

// Scanner loads the packages of a library directory.
type Scanner struct {
	Loader *loader.Loader
	// Exclude lists doublestar patterns matched against package directory
	// names relative to the library directory.
	Exclude []string
	// Workers bounds concurrent loads. Zero means 4.
	Workers int
	Logger  *log.Logger
	// Progress, if set, is called after each package load with the number
	// of packages done and queued so far. Calls are serialized.
	Progress func(done, total int)
}

// Scan loads every package directory directly below dir. Packages that fail
// to load are reported as entries with Error set; they do not fail the
// scan. Factory-disabled packages are skipped.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]Entry, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	l := s.Loader
	if l == nil {
		l = loader.New(loader.Options{Logger: logger})
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "library %s", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read library %s", dir)
	}

	var (
		mu      sync.Mutex
		entries []Entry
		done    int
		total   int
	)
	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, d := range dirents {
		name := d.Name()
		if !d.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if s.excluded(name) {
			logger.Debug("excluded package", "name", name)
			continue
		}
		path := filepath.Join(dir, name)
		if storage.Exists(storage.Dir(path), device.FactoryDisabledFile) {
			logger.Debug("skipping factory-disabled package", "name", name)
			continue
		}

		mu.Lock()
		total++
		mu.Unlock()
		g.Go(func() error {
			e, ok := load(ctx, l, logger, path)
			mu.Lock()
			defer mu.Unlock()
			done++
			if ok {
				entries = append(entries, e)
			}
			if s.Progress != nil {
				s.Progress(done, total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return entries, nil
}

// load returns the entry for path. The second result is false for packages
// that turn out to be factory-disabled.
func load(ctx context.Context, l *loader.Loader, logger *log.Logger, path string) (Entry, bool) {
	pkg, err := l.Load(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return Entry{}, false
		}
		logger.Warn("package failed to load", "path", path, "code", errors.GetCode(err), "err", errors.UserMessage(err))
		return Entry{
			ID:        filepath.Base(path),
			Path:      path,
			Error:     err.Error(),
			ScannedAt: time.Now().UTC(),
		}, true
	}
	if pkg.Info().FactoryDisabled {
		logger.Debug("skipping factory-disabled package", "path", path)
		return Entry{}, false
	}
	return EntryFor(pkg), true
}

func (s *Scanner) excluded(name string) bool {
	for _, p := range s.Exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
