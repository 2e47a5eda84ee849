// Package storage defines the read-only file access story packages are
// loaded through.
//
// Parsers and resolvers never touch the operating system directly. They
// receive an [FS] rooted at the package directory and address files with
// slash-separated relative names such as "ni" or "assets/cover.png".
// [Dir] is the implementation backed by the local filesystem.
package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FS is a read-only view of one package directory.
//
// Missing files produce errors that satisfy errors.Is(err, fs.ErrNotExist).
type FS interface {
	// Open opens a file for streaming reads.
	Open(name string) (fs.File, error)
	// ReadFile returns the whole content of a file.
	ReadFile(name string) ([]byte, error)
	// ReadAt returns up to n bytes starting at off. A range starting at or
	// past the end of the file returns io.EOF; a range that runs past the
	// end returns the readable prefix and io.ErrUnexpectedEOF.
	ReadAt(name string, off, n int64) ([]byte, error)
	// Stat describes a file.
	Stat(name string) (fs.FileInfo, error)
	// ReadDir lists a directory, sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
}

// DirFS is an FS rooted at a directory on the local filesystem.
type DirFS struct {
	root string
}

// Dir returns an FS rooted at root.
func Dir(root string) *DirFS {
	return &DirFS{root: root}
}

// Root returns the directory the FS is rooted at.
func (d *DirFS) Root() string { return d.root }

func (d *DirFS) path(op, name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(d.root, filepath.FromSlash(name)), nil
}

// Open implements FS.
func (d *DirFS) Open(name string) (fs.File, error) {
	p, err := d.path("open", name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// ReadFile implements FS.
func (d *DirFS) ReadFile(name string) ([]byte, error) {
	p, err := d.path("read", name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// ReadAt implements FS.
func (d *DirFS) ReadAt(name string, off, n int64) ([]byte, error) {
	p, err := d.path("readat", name)
	if err != nil {
		return nil, err
	}
	if off < 0 || n < 0 {
		return nil, &fs.PathError{Op: "readat", Path: name, Err: fs.ErrInvalid}
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Lengths come from package metadata; never allocate past the file.
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if n > 0 && off >= size {
		return nil, io.EOF
	}
	want := min(n, max(size-off, 0))

	buf := make([]byte, want)
	got, err := f.ReadAt(buf, off)
	switch {
	case err != nil && !errors.Is(err, io.EOF):
		return nil, err
	case got == 0 && n > 0:
		return nil, io.EOF
	case int64(got) < n:
		return buf[:got], io.ErrUnexpectedEOF
	}
	return buf, nil
}

// Stat implements FS.
func (d *DirFS) Stat(name string) (fs.FileInfo, error) {
	p, err := d.path("stat", name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// ReadDir implements FS.
func (d *DirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := d.path("readdir", name)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(p)
}

// Exists reports whether name exists in fsys.
func Exists(fsys FS, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// IsNotExist reports whether err means a file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
