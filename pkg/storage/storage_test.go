package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirReadAt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pk", []byte("0123456789"))
	fsys := Dir(dir)

	tests := []struct {
		name    string
		off, n  int64
		want    string
		wantErr error
	}{
		{"inside", 2, 3, "234", nil},
		{"whole", 0, 10, "0123456789", nil},
		{"short", 8, 5, "89", io.ErrUnexpectedEOF},
		{"past end", 10, 4, "", io.EOF},
		{"empty", 3, 0, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fsys.ReadAt("pk", tt.off, tt.n)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("data = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirReadAtHugeLength(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pk", []byte("abcd"))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	got, err := Dir(dir).ReadAt("pk", 0, 1<<32-1)
	runtime.ReadMemStats(&after)

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
	if string(got) != "abcd" {
		t.Errorf("data = %q, want %q", got, "abcd")
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 1<<20 {
		t.Errorf("read allocated %d bytes for a 4-byte file", grew)
	}
}

func TestDirMissing(t *testing.T) {
	fsys := Dir(t.TempDir())
	if _, err := fsys.ReadFile("story.json"); !IsNotExist(err) {
		t.Errorf("ReadFile err = %v, want not-exist", err)
	}
	if _, err := fsys.ReadAt("pk", 0, 1); !IsNotExist(err) {
		t.Errorf("ReadAt err = %v, want not-exist", err)
	}
	if Exists(fsys, "ni") {
		t.Error("Exists(ni) = true")
	}
}

func TestDirRejectsEscapes(t *testing.T) {
	fsys := Dir(t.TempDir())
	for _, name := range []string{"../secret", "/etc/passwd", "a/../../b"} {
		if _, err := fsys.ReadFile(name); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("ReadFile(%q) err = %v, want ErrInvalid", name, err)
		}
	}
}

func TestDirReadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets/b.png", nil)
	writeFile(t, dir, "assets/a.png", nil)
	entries, err := Dir(dir).ReadDir("assets")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name() != "a.png" {
		t.Errorf("entries = %v", entries)
	}
}
