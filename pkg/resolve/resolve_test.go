package resolve_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/storybox/internal/testsupport"
	"github.com/matzehuels/storybox/pkg/cache"
	"github.com/matzehuels/storybox/pkg/errors"
	"github.com/matzehuels/storybox/pkg/formats/device"
	"github.com/matzehuels/storybox/pkg/loader"
	"github.com/matzehuels/storybox/pkg/resolve"
	"github.com/matzehuels/storybox/pkg/storage"
	"github.com/matzehuels/storybox/pkg/story"
)

func load(t *testing.T, dir string) *resolve.Resolver {
	t.Helper()
	pkg, err := loader.New(loader.Options{Keys: testsupport.ForestKeys(t)}).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return resolve.New(pkg, storage.Dir(dir))
}

// single is a two-node device package whose cover stage shows asset 0.
func single(asset testsupport.DeviceAsset) testsupport.DevicePackage {
	return testsupport.DevicePackage{
		Nodes: []testsupport.DeviceNode{
			{
				Flags: device.FlagOk | device.FlagEntry,
				Image: 0, Audio: device.Unused,
				Slots: []device.RecordSlot{testsupport.Slot(story.CondOk, 1, 0, 0)},
			},
			{
				Action: true,
				Image:  device.Unused, Audio: device.Unused,
				Slots: []device.RecordSlot{testsupport.Slot(story.CondOption, 0, 0, 1)},
			},
		},
		Assets: []testsupport.DeviceAsset{asset},
	}
}

// resolveSingle loads p under id and resolves the cover image. Only
// testsupport.ForestPackageID has a pack key.
func resolveSingle(t *testing.T, id string, p testsupport.DevicePackage) ([]byte, error) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), id)
	testsupport.WriteDevice(t, dir, p)
	r := load(t, dir)
	return resolve.Asset(context.Background(), r, r.Package().Root(), story.AssetImage)
}

func TestResolveForest(t *testing.T) {
	ctx := context.Background()
	want := testsupport.ForestAssets()

	for name, write := range map[string]func(testing.TB, string) string{
		"device": testsupport.WriteForestDevice,
		"studio": testsupport.WriteForestStudio,
	} {
		t.Run(name, func(t *testing.T) {
			r := load(t, write(t, t.TempDir()))
			cover := r.Package().Root()

			got, err := resolve.Asset(ctx, r, cover, story.AssetImage)
			if err != nil {
				t.Fatalf("image: %v", err)
			}
			if !bytes.Equal(got, want["cover.png"]) {
				t.Error("cover image bytes differ")
			}
			got, err = resolve.Asset(ctx, r, cover, story.AssetAudio)
			if err != nil {
				t.Fatalf("audio: %v", err)
			}
			if !bytes.Equal(got, want["cover.mp3"]) {
				t.Error("cover audio bytes differ")
			}
		})
	}
}

func TestResolveDevice(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 64)

	tests := []struct {
		name  string
		asset testsupport.DeviceAsset
	}{
		{"plain", testsupport.DeviceAsset{Data: data}},
		{"plain with digest", testsupport.DeviceAsset{Data: data, Digest: true}},
		{"obfuscated", testsupport.DeviceAsset{Data: data, Key: testsupport.ForestAssetKey, Digest: true}},
		{"header only", testsupport.DeviceAsset{Data: data, Key: testsupport.ForestAssetKey, HeaderOnly: true, Digest: true}},
		{"short header only", testsupport.DeviceAsset{Data: data[:100], Key: testsupport.ForestAssetKey, HeaderOnly: true}},
		{"sealed entry", testsupport.DeviceAsset{Data: data, Key: testsupport.ForestAssetKey, Seal: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := single(tt.asset)
			p.PackKey = testsupport.ForestPackKey
			got, err := resolveSingle(t, testsupport.ForestPackageID, p)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !bytes.Equal(got, tt.asset.Data) {
				t.Errorf("Resolve returned %d bytes differing from the original %d", len(got), len(tt.asset.Data))
			}
		})
	}
}

func TestResolveDeviceReadsRangeFromPackIndex(t *testing.T) {
	r := load(t, testsupport.WriteForestDevice(t, t.TempDir()))
	cover := r.Package().Root().Image

	forged := story.NewDeviceAsset(story.AssetImage, cover.Index(), story.PackEntry{Offset: 1 << 20, Length: 3})
	got, err := r.Resolve(context.Background(), forged)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !bytes.Equal(got, testsupport.ForestAssets()["cover.png"]) {
		t.Error("resolved bytes do not come from the pack index entry")
	}
}

func TestResolveHeaderOnlyLeavesTailPlain(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 600)
	dir := filepath.Join(t.TempDir(), "SINGLE")
	testsupport.WriteDevice(t, dir, single(testsupport.DeviceAsset{
		Data: data, Key: testsupport.ForestAssetKey, HeaderOnly: true,
	}))

	blob, err := os.ReadFile(filepath.Join(dir, device.AssetBlobFile))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(blob[:512], data[:512]) {
		t.Error("first 512 bytes should be obfuscated")
	}
	if !bytes.Equal(blob[512:], data[512:]) {
		t.Error("bytes after 512 should be stored plain")
	}
}

func TestResolveDeviceErrors(t *testing.T) {
	data := []byte("a short asset")

	tests := []struct {
		name string
		id   string
		pkg  func() testsupport.DevicePackage
		want errors.Code
	}{
		{
			name: "missing blob",
			pkg: func() testsupport.DevicePackage {
				p := single(testsupport.DeviceAsset{Data: data})
				p.OmitBlob = true
				return p
			},
			want: errors.ErrCodeAssetMissing,
		},
		{
			name: "offset past end",
			pkg: func() testsupport.DevicePackage {
				return single(testsupport.DeviceAsset{Data: data, Offset: 4096})
			},
			want: errors.ErrCodeAssetMissing,
		},
		{
			name: "short read",
			pkg: func() testsupport.DevicePackage {
				return single(testsupport.DeviceAsset{Data: data, Length: uint32(len(data) + 8)})
			},
			want: errors.ErrCodeAssetCorrupt,
		},
		{
			name: "length far beyond blob",
			pkg: func() testsupport.DevicePackage {
				return single(testsupport.DeviceAsset{Data: data, Length: 0xFFFFFFFF})
			},
			want: errors.ErrCodeAssetCorrupt,
		},
		{
			name: "digest mismatch",
			pkg: func() testsupport.DevicePackage {
				return single(testsupport.DeviceAsset{Data: data, Digest: true, Length: uint32(len(data) - 1)})
			},
			want: errors.ErrCodeAssetCorrupt,
		},
		{
			name: "shared key unavailable",
			id:   "NOKEY",
			pkg: func() testsupport.DevicePackage {
				p := single(testsupport.DeviceAsset{Data: data, SharedKey: true})
				p.PackKey = []byte("someone-elses-k!")
				return p
			},
			want: errors.ErrCodeKey,
		},
		{
			name: "wrong shared key",
			pkg: func() testsupport.DevicePackage {
				p := single(testsupport.DeviceAsset{Data: data, SharedKey: true, Digest: true})
				p.PackKey = []byte("someone-elses-k!")
				return p
			},
			want: errors.ErrCodeAssetCorrupt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.id
			if id == "" {
				id = testsupport.ForestPackageID
			}
			_, err := resolveSingle(t, id, tt.pkg())
			var ae *resolve.AssetError
			if !stderrors.As(err, &ae) {
				t.Fatalf("err = %v, want *AssetError", err)
			}
			if ae.Code() != tt.want {
				t.Errorf("code = %s, want %s (%v)", ae.Code(), tt.want, err)
			}
			if ae.Ref == nil || ae.Ref.Index() != 0 {
				t.Errorf("AssetError.Ref = %+v, want pack entry 0", ae.Ref)
			}
		})
	}
}

func TestResolveStudio(t *testing.T) {
	ctx := context.Background()
	dir := testsupport.WriteForestStudio(t, t.TempDir())
	if err := os.Remove(filepath.Join(dir, "assets", "owl.png")); err != nil {
		t.Fatal(err)
	}
	r := load(t, dir)

	owl, _ := r.Package().Graph().Node(2)
	_, err := resolve.Asset(ctx, r, owl, story.AssetImage)
	if !errors.Is(err, errors.ErrCodeAssetMissing) {
		t.Errorf("err = %v, want ASSET_MISSING", err)
	}

	_, err = resolve.Asset(ctx, r, owl, story.AssetAudio)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND for a node without audio", err)
	}

	if _, err := r.Resolve(ctx, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil ref: err = %v, want INVALID_INPUT", err)
	}
}

func TestResolveStudioUnicodeSpelling(t *testing.T) {
	name := "for\u00eat.png"
	doc := testsupport.ForestStudio()
	doc.StageNodes[2].Image = testsupport.Ptr(name)

	assets := testsupport.ForestAssets()
	delete(assets, "owl.png")
	assets[norm.NFD.String(name)] = []byte("decomposed on disk")

	dir := filepath.Join(t.TempDir(), "FOREST")
	testsupport.WriteStudio(t, dir, doc, assets)
	r := load(t, dir)

	owl, _ := r.Package().Graph().Node(2)
	got, err := resolve.Asset(context.Background(), r, owl, story.AssetImage)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(got) != "decomposed on disk" {
		t.Errorf("Resolve = %q", got)
	}
}

type countingSource struct {
	resolve.Source
	calls int
}

func (c *countingSource) Resolve(ctx context.Context, ref *story.AssetRef) ([]byte, error) {
	c.calls++
	return c.Source.Resolve(ctx, ref)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, stderrors.New("cache down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return stderrors.New("cache down")
}
func (brokenCache) Delete(context.Context, string) error { return nil }
func (brokenCache) Close() error                         { return nil }

func TestCaching(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{Source: load(t, testsupport.WriteForestDevice(t, t.TempDir()))}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := resolve.NewCaching(src, fc, time.Hour)
	cover := c.Package().Root()

	for range 3 {
		got, err := c.Resolve(ctx, cover.Image)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if !bytes.Equal(got, testsupport.ForestAssets()["cover.png"]) {
			t.Fatal("cached bytes differ")
		}
	}
	if src.calls != 1 {
		t.Errorf("source resolved %d times, want 1", src.calls)
	}
}

func TestCachingSurvivesBrokenCache(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{Source: load(t, testsupport.WriteForestStudio(t, t.TempDir()))}
	c := resolve.NewCaching(src, brokenCache{}, 0)
	cover := c.Package().Root()

	for range 2 {
		if _, err := c.Resolve(ctx, cover.Audio); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if src.calls != 2 {
		t.Errorf("source resolved %d times, want 2", src.calls)
	}
}

func TestCachingPassesThroughFailures(t *testing.T) {
	ctx := context.Background()
	dir := testsupport.WriteForestStudio(t, t.TempDir())
	src := &countingSource{Source: load(t, dir)}
	c := resolve.NewCaching(src, cache.NewNullCache(), 0)

	if err := os.Remove(filepath.Join(dir, "assets", "fox.mp3")); err != nil {
		t.Fatal(err)
	}
	fox, _ := c.Package().Graph().Node(1)
	if _, err := c.Resolve(ctx, fox.Audio); !errors.Is(err, errors.ErrCodeAssetMissing) {
		t.Errorf("err = %v, want ASSET_MISSING", err)
	}
}
