package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLoadHooks{}
	l.OnLoadStart(ctx, "/stories/forest")
	l.OnLoadComplete(ctx, "/stories/forest", "device", 5, time.Second, nil)

	NoopResolveHooks{}.OnResolve(ctx, "FOREST01", "pk[0]@0+720", 720, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "asset")
	c.OnCacheMiss(ctx, "asset")
	c.OnCacheSet(ctx, "asset", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	load := &testLoadHooks{}
	SetLoadHooks(load)
	if Load() != load {
		t.Error("SetLoadHooks should set custom hooks")
	}
	resolve := &testResolveHooks{}
	SetResolveHooks(resolve)
	if Resolve() != resolve {
		t.Error("SetResolveHooks should set custom hooks")
	}
	cache := &testCacheHooks{}
	SetCacheHooks(cache)
	if Cache() != cache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Reset() should restore NoopLoadHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testLoadHooks{}
	SetLoadHooks(custom)
	SetLoadHooks(nil)
	if Load() != custom {
		t.Error("SetLoadHooks(nil) should keep the registered hooks")
	}
	SetResolveHooks(nil)
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("SetResolveHooks(nil) should keep the default")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &testLoadHooks{}
	SetLoadHooks(h)
	Load().OnLoadStart(context.Background(), "a")
	Load().OnLoadComplete(context.Background(), "a", "studio", 3, 0, nil)
	if h.starts != 1 || h.completes != 1 {
		t.Errorf("starts=%d completes=%d, want 1 and 1", h.starts, h.completes)
	}
}

type testLoadHooks struct{ starts, completes int }

func (h *testLoadHooks) OnLoadStart(context.Context, string) { h.starts++ }
func (h *testLoadHooks) OnLoadComplete(context.Context, string, string, int, time.Duration, error) {
	h.completes++
}

type testResolveHooks struct{}

func (*testResolveHooks) OnResolve(context.Context, string, string, int, time.Duration, error) {}

type testCacheHooks struct{}

func (*testCacheHooks) OnCacheHit(context.Context, string)      {}
func (*testCacheHooks) OnCacheMiss(context.Context, string)     {}
func (*testCacheHooks) OnCacheSet(context.Context, string, int) {}
