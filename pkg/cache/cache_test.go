package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := LayoutKeyOpts{Width: 800, Height: 600, Seed: 42, SeedMode: "phyllotaxis", MaxTicks: 600}
	lk := k.LayoutKey("hash123", base)
	if !strings.HasPrefix(lk, "layout:") || len(lk) != len("layout:")+64 {
		t.Errorf("LayoutKey unexpected: %s", lk)
	}
	if k.LayoutKey("hash123", base) != lk {
		t.Error("LayoutKey should be deterministic")
	}

	variants := []LayoutKeyOpts{
		{Width: 1024, Height: 600, Seed: 42, SeedMode: "phyllotaxis", MaxTicks: 600},
		{Width: 800, Height: 600, Seed: 7, SeedMode: "phyllotaxis", MaxTicks: 600},
		{Width: 800, Height: 600, Seed: 42, SeedMode: "noise", MaxTicks: 600},
		{Width: 800, Height: 600, Seed: 42, SeedMode: "phyllotaxis", MaxTicks: 100},
		{Width: 800, Height: 600, Seed: 42, SeedMode: "phyllotaxis", MaxTicks: 600, WeightedLinks: true},
	}
	for _, v := range variants {
		if k.LayoutKey("hash123", v) == lk {
			t.Errorf("LayoutKeyOpts %+v should produce a different key", v)
		}
	}
	if k.LayoutKey("hash456", base) == lk {
		t.Error("Different graph hashes should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak1, "artifact:") {
		t.Errorf("ArtifactKey unexpected: %s", ak1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "giftgraph:test:")

	opts := LayoutKeyOpts{Width: 800, Height: 600}
	key := scoped.LayoutKey("abc", opts)
	if key != "giftgraph:test:"+inner.LayoutKey("abc", opts) {
		t.Errorf("ScopedKeyer LayoutKey unexpected: %s", key)
	}

	art := scoped.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(art, "giftgraph:test:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", art)
	}
}

func TestScopedKeyerDefaults(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if key != "prefix:"+NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}

	// Empty prefix returns the inner keyer
	if _, ok := NewScopedKeyer(nil, "").(DefaultKeyer); !ok {
		t.Error("Empty prefix should return the inner keyer")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get missing = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}
