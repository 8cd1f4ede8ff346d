package cache

import (
	"context"
	"testing"
	"time"

	"github.com/llamagraph/llamagraph/pkg/types"
)

func openTestCache(t *testing.T, maxEntries int) *Cache {
	t.Helper()
	c, err := Open(types.CacheConfig{Dir: t.TempDir(), MaxEntries: maxEntries})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissing(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "absent")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestSetGet(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	value, ok, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if string(value) != "v1" {
		t.Errorf("expected v1, got %q", value)
	}
}

func TestSetOverwrites(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k1", []byte("new")); err != nil {
		t.Fatal(err)
	}

	value, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(value) != "new" {
		t.Errorf("expected new, got %q", value)
	}

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := openTestCache(t, 2)
	ctx := context.Background()

	mustSet := func(key, value string) {
		if err := c.Set(ctx, key, []byte(value)); err != nil {
			t.Fatal(err)
		}
		// Distinct timestamps keep recency ordering unambiguous.
		time.Sleep(2 * time.Millisecond)
	}

	mustSet("k1", "v1")
	mustSet("k2", "v2")

	// Touch k1 so k2 becomes the eviction candidate.
	if _, _, err := c.Get(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	mustSet("k3", "v3")

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries after prune, got %d", n)
	}

	if _, ok, _ := c.Get(ctx, "k2"); ok {
		t.Error("k2 should have been evicted")
	}
	if _, ok, _ := c.Get(ctx, "k1"); !ok {
		t.Error("k1 should have survived")
	}
	if _, ok, _ := c.Get(ctx, "k3"); !ok {
		t.Error("k3 should have survived")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(types.CacheConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(types.CacheConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(value) != "v1" {
		t.Errorf("expected persisted v1, got ok=%v value=%q", ok, value)
	}
}
