package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCacheTest(t *testing.T) (*Cache, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb), rdb, mr
}

func TestSetGetDelete(t *testing.T) {
	c, _, _ := newCacheTest(t)
	ctx := context.Background()

	type entry struct {
		Title string `json:"title"`
	}

	if err := c.Set(ctx, "vacancy:v1", entry{Title: "Go engineer"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got entry
	hit, err := c.Get(ctx, "vacancy:v1", &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got (%v, %v)", hit, err)
	}
	if got.Title != "Go engineer" {
		t.Fatalf("unexpected value: %+v", got)
	}

	ok, err := c.Exists(ctx, "vacancy:v1")
	if err != nil || !ok {
		t.Fatalf("expected exists, got (%v, %v)", ok, err)
	}

	if err := c.Delete(ctx, "vacancy:v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hit, err = c.Get(ctx, "vacancy:v1", &got)
	if err != nil || hit {
		t.Fatalf("expected miss after delete, got (%v, %v)", hit, err)
	}
}

func TestGetCorruptEntryIsMiss(t *testing.T) {
	c, rdb, _ := newCacheTest(t)
	ctx := context.Background()

	if err := rdb.Set(ctx, "cache:bad", "{not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var dest map[string]string
	hit, err := c.Get(ctx, "bad", &dest)
	if err != nil || hit {
		t.Fatalf("corrupt entry must read as miss, got (%v, %v)", hit, err)
	}
}

func TestFetchLoadsOnceThenServesFromCache(t *testing.T) {
	c, _, mr := newCacheTest(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"v1", "v2"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, "vacancies:open", time.Minute, load)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(got) != 2 {
			t.Fatalf("fetch %d: unexpected value %v", i, got)
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load, got %d", loads)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := Fetch(ctx, c, "vacancies:open", time.Minute, load); err != nil {
		t.Fatalf("fetch after expiry: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after TTL, got %d loads", loads)
	}
}
