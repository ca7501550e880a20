package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/medikit/core"
)

func newTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	bs, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	return bs
}

func TestBadgerStore_GetSet(t *testing.T) {
	bs := newTestBadger(t)
	ctx := context.Background()

	if _, err := bs.Get(ctx, "missing"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrStoreNotFound", err)
	}

	if err := bs.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := bs.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get() = (%q, %v), want v", got, err)
	}

	if err := bs.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := bs.Get(ctx, "k"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("Get after delete error = %v, want ErrStoreNotFound", err)
	}
}

func TestBadgerStore_Batch(t *testing.T) {
	bs := newTestBadger(t)
	ctx := context.Background()

	kvs := map[string][]byte{
		"excluded:hospitals": []byte(`["h1","h2"]`),
		"user:visited:1":     []byte(`["h3"]`),
	}
	if err := bs.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := bs.BatchGet(ctx, []string{"excluded:hospitals", "user:visited:1", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("BatchGet() returned %d keys, want 2 (missing key skipped)", len(got))
	}
}

func TestBadgerStore_Hash(t *testing.T) {
	bs := newTestBadger(t)
	ctx := context.Background()

	if err := bs.HSet(ctx, "hospital:h1", "rating", []byte("4.2")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if err := bs.HSet(ctx, "hospital:h1", "name", []byte("City X General")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}

	got, err := bs.HGet(ctx, "hospital:h1", "rating")
	if err != nil || string(got) != "4.2" {
		t.Errorf("HGet() = (%q, %v), want 4.2", got, err)
	}

	all, err := bs.HGetAll(ctx, "hospital:h1")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 || string(all["name"]) != "City X General" {
		t.Errorf("HGetAll() = %v, want 2 fields", all)
	}
}

func TestBadgerStore_ZSetNotSupported(t *testing.T) {
	bs := newTestBadger(t)
	ctx := context.Background()

	if err := bs.ZAdd(ctx, "k", 1, "m"); !errors.Is(err, core.ErrStoreNotSupported) {
		t.Errorf("ZAdd() error = %v, want ErrStoreNotSupported", err)
	}
	if _, err := bs.ZRange(ctx, "k", 0, -1); !errors.Is(err, core.ErrStoreNotSupported) {
		t.Errorf("ZRange() error = %v, want ErrStoreNotSupported", err)
	}
	if _, err := bs.ZScore(ctx, "k", "m"); !errors.Is(err, core.ErrStoreNotSupported) {
		t.Errorf("ZScore() error = %v, want ErrStoreNotSupported", err)
	}
}
