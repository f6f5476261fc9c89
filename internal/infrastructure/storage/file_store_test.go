package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "geocode.json")

	store, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(ctx, "gaza", []byte(`{"found":true}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	value, ok, err := reopened.Get(ctx, "gaza")
	if err != nil || !ok {
		t.Fatalf("expected persisted entry, ok=%v err=%v", ok, err)
	}
	if string(value) != `{"found":true}` {
		t.Fatalf("unexpected value %s", value)
	}
}

func TestFileStoreFlushKeepsConcurrentWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "articles.json")

	first, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("open first: %v", err)
	}
	second, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("open second: %v", err)
	}

	if err := first.Put(ctx, "a", []byte(`1`)); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := second.Merge(ctx, map[string][]byte{"b": []byte(`2`)}); err != nil {
		t.Fatalf("merge b: %v", err)
	}
	if err := first.Flush(ctx); err != nil {
		t.Fatalf("flush first: %v", err)
	}
	if err := second.Flush(ctx); err != nil {
		t.Fatalf("flush second: %v", err)
	}

	final, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("open final: %v", err)
	}
	snap, err := final.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 2 || string(snap["a"]) != "1" || string(snap["b"]) != "2" {
		t.Fatalf("flush must not erase other writers: %v", snap)
	}

	snap, _ = second.Snapshot(ctx)
	if _, ok := snap["a"]; !ok {
		t.Fatalf("flush should pick up entries written by others")
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("corrupt file must not fail open: %v", err)
	}
	snap, _ := store.Snapshot(ctx)
	if len(snap) != 0 {
		t.Fatalf("expected empty store, got %v", snap)
	}

	if err := store.Put(ctx, "k", []byte(`"v"`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush over corrupt file: %v", err)
	}
}

func TestMemoryStoreNeverWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Put(ctx, "k", []byte(`"v"`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatalf("expected in-memory entry")
	}
}

func TestHashKey(t *testing.T) {
	t.Parallel()

	if HashKey("crisismonitor", "geocode") != "crisismonitor:geocode" {
		t.Fatalf("unexpected hash key")
	}
	if HashKey("", "articles") != "articles" {
		t.Fatalf("empty prefix must not add a separator")
	}
}

func TestFileStoreDeleteSurvivesFlush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "articles.json")

	store, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Merge(ctx, map[string][]byte{"old": []byte(`1`), "new": []byte(`2`)}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if err := store.Delete(ctx, "old", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Fatalf("deleted key still readable")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap, _ := reopened.Snapshot(ctx)
	if _, ok := snap["old"]; ok || len(snap) != 1 {
		t.Fatalf("expected only the surviving key on disk, got %v", snap)
	}

	if err := reopened.Delete(ctx, "new"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := reopened.Put(ctx, "new", []byte(`3`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	final, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("final open: %v", err)
	}
	if value, ok, _ := final.Get(ctx, "new"); !ok || string(value) != "3" {
		t.Fatalf("a put after delete must win, got %s ok=%v", value, ok)
	}
}
