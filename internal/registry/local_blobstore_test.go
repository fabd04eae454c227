package registry

import (
	"context"
	"errors"
	"testing"
)

func TestLocalBlobStore_PutGetDelete(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	ctx := context.Background()
	content := []byte("schema image bytes")

	etag, err := store.Put(ctx, "schemas/s1/a.bin", content)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if etag == "" {
		t.Error("expected non-empty ETag")
	}

	exists, err := store.Exists(ctx, "schemas/s1/a.bin")
	if err != nil || !exists {
		t.Fatalf("got (%v, %v), want (true, nil)", exists, err)
	}

	got, err := store.Get(ctx, "schemas/s1/a.bin")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}

	if err := store.Delete(ctx, "schemas/s1/a.bin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	exists, err = store.Exists(ctx, "schemas/s1/a.bin")
	if err != nil || exists {
		t.Fatalf("got (%v, %v) after delete, want (false, nil)", exists, err)
	}
}

func TestLocalBlobStore_GetMissingFails(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	_, err = store.Get(context.Background(), "nope.bin")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("got %v, want ErrObjectNotFound", err)
	}
}

func TestLocalBlobStore_DeleteMissingIsIdempotent(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	if err := store.Delete(context.Background(), "nope.bin"); err != nil {
		t.Errorf("Delete of missing key should be a no-op, got %v", err)
	}
}

func TestLocalBlobStore_ConditionalPut(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	ctx := context.Background()

	// First write with no pre-existing object: empty etag means "must
	// not exist yet".
	etag, err := store.ConditionalPut(ctx, "k", []byte("v1"), "")
	if err != nil {
		t.Fatalf("initial ConditionalPut failed: %v", err)
	}

	// Second write against a stale etag must fail.
	if _, err := store.ConditionalPut(ctx, "k", []byte("v2"), "stale"); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("got %v, want ErrPreconditionFailed", err)
	}

	// Write against the correct etag succeeds.
	if _, err := store.ConditionalPut(ctx, "k", []byte("v2"), etag); err != nil {
		t.Errorf("ConditionalPut with correct etag failed: %v", err)
	}
}

func TestLocalBlobStore_ListByPrefix(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"schemas/a/1.bin", "schemas/a/2.bin", "schemas/b/1.bin"} {
		if _, err := store.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	keys, err := store.List(ctx, "schemas/a")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("got %d keys under schemas/a, want 2: %v", len(keys), keys)
	}
}
