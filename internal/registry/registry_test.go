package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tilegrid/arrayschema/pkg/arrayschema"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore failed: %v", err)
	}
	index, err := NewSQLiteSchemaIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSchemaIndex failed: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return New(store, index)
}

func TestRegistry_PutGetDelete(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()
	s := buildTestSchema(t)

	if err := reg.Put(ctx, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := reg.Get(ctx, s.Name())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name() != s.Name() {
		t.Errorf("got name %q, want %q", got.Name(), s.Name())
	}

	if err := reg.Delete(ctx, s.Name()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := reg.Get(ctx, s.Name()); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("got %v after delete, want ErrObjectNotFound", err)
	}
}

func TestRegistry_ListReturnsRegisteredNames(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	first := buildTestSchema(t)
	second, err := buildSchemaNamed(t, "envelope-test-2")
	if err != nil {
		t.Fatalf("failed to build second schema: %v", err)
	}

	if err := reg.Put(ctx, first); err != nil {
		t.Fatalf("Put first failed: %v", err)
	}
	if err := reg.Put(ctx, second); err != nil {
		t.Fatalf("Put second failed: %v", err)
	}

	names, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2: %v", len(names), names)
	}
}

func TestRegistry_DeleteMissingIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Delete(context.Background(), "never-registered"); err != nil {
		t.Errorf("Delete of unregistered name should be a no-op, got %v", err)
	}
}

func buildSchemaNamed(t *testing.T, name string) (*arrayschema.Schema, error) {
	t.Helper()
	b := arrayschema.NewBuilder().
		SetName(name).
		AddAttribute("v", "int32").
		AddDimension("x").
		SetCoordsTypeSpec("int32").
		SetCapacity(100)
	b = arrayschema.SetDomain(b, []int32{0, 99})
	return b.Finalize()
}
