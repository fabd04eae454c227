package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tilegrid/arrayschema/pkg/arrayschema"
)

// Registry combines a SchemaIndex and a BlobStore into the single
// entry point cmd/schemactl drives: register a finalized Schema,
// retrieve it back by array name, list and delete registered arrays.
type Registry struct {
	store BlobStore
	index SchemaIndex
}

// New builds a Registry over the given blob store and schema index.
func New(store BlobStore, index SchemaIndex) *Registry {
	return &Registry{store: store, index: index}
}

// Put serializes s through Codec and the Snappy envelope, writes the
// result under a freshly generated blob key, and indexes it by name.
// A second Put for the same name overwrites the index entry but leaves
// the previous blob orphaned; the replace is not atomic.
func (r *Registry) Put(ctx context.Context, s *arrayschema.Schema) error {
	data, err := EncodeEnvelope(s)
	if err != nil {
		return err
	}

	blobKey := fmt.Sprintf("schemas/%s/%s.bin", s.Name(), uuid.New().String()[:8])
	etag, err := r.store.Put(ctx, blobKey, data)
	if err != nil {
		return err
	}

	if err := r.index.Register(ctx, s.Name(), blobKey, etag); err != nil {
		return err
	}
	return nil
}

// Get retrieves and decodes the schema registered under name.
func (r *Registry) Get(ctx context.Context, name string) (*arrayschema.Schema, error) {
	rec, err := r.index.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := r.store.Get(ctx, rec.BlobKey)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope(data)
}

// List returns the names of every registered array.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	recs, err := r.index.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(recs))
	for i, rec := range recs {
		names[i] = rec.Name
	}
	return names, nil
}

// Delete removes an array's schema from both the blob store and the
// index. It is idempotent.
func (r *Registry) Delete(ctx context.Context, name string) error {
	rec, err := r.index.Find(ctx, name)
	if err != nil {
		if err == ErrObjectNotFound {
			return nil
		}
		return err
	}
	if err := r.store.Delete(ctx, rec.BlobKey); err != nil {
		return err
	}
	return r.index.Delete(ctx, name)
}
