// Package repository maps domain types onto document-store collections.
package repository

import (
	"context"
	"fmt"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
)

// Store is the document-store surface the repositories need. Implemented by
// memstore.Store and the Postgres documents.Store.
type Store interface {
	Get(ctx context.Context, coll, id string) (docstore.Document, error)
	GetForUpdate(ctx context.Context, coll, id string) (docstore.Document, error)
	GetAll(ctx context.Context, coll string) ([]docstore.Document, error)
	GetWhere(ctx context.Context, coll string, filters ...docstore.Filter) ([]docstore.Document, error)
	Create(ctx context.Context, coll string, v any) (string, error)
	Set(ctx context.Context, coll, id string, v any) error
	Update(ctx context.Context, coll, id string, fields map[string]any) error
	Delete(ctx context.Context, coll, id string) error
	Commit(ctx context.Context, b *docstore.Batch) error
	Subscribe(ctx context.Context, coll string, onChange docstore.ChangeFunc, onError docstore.ErrorFunc) (func(), error)
	MaxBatchOps() int
}

// decodeAll decodes every document with fn, stopping at the first error.
func decodeAll[T any](docs []docstore.Document, fn func(docstore.Document) (T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fn(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeAs[T any](d docstore.Document, setID func(*T, string)) (T, error) {
	var v T
	if err := d.Decode(&v); err != nil {
		return v, err
	}
	setID(&v, d.ID)
	return v, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
