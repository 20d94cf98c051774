package repository

import (
	"context"
	"fmt"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

const products = docstore.CollectionProducts

// Products is the products collection.
type Products struct {
	store Store
}

// NewProducts creates a Products repository.
func NewProducts(store Store) *Products {
	return &Products{store: store}
}

func decodeProduct(d docstore.Document) (domain.Product, error) {
	return decodeAs(d, func(p *domain.Product, id string) { p.ID = id })
}

// Get returns one product.
func (r *Products) Get(ctx context.Context, id string) (*domain.Product, error) {
	d, err := r.store.Get(ctx, products, id)
	if err != nil {
		return nil, err
	}
	p, err := decodeProduct(d)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetForUpdate returns one product locked for the surrounding transaction.
func (r *Products) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	d, err := r.store.GetForUpdate(ctx, products, id)
	if err != nil {
		return nil, err
	}
	p, err := decodeProduct(d)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every product in storage order.
func (r *Products) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.store.GetAll(ctx, products)
	if err != nil {
		return nil, wrap("list products", err)
	}
	return decodeAll(docs, decodeProduct)
}

// Create stores p. An empty p.ID gets a generated id. Returns the id.
func (r *Products) Create(ctx context.Context, p domain.Product) (string, error) {
	if p.ID == "" {
		return r.store.Create(ctx, products, p)
	}
	if err := r.store.Set(ctx, products, p.ID, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update writes the allow-listed fields of patch.
func (r *Products) Update(ctx context.Context, id string, patch domain.ProductPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	return r.store.Update(ctx, products, id, patch.Fields())
}

// Delete removes a product permanently.
func (r *Products) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, products, id)
}

// Subscribe streams full product snapshots. Documents that fail to decode are
// reported through onError and the snapshot is skipped.
func (r *Products) Subscribe(ctx context.Context, onChange func([]domain.Product), onError func(error)) (func(), error) {
	return r.store.Subscribe(ctx, products, func(docs []docstore.Document) {
		list, err := decodeAll(docs, decodeProduct)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("decode products snapshot: %w", err))
			}
			return
		}
		onChange(list)
	}, onError)
}

// StageSet queues a full write of p.
func (r *Products) StageSet(b *docstore.Batch, p domain.Product) error {
	return b.Set(products, p.ID, p)
}

// StageUpdate queues a partial write.
func (r *Products) StageUpdate(b *docstore.Batch, id string, patch domain.ProductPatch) error {
	return b.Update(products, id, patch.Fields())
}

// StageDelete queues a removal.
func (r *Products) StageDelete(b *docstore.Batch, id string) {
	b.Delete(products, id)
}
