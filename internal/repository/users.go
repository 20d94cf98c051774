package repository

import (
	"context"
	"fmt"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

const users = docstore.CollectionUsers

// Users is the users collection.
type Users struct {
	store Store
}

// NewUsers creates a Users repository.
func NewUsers(store Store) *Users {
	return &Users{store: store}
}

func decodeUser(d docstore.Document) (domain.User, error) {
	return decodeAs(d, func(u *domain.User, id string) { u.ID = id })
}

// List returns every user.
func (r *Users) List(ctx context.Context) ([]domain.User, error) {
	docs, err := r.store.GetAll(ctx, users)
	if err != nil {
		return nil, wrap("list users", err)
	}
	return decodeAll(docs, decodeUser)
}

// GetByUsername returns the user with the given username.
func (r *Users) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	docs, err := r.store.GetWhere(ctx, users, docstore.Where("username", username))
	if err != nil {
		return nil, wrap("find user", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	u, err := decodeUser(docs[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// StageCreate queues an insert of u under id.
func (r *Users) StageCreate(b *docstore.Batch, id string, u domain.User) error {
	u.ID = id
	return b.Set(users, id, u)
}
