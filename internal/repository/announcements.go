package repository

import (
	"context"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

const announcements = docstore.CollectionAnnouncements

// Announcements is the announcements collection.
type Announcements struct {
	store Store
}

// NewAnnouncements creates an Announcements repository.
func NewAnnouncements(store Store) *Announcements {
	return &Announcements{store: store}
}

func decodeAnnouncement(d docstore.Document) (domain.Announcement, error) {
	return decodeAs(d, func(a *domain.Announcement, id string) { a.ID = id })
}

func (r *Announcements) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	d, err := r.store.Get(ctx, announcements, id)
	if err != nil {
		return nil, err
	}
	a, err := decodeAnnouncement(d)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Announcements) List(ctx context.Context) ([]domain.Announcement, error) {
	docs, err := r.store.GetAll(ctx, announcements)
	if err != nil {
		return nil, wrap("list announcements", err)
	}
	return decodeAll(docs, decodeAnnouncement)
}

func (r *Announcements) Create(ctx context.Context, a domain.Announcement) (string, error) {
	a.ID = ""
	return r.store.Create(ctx, announcements, a)
}

// Update writes message and/or isActive. Nil values are left unchanged.
func (r *Announcements) Update(ctx context.Context, id string, message *string, isActive *bool) error {
	fields := make(map[string]any, 2)
	if message != nil {
		fields["message"] = *message
	}
	if isActive != nil {
		fields["isActive"] = *isActive
	}
	if len(fields) == 0 {
		return nil
	}
	return r.store.Update(ctx, announcements, id, fields)
}

func (r *Announcements) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, announcements, id)
}
