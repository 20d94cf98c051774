package repository

import (
	"context"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

const jobs = docstore.CollectionJobs

// Jobs is the jobs collection.
type Jobs struct {
	store Store
}

// NewJobs creates a Jobs repository.
func NewJobs(store Store) *Jobs {
	return &Jobs{store: store}
}

func decodeJob(d docstore.Document) (domain.Job, error) {
	return decodeAs(d, func(j *domain.Job, id string) { j.ID = id })
}

// Get returns one job.
func (r *Jobs) Get(ctx context.Context, id string) (*domain.Job, error) {
	d, err := r.store.Get(ctx, jobs, id)
	if err != nil {
		return nil, err
	}
	j, err := decodeJob(d)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// GetForUpdate returns one job locked for the surrounding transaction.
func (r *Jobs) GetForUpdate(ctx context.Context, id string) (*domain.Job, error) {
	d, err := r.store.GetForUpdate(ctx, jobs, id)
	if err != nil {
		return nil, err
	}
	j, err := decodeJob(d)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// List returns every job in insertion order.
func (r *Jobs) List(ctx context.Context) ([]domain.Job, error) {
	docs, err := r.store.GetAll(ctx, jobs)
	if err != nil {
		return nil, wrap("list jobs", err)
	}
	return decodeAll(docs, decodeJob)
}

// Create stores a job under a generated id and returns the id.
func (r *Jobs) Create(ctx context.Context, j domain.Job) (string, error) {
	j.ID = ""
	return r.store.Create(ctx, jobs, j)
}

// StageDelete queues a removal.
func (r *Jobs) StageDelete(b *docstore.Batch, id string) {
	b.Delete(jobs, id)
}
