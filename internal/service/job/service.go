// Package job records grouped usage sessions as jobs and reverts them.
package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type mutator interface {
	ApplyDelta(ctx context.Context, productID string, delta decimal.Decimal, sessionID string) (*domain.Product, error)
	Consume(ctx context.Context, productID string, amount decimal.Decimal, sessionID string) (*domain.Product, error)
}

type productRepo interface {
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)
	StageUpdate(b *docstore.Batch, id string, patch domain.ProductPatch) error
}

type jobRepo interface {
	GetForUpdate(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
	Create(ctx context.Context, j domain.Job) (string, error)
	StageDelete(b *docstore.Batch, id string)
}

type committer interface {
	Commit(ctx context.Context, b *docstore.Batch) error
	MaxBatchOps() int
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service is both the job recorder and the rollback engine.
type Service struct {
	inventory mutator
	products  productRepo
	jobs      jobRepo
	store     committer
	tx        txManager
	log       *slog.Logger

	sessionTTL time.Duration
	token      func() string
	now        func() time.Time

	mu       sync.Mutex
	idle     *sync.Cond // signalled when a session's in-flight count drops
	sessions map[string]*Session
}

// NewService creates a job service. Sessions idle longer than sessionTTL are
// finished by SweepExpired.
func NewService(
	log *slog.Logger,
	inventory mutator,
	products productRepo,
	jobs jobRepo,
	store committer,
	tx txManager,
	sessionTTL time.Duration,
) (*Service, error) {
	token, err := nanoid.CustomASCII("abcdefghijklmnopqrstuvwxyz0123456789", 9)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		inventory:  inventory,
		products:   products,
		jobs:       jobs,
		store:      store,
		tx:         tx,
		log:        log.With("service", "job"),
		sessionTTL: sessionTTL,
		token:      token,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
	svc.idle = sync.NewCond(&svc.mu)
	return svc, nil
}
