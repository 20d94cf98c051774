// Package productstore keeps an in-memory mirror of the products collection,
// fed by the store's change feed, and answers the read-side queries.
package productstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type productFeed interface {
	Subscribe(ctx context.Context, onChange func([]domain.Product), onError func(error)) (func(), error)
	StageSet(b *docstore.Batch, p domain.Product) error
}

type userRepo interface {
	List(ctx context.Context) ([]domain.User, error)
	StageCreate(b *docstore.Batch, id string, u domain.User) error
}

type committer interface {
	Commit(ctx context.Context, b *docstore.Batch) error
	MaxBatchOps() int
}

// Store mirrors the products collection. The feed goroutine is the only
// writer; readers get copies.
type Store struct {
	products productFeed
	users    userRepo
	store    committer
	seed     Seed
	log      *slog.Logger

	mu       sync.RWMutex
	list     []domain.Product
	received bool
	loaded   bool

	seedOnce    sync.Once
	seedCtx     context.Context
	unsubscribe func()
}

// New creates a product store. Nothing is read until Start.
func New(
	log *slog.Logger,
	products productFeed,
	users userRepo,
	store committer,
	seed Seed,
) *Store {
	return &Store{
		products: products,
		users:    users,
		store:    store,
		seed:     seed,
		log:      log.With("service", "productstore"),
	}
}

// Start seeds users if needed and subscribes to products. ctx bounds the
// lifetime of the subscription. Once Start returns the store is loaded, and
// an empty product snapshot triggers a one-time seed of the catalogue.
func (s *Store) Start(ctx context.Context) error {
	s.seedCtx = context.WithoutCancel(ctx)

	var (
		g     errgroup.Group
		unsub func()
	)
	g.Go(func() error {
		return s.seedUsers(ctx)
	})
	g.Go(func() error {
		var err error
		unsub, err = s.products.Subscribe(ctx, s.onSnapshot, s.onFeedError)
		if err != nil {
			return fmt.Errorf("subscribe products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if unsub != nil {
			unsub()
		}
		return err
	}

	s.mu.Lock()
	s.unsubscribe = unsub
	s.loaded = true
	empty := s.received && len(s.list) == 0
	s.mu.Unlock()

	if empty {
		s.triggerSeed()
	}
	s.log.InfoContext(ctx, "product store started")
	return nil
}

// Close stops the change feed.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Loaded reports whether Start completed and a snapshot has arrived.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.received
}

func (s *Store) onSnapshot(list []domain.Product) {
	s.mu.Lock()
	s.list = list
	s.received = true
	empty := s.loaded && len(list) == 0
	s.mu.Unlock()

	if empty {
		s.triggerSeed()
	}
}

func (s *Store) onFeedError(err error) {
	s.log.Error("product feed", slog.String("error", err.Error()))
}

func (s *Store) triggerSeed() {
	s.seedOnce.Do(func() {
		go s.seedProducts(s.seedCtx)
	})
}
