package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type doc struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Qty      int    `json:"qty"`
}

func decode(t *testing.T, d docstore.Document) doc {
	t.Helper()
	var out doc
	require.NoError(t, d.Decode(&out))
	return out
}

func TestStore_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)

	id, err := s.Create(ctx, "products", doc{Name: "Agua", Qty: 3})
	require.NoError(t, err)

	got, err := s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, doc{Name: "Agua", Qty: 3}, decode(t, got))

	require.NoError(t, s.Update(ctx, "products", id, map[string]any{"qty": 7}))
	got, err = s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, doc{Name: "Agua", Qty: 7}, decode(t, got))

	require.NoError(t, s.Delete(ctx, "products", id))
	_, err = s.Get(ctx, "products", id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "products", id), "deleting a missing document is not an error")
}

func TestStore_UpdateMissing(t *testing.T) {
	t.Parallel()
	s := New(0)

	err := s.Update(context.Background(), "products", "nope", map[string]any{"qty": 1})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetAllKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Set(ctx, "jobs", id, doc{Name: id}))
	}
	// Overwriting keeps the original position.
	require.NoError(t, s.Set(ctx, "jobs", "c", doc{Name: "c2"}))

	docs, err := s.GetAll(ctx, "jobs")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestStore_GetWhere(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)

	require.NoError(t, s.Set(ctx, "users", "1", doc{Name: "Admin", Username: "admin"}))
	require.NoError(t, s.Set(ctx, "users", "2", doc{Name: "Encargada", Username: "encargada"}))

	docs, err := s.GetWhere(ctx, "users", docstore.Where("username", "encargada"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0].ID)

	docs, err = s.GetWhere(ctx, "users", docstore.Where("username", "nobody"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_CommitIsAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "products", "p1", doc{Qty: 1}))

	b := docstore.NewBatch()
	require.NoError(t, b.Update("products", "p1", map[string]any{"qty": 9}))
	require.NoError(t, b.Update("products", "missing", map[string]any{"qty": 9}))

	err := s.Commit(ctx, b)
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, decode(t, got).Qty, "first write must not survive a failed batch")
}

func TestStore_CommitRejectsOversizedBatch(t *testing.T) {
	t.Parallel()
	s := New(3)

	b := docstore.NewBatch()
	for i := 0; i < 4; i++ {
		b.Delete("products", "x")
	}
	require.ErrorIs(t, s.Commit(context.Background(), b), docstore.ErrBatchTooLarge)
}

func TestStore_CommitHook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	boom := errors.New("unavailable")
	s.SetCommitHook(func(*docstore.Batch) error { return boom })

	require.ErrorIs(t, s.Set(ctx, "products", "p1", doc{}), boom)
	docs, err := s.GetAll(ctx, "products")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_RunInTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "products", "p1", doc{Qty: 5}))

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Update(ctx, "products", "p1", map[string]any{"qty": 0}))
		require.NoError(t, s.Set(ctx, "jobs", "j1", doc{}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, decode(t, got).Qty)
	_, err = s.Get(ctx, "jobs", "j1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RunInTxHidesUncommittedWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "products", "p1", doc{Qty: 6}))

	snapshots := make(chan []docstore.Document, 16)
	unsubscribe, err := s.Subscribe(ctx, "products", func(docs []docstore.Document) {
		snapshots <- docs
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()
	receive(t, snapshots)

	err = s.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.Update(txCtx, "products", "p1", map[string]any{"qty": 999}))

		inside, err := s.Get(txCtx, "products", "p1")
		require.NoError(t, err)
		assert.Equal(t, 999, decode(t, inside).Qty, "the transaction reads its own writes")

		outside, err := s.Get(ctx, "products", "p1")
		require.NoError(t, err)
		assert.Equal(t, 6, decode(t, outside).Qty, "other readers see the committed value")

		all, err := s.GetAll(ctx, "products")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 6, decode(t, all[0]).Qty)
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, decode(t, got).Qty)

	select {
	case docs := <-snapshots:
		t.Fatalf("aborted transaction produced a snapshot of %d", len(docs))
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.RunInTx(ctx, func(txCtx context.Context) error {
		return s.Update(txCtx, "products", "p1", map[string]any{"qty": 7})
	}))
	docs := receive(t, snapshots)
	require.Len(t, docs, 1)
	assert.Equal(t, 7, decode(t, docs[0]).Qty)
}

func TestStore_RunInTxSerialisesWriters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "products", "p1", doc{Qty: 0}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(ctx, func(ctx context.Context) error {
				d, err := s.GetForUpdate(ctx, "products", "p1")
				if err != nil {
					return err
				}
				var cur doc
				if err := d.Decode(&cur); err != nil {
					return err
				}
				return s.Update(ctx, "products", "p1", map[string]any{"qty": cur.Qty + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "products", "p1")
	require.NoError(t, err)
	assert.Equal(t, 20, decode(t, got).Qty)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)
	require.NoError(t, s.Set(ctx, "products", "p1", doc{Name: "Agua"}))

	snapshots := make(chan []docstore.Document, 16)
	unsubscribe, err := s.Subscribe(ctx, "products", func(docs []docstore.Document) {
		snapshots <- docs
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	first := receive(t, snapshots)
	require.Len(t, first, 1)

	require.NoError(t, s.Set(ctx, "products", "p2", doc{Name: "Jabón"}))
	require.Eventually(t, func() bool {
		select {
		case docs := <-snapshots:
			return len(docs) == 2
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Writes to other collections do not wake the feed.
	require.NoError(t, s.Set(ctx, "jobs", "j1", doc{}))
	select {
	case docs := <-snapshots:
		t.Fatalf("unexpected snapshot of %d products", len(docs))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_SubscribeNotifiesAfterCommitOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)

	snapshots := make(chan []docstore.Document, 16)
	unsubscribe, err := s.Subscribe(ctx, "products", func(docs []docstore.Document) {
		snapshots <- docs
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()
	receive(t, snapshots)

	_ = s.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Set(ctx, "products", "p1", doc{}))
		return errors.New("abort")
	})
	select {
	case docs := <-snapshots:
		t.Fatalf("rolled back transaction produced a snapshot of %d", len(docs))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(0)

	snapshots := make(chan []docstore.Document, 16)
	unsubscribe, err := s.Subscribe(ctx, "products", func(docs []docstore.Document) {
		snapshots <- docs
	}, nil)
	require.NoError(t, err)
	receive(t, snapshots)

	unsubscribe()
	unsubscribe()

	require.NoError(t, s.Set(ctx, "products", "p1", doc{}))
	select {
	case <-snapshots:
		t.Fatal("delivery after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func receive(t *testing.T, ch <-chan []docstore.Document) []docstore.Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}
