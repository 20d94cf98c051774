package documents_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/stock-ledger/internal/adapter/postgres"
	"github.com/heartmarshall/stock-ledger/internal/adapter/postgres/documents"
	"github.com/heartmarshall/stock-ledger/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type item struct {
	Name     string  `json:"name"`
	Username string  `json:"username,omitempty"`
	Quantity float64 `json:"quantity"`
}

func newStore(t *testing.T, maxOps int) (*documents.Store, *postgres.TxManager) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return documents.New(pool, log, maxOps), postgres.NewTxManager(pool)
}

func decode(t *testing.T, d docstore.Document) item {
	t.Helper()
	var out item
	require.NoError(t, d.Decode(&out))
	return out
}

func TestStore_CRUD(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("products")

	id, err := s.Create(ctx, coll, item{Name: "Agua", Quantity: 3})
	require.NoError(t, err)

	got, err := s.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.Equal(t, item{Name: "Agua", Quantity: 3}, decode(t, got))

	require.NoError(t, s.Update(ctx, coll, id, map[string]any{"quantity": 1.5}))
	got, err = s.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.Equal(t, item{Name: "Agua", Quantity: 1.5}, decode(t, got))

	require.NoError(t, s.Delete(ctx, coll, id))
	_, err = s.Get(ctx, coll, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Update(ctx, coll, id, map[string]any{"quantity": 1})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetWhereAndOrder(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("accounts")

	require.NoError(t, s.Set(ctx, coll, "b", item{Name: "Encargada", Username: "encargada"}))
	require.NoError(t, s.Set(ctx, coll, "a", item{Name: "Admin", Username: "admin"}))

	all, err := s.GetAll(ctx, coll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "documents come back in insertion order")

	found, err := s.GetWhere(ctx, coll, docstore.Where("username", "admin"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].ID)
}

func TestStore_CommitAllOrNothing(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("products")
	require.NoError(t, s.Set(ctx, coll, "p1", item{Quantity: 1}))

	b := docstore.NewBatch()
	require.NoError(t, b.Update(coll, "p1", map[string]any{"quantity": 9}))
	require.NoError(t, b.Update(coll, "ghost", map[string]any{"quantity": 9}))

	require.ErrorIs(t, s.Commit(ctx, b), domain.ErrNotFound)

	got, err := s.Get(ctx, coll, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, decode(t, got).Quantity)
}

func TestStore_CommitTooLarge(t *testing.T) {
	s, _ := newStore(t, 2)

	b := docstore.NewBatch()
	b.Delete("x", "1")
	b.Delete("x", "2")
	b.Delete("x", "3")
	require.ErrorIs(t, s.Commit(context.Background(), b), docstore.ErrBatchTooLarge)
}

func TestStore_CommitInsideTxRollsBackWithOuter(t *testing.T) {
	s, tm := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("jobs")
	sentinel := errors.New("abort")

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		b := docstore.NewBatch()
		require.NoError(t, b.Set(coll, "j1", item{Name: "job"}))
		require.NoError(t, s.Commit(ctx, b))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Get(ctx, coll, "j1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetForUpdateSerialisesWriters(t *testing.T) {
	s, tm := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("products")
	require.NoError(t, s.Set(ctx, coll, "p1", item{Quantity: 0}))

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			errs <- tm.RunInTx(ctx, func(ctx context.Context) error {
				d, err := s.GetForUpdate(ctx, coll, "p1")
				if err != nil {
					return err
				}
				var cur item
				if err := d.Decode(&cur); err != nil {
					return err
				}
				return s.Update(ctx, coll, "p1", map[string]any{"quantity": cur.Quantity + 1})
			})
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-errs)
	}

	got, err := s.Get(ctx, coll, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, decode(t, got).Quantity)
}

func TestStore_NegativeProductQuantityRejected(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()

	id := testhelper.Collection("neg")
	err := s.Set(ctx, docstore.CollectionProducts, id, item{Name: "broken", Quantity: -1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_Subscribe(t *testing.T) {
	s, _ := newStore(t, 0)
	ctx := context.Background()
	coll := testhelper.Collection("feed")
	require.NoError(t, s.Set(ctx, coll, "p1", item{Name: "Agua"}))

	snapshots := make(chan []docstore.Document, 16)
	unsubscribe, err := s.Subscribe(ctx, coll, func(docs []docstore.Document) {
		snapshots <- docs
	}, nil)
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case docs := <-snapshots:
		require.Len(t, docs, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, s.Set(ctx, coll, "p2", item{Name: "Jabón"}))

	require.Eventually(t, func() bool {
		select {
		case docs := <-snapshots:
			return len(docs) == 2
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)
}
