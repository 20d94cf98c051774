package productstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/stock-ledger/internal/docstore/memstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/internal/repository"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	store    *Store
	mem      *memstore.Store
	products *repository.Products
	users    *repository.Users
}

func newFixture(t *testing.T, seed Seed) fixture {
	t.Helper()
	mem := memstore.New(0)
	products := repository.NewProducts(mem)
	users := repository.NewUsers(mem)
	s := New(testLogger(), products, users, mem, seed)
	t.Cleanup(s.Close)
	return fixture{store: s, mem: mem, products: products, users: users}
}

func (f fixture) create(t *testing.T, p domain.Product) string {
	t.Helper()
	id, err := f.products.Create(context.Background(), p)
	require.NoError(t, err)
	return id
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(ts time.Time, typ domain.HistoryType) domain.HistoryEntry {
	return domain.HistoryEntry{Timestamp: ts.UnixMilli(), Type: typ, User: "Admin"}
}

// ---------------------------------------------------------------------------
// Start / feed
// ---------------------------------------------------------------------------

func TestStore_StartMirrorsProducts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Seed{})
	f.create(t, domain.Product{Name: "Agua", Unit: "botellas", Quantity: dec("3"), IsActive: true})

	require.NoError(t, f.store.Start(context.Background()))
	require.Eventually(t, func() bool { return len(f.store.All()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.store.Loaded())

	id := f.create(t, domain.Product{Name: "Jabón", Unit: "piezas", IsActive: true})
	require.Eventually(t, func() bool {
		_, err := f.store.Get(id)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestStore_ReadersReturnCopies(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Seed{})
	id := f.create(t, domain.Product{
		Name: "Agua", IsActive: true,
		History: []domain.HistoryEntry{entry(time.Now(), domain.HistoryUsage)},
	})
	require.NoError(t, f.store.Start(context.Background()))
	require.Eventually(t, func() bool { return len(f.store.All()) == 1 }, time.Second, 5*time.Millisecond)

	p, err := f.store.Get(id)
	require.NoError(t, err)
	p.Name = "changed"
	p.History[0].User = "changed"

	again, err := f.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Agua", again.Name)
	assert.Equal(t, "Admin", again.History[0].User)
}

func TestStore_SeedsUsersOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	seed := Seed{Users: []domain.User{
		{Username: "admin", Name: "Admin", Role: domain.RoleAdmin, PasswordHash: "x"},
		{Username: "encargada", Name: "Encargada", Role: domain.RoleUser, PasswordHash: "y"},
	}}
	f := newFixture(t, seed)

	require.NoError(t, f.store.Start(context.Background()))
	list, err := f.users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	second := New(testLogger(), f.products, f.users, f.mem, seed)
	t.Cleanup(second.Close)
	require.NoError(t, second.Start(context.Background()))
	list, err = f.users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStore_SeedsProductsOnceWhenEmpty(t *testing.T) {
	t.Parallel()
	catalogue, err := LoadProducts("")
	require.NoError(t, err)
	f := newFixture(t, Seed{Products: catalogue})

	require.NoError(t, f.store.Start(context.Background()))
	require.Eventually(t, func() bool { return len(f.store.All()) == len(catalogue) }, time.Second, 5*time.Millisecond)

	for _, p := range f.store.All() {
		assert.NotEmpty(t, p.ID)
		assert.True(t, p.IsActive)
		assert.Empty(t, p.History)
	}

	// Emptying the collection again does not reseed.
	for _, p := range f.store.All() {
		require.NoError(t, f.products.Delete(context.Background(), p.ID))
	}
	require.Eventually(t, func() bool { return len(f.store.All()) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.store.All())
}

func TestStore_NoSeedWhenProductsExist(t *testing.T) {
	t.Parallel()
	catalogue, err := LoadProducts("")
	require.NoError(t, err)
	f := newFixture(t, Seed{Products: catalogue})
	f.create(t, domain.Product{Name: "Propio", IsActive: true})

	require.NoError(t, f.store.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.store.All(), 1)
}

// ---------------------------------------------------------------------------
// LoadProducts
// ---------------------------------------------------------------------------

func TestLoadProducts_Default(t *testing.T) {
	t.Parallel()

	list, err := LoadProducts("")
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Agua Mineral", list[0].Name)
	assert.True(t, list[0].Quantity.Equal(dec("24")))
}

func TestLoadProducts_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","name":"Té","unit":"cajas","quantity":-3,"isActive":false}]`), 0o600))

	list, err := LoadProducts(path)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].ID)
	assert.True(t, list[0].IsActive)
	assert.True(t, list[0].Quantity.IsZero())

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x"}`), 0o600))
	_, err = LoadProducts(path)
	require.ErrorIs(t, err, domain.ErrFormat)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func loadedStore(t *testing.T, products ...domain.Product) *Store {
	t.Helper()
	f := newFixture(t, Seed{})
	for _, p := range products {
		f.create(t, p)
	}
	require.NoError(t, f.store.Start(context.Background()))
	require.Eventually(t, func() bool { return len(f.store.All()) == len(products) }, time.Second, 5*time.Millisecond)
	return f.store
}

func TestStore_ActiveInactive(t *testing.T) {
	t.Parallel()
	s := loadedStore(t,
		domain.Product{Name: "Zanahoria", IsActive: false},
		domain.Product{Name: "Pan", IsActive: true},
		domain.Product{Name: "azúcar", IsActive: false},
		domain.Product{Name: "Arroz", IsActive: true},
	)

	var active, inactive []string
	for _, p := range s.Active() {
		active = append(active, p.Name)
	}
	for _, p := range s.Inactive() {
		inactive = append(inactive, p.Name)
	}
	assert.Equal(t, []string{"Pan", "Arroz"}, active)
	assert.Equal(t, []string{"azúcar", "Zanahoria"}, inactive)
}

func TestStore_History(t *testing.T) {
	t.Parallel()
	day1 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	day2 := day1.Add(24 * time.Hour)

	s := loadedStore(t,
		domain.Product{Name: "Agua Mineral", Unit: "botellas", IsActive: true, History: []domain.HistoryEntry{
			entry(day2.Add(time.Hour), domain.HistoryUsage),
			entry(day1, domain.HistoryRestock),
		}},
		domain.Product{Name: "Jabón", Unit: "piezas", IsActive: false, History: []domain.HistoryEntry{
			entry(day2, domain.HistoryEdit),
		}},
	)

	all := s.History(domain.HistoryFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "Agua Mineral", all[0].ProductName)
	assert.Equal(t, domain.HistoryUsage, all[0].Entry.Type)
	assert.Equal(t, "Jabón", all[1].ProductName)
	assert.Equal(t, domain.HistoryRestock, all[2].Entry.Type)

	byName := s.History(domain.HistoryFilter{Search: "AGUA"})
	assert.Len(t, byName, 2)

	byDay := s.History(domain.HistoryFilter{Date: entry(day2, "").Day()})
	assert.Len(t, byDay, 2)

	assert.Equal(t, []string{entry(day1, "").Day(), entry(day2, "").Day()}, s.HistoryDates())
}

func TestStore_ProductHistory(t *testing.T) {
	t.Parallel()
	day1 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	f := newFixture(t, Seed{})
	id := f.create(t, domain.Product{Name: "Agua", IsActive: true, History: []domain.HistoryEntry{
		entry(day1.Add(48*time.Hour), domain.HistoryUsage),
		entry(day1, domain.HistoryRestock),
	}})
	require.NoError(t, f.store.Start(context.Background()))
	require.Eventually(t, func() bool { return len(f.store.All()) == 1 }, time.Second, 5*time.Millisecond)

	all, err := f.store.ProductHistory(id, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := f.store.ProductHistory(id, entry(day1, "").Day())
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, domain.HistoryRestock, one[0].Type)

	_, err = f.store.ProductHistory("missing", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
