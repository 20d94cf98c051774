// Package memstore is an in-process document store with the same semantics
// as the Postgres adapter: ordered collections, equality queries, atomic
// batches, serialised transactions and snapshot change feeds.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type entry struct {
	data json.RawMessage
	seq  int64
}

type collection map[string]entry

type txKey struct{}

// txState is the private overlay of a running transaction. Collections it
// wrote are staged here and only published on commit.
type txState struct {
	store *Store

	mu     sync.Mutex
	staged map[string]collection
	seq    int64
}

// Store keeps every collection in memory. The zero value is not usable; call New.
type Store struct {
	txMu sync.Mutex // held for the duration of a transaction or a standalone write

	mu          sync.RWMutex
	seq         int64
	collections map[string]collection
	maxOps      int
	commitHook  func(*docstore.Batch) error

	subMu sync.Mutex
	subs  map[string]map[*subscriber]struct{}
}

// New creates an empty store. maxOps <= 0 selects docstore.DefaultMaxBatchOps.
func New(maxOps int) *Store {
	if maxOps <= 0 {
		maxOps = docstore.DefaultMaxBatchOps
	}
	return &Store{
		collections: make(map[string]collection),
		maxOps:      maxOps,
		subs:        make(map[string]map[*subscriber]struct{}),
	}
}

// SetCommitHook installs fn to run before every Commit. A non-nil error
// aborts the commit unchanged. Intended for fault injection in tests.
func (s *Store) SetCommitHook(fn func(*docstore.Batch) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

// MaxBatchOps returns the largest batch Commit accepts.
func (s *Store) MaxBatchOps() int { return s.maxOps }

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// RunInTx runs fn with exclusive write access. Writes made through the
// transaction context are visible only to that context until fn returns nil;
// then they are published together and subscribers are notified. An error or
// a panic discards them. Nested calls join the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &txState{store: s, staged: make(map[string]collection), seq: s.seq}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	if len(tx.staged) == 0 {
		return nil
	}
	s.mu.Lock()
	for name, c := range tx.staged {
		s.collections[name] = c
	}
	s.seq = tx.seq
	s.mu.Unlock()

	for name := range tx.staged {
		s.notify(name)
	}
	return nil
}

func (s *Store) txFrom(ctx context.Context) *txState {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// view returns coll as seen from ctx: the transaction's staged copy when it
// has one, the committed collection otherwise. Collections are replaced, never
// modified in place, so the result can be read without locks.
func (s *Store) view(ctx context.Context, coll string) collection {
	if tx := s.txFrom(ctx); tx != nil {
		tx.mu.Lock()
		c, ok := tx.staged[coll]
		tx.mu.Unlock()
		if ok {
			return c
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[coll]
}

func cloneCollection(c collection) collection {
	out := make(collection, len(c))
	for id, e := range c {
		out[id] = e
	}
	return out
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Get returns one document.
func (s *Store) Get(ctx context.Context, coll, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	e, ok := s.view(ctx, coll)[id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s %s: %w", coll, id, domain.ErrNotFound)
	}
	return docstore.Document{ID: id, Data: e.data}, nil
}

// GetForUpdate is Get; writers are already serialised.
func (s *Store) GetForUpdate(ctx context.Context, coll, id string) (docstore.Document, error) {
	return s.Get(ctx, coll, id)
}

// GetAll returns every document of a collection in insertion order.
func (s *Store) GetAll(ctx context.Context, coll string) ([]docstore.Document, error) {
	return s.GetWhere(ctx, coll)
}

// GetWhere returns the documents whose fields equal every filter value.
func (s *Store) GetWhere(ctx context.Context, coll string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wants := make([][]byte, len(filters))
	for i, f := range filters {
		b, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		wants[i] = b
	}

	c := s.view(ctx, coll)
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c[ids[i]].seq < c[ids[j]].seq })

	out := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		e := c[id]
		if len(filters) > 0 {
			ok, err := matches(e.data, filters, wants)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", coll, id, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, docstore.Document{ID: id, Data: e.data})
	}
	return out, nil
}

func matches(data json.RawMessage, filters []docstore.Filter, wants [][]byte) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, err
	}
	for i, f := range filters {
		got, ok := fields[f.Field]
		if !ok {
			return false, nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, got); err != nil {
			return false, err
		}
		if !bytes.Equal(buf.Bytes(), wants[i]) {
			return false, nil
		}
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Create inserts v under a generated id and returns the id.
func (s *Store) Create(ctx context.Context, coll string, v any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, coll, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes v as the full document, creating it if needed.
func (s *Store) Set(ctx context.Context, coll, id string, v any) error {
	b := docstore.NewBatch()
	if err := b.Set(coll, id, v); err != nil {
		return err
	}
	return s.Commit(ctx, b)
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	b := docstore.NewBatch()
	if err := b.Update(coll, id, fields); err != nil {
		return err
	}
	return s.Commit(ctx, b)
}

// Delete removes a document. Missing documents are ignored.
func (s *Store) Delete(ctx context.Context, coll, id string) error {
	b := docstore.NewBatch()
	b.Delete(coll, id)
	return s.Commit(ctx, b)
}

// Commit applies every write in b or none of them.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}
	if b.Len() > s.maxOps {
		return fmt.Errorf("%d writes (max %d): %w", b.Len(), s.maxOps, docstore.ErrBatchTooLarge)
	}

	tx := s.txFrom(ctx)
	if tx != nil {
		_, err := s.apply(b, tx)
		return err
	}

	s.txMu.Lock()
	touched, err := s.apply(b, nil)
	s.txMu.Unlock()
	if err != nil {
		return err
	}
	for _, name := range touched {
		s.notify(name)
	}
	return nil
}

// apply writes b atomically into tx's overlay, or into the committed
// collections when tx is nil. The caller holds txMu.
func (s *Store) apply(b *docstore.Batch, tx *txState) ([]string, error) {
	s.mu.RLock()
	hook := s.commitHook
	seq := s.seq
	s.mu.RUnlock()

	if hook != nil {
		if err := hook(b); err != nil {
			return nil, err
		}
	}

	if tx != nil {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		seq = tx.seq
	}

	staged := make(map[string]collection)
	get := func(name string) collection {
		if c, ok := staged[name]; ok {
			return c
		}
		var base collection
		if tx != nil {
			base = tx.staged[name]
		}
		if base == nil {
			s.mu.RLock()
			base = s.collections[name]
			s.mu.RUnlock()
		}
		c := cloneCollection(base)
		staged[name] = c
		return c
	}

	for _, w := range b.Writes() {
		c := get(w.Collection)
		switch w.Kind {
		case docstore.WriteSet:
			e, ok := c[w.ID]
			if !ok {
				seq++
				e.seq = seq
			}
			e.data = w.Data
			c[w.ID] = e
		case docstore.WriteUpdate:
			e, ok := c[w.ID]
			if !ok {
				return nil, fmt.Errorf("update %s %s: %w", w.Collection, w.ID, domain.ErrNotFound)
			}
			merged, err := docstore.MergeFields(e.data, w.Data)
			if err != nil {
				return nil, fmt.Errorf("update %s %s: %w", w.Collection, w.ID, err)
			}
			e.data = merged
			c[w.ID] = e
		case docstore.WriteDelete:
			delete(c, w.ID)
		}
	}

	names := make([]string, 0, len(staged))
	for name := range staged {
		names = append(names, name)
	}

	if tx != nil {
		for name, c := range staged {
			tx.staged[name] = c
		}
		tx.seq = seq
		return names, nil
	}

	s.mu.Lock()
	for name, c := range staged {
		s.collections[name] = c
	}
	s.seq = seq
	s.mu.Unlock()
	return names, nil
}
