// Package documents stores application documents as JSONB rows in the
// documents table and streams collection snapshots over LISTEN/NOTIFY.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/stock-ledger/internal/adapter/postgres"
	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// NotifyChannel is the channel the documents trigger publishes on.
const NotifyChannel = "document_changes"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store is the Postgres-backed document store.
type Store struct {
	pool   *pgxpool.Pool
	log    *slog.Logger
	maxOps int
}

// New creates a Store. maxOps <= 0 selects docstore.DefaultMaxBatchOps.
func New(pool *pgxpool.Pool, log *slog.Logger, maxOps int) *Store {
	if maxOps <= 0 {
		maxOps = docstore.DefaultMaxBatchOps
	}
	return &Store{
		pool:   pool,
		log:    log.With("adapter", "docstore"),
		maxOps: maxOps,
	}
}

// MaxBatchOps returns the largest batch Commit accepts.
func (s *Store) MaxBatchOps() int { return s.maxOps }

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Get returns one document.
func (s *Store) Get(ctx context.Context, coll, id string) (docstore.Document, error) {
	return s.getOne(ctx, coll, id, "")
}

// GetForUpdate returns one document and locks its row until the surrounding
// transaction ends. Outside a transaction it behaves like Get.
func (s *Store) GetForUpdate(ctx context.Context, coll, id string) (docstore.Document, error) {
	return s.getOne(ctx, coll, id, "FOR UPDATE")
}

func (s *Store) getOne(ctx context.Context, coll, id, suffix string) (docstore.Document, error) {
	q := psql.Select("id", "data").
		From("documents").
		Where(sq.Eq{"collection": coll, "id": id})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return docstore.Document{}, fmt.Errorf("build get query: %w", err)
	}

	var d docstore.Document
	err = postgres.QuerierFromCtx(ctx, s.pool).QueryRow(ctx, query, args...).Scan(&d.ID, &d.Data)
	if err != nil {
		return docstore.Document{}, postgres.MapError(err, coll, id)
	}
	return d, nil
}

// GetAll returns every document of a collection in insertion order.
func (s *Store) GetAll(ctx context.Context, coll string) ([]docstore.Document, error) {
	return s.GetWhere(ctx, coll)
}

// GetWhere returns the documents whose top-level fields equal every filter
// value, in insertion order.
func (s *Store) GetWhere(ctx context.Context, coll string, filters ...docstore.Filter) ([]docstore.Document, error) {
	q := psql.Select("id", "data").
		From("documents").
		Where(sq.Eq{"collection": coll}).
		OrderBy("seq")

	for _, f := range filters {
		want, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		q = q.Where(sq.Expr("data -> ?::text = ?::jsonb", f.Field, string(want)))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, coll, "*")
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var d docstore.Document
		if err := rows.Scan(&d.ID, &d.Data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", coll, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, coll, "*")
	}
	return docs, nil
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
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", coll, id, err)
	}
	_, err = postgres.QuerierFromCtx(ctx, s.pool).Exec(ctx, upsertSQL, coll, id, string(data))
	return postgres.MapError(err, coll, id)
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", coll, id, err)
	}
	tag, err := postgres.QuerierFromCtx(ctx, s.pool).Exec(ctx, mergeSQL, coll, id, string(data))
	if err != nil {
		return postgres.MapError(err, coll, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a document. Missing documents are ignored.
func (s *Store) Delete(ctx context.Context, coll, id string) error {
	_, err := postgres.QuerierFromCtx(ctx, s.pool).Exec(ctx, deleteSQL, coll, id)
	return postgres.MapError(err, coll, id)
}

const (
	upsertSQL = `INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	mergeSQL = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`

	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

// Commit applies every write in b inside one transaction using a single
// pgx.Batch round trip. Inside RunInTx the batch runs under a savepoint of
// the surrounding transaction.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	if b.Len() > s.maxOps {
		return fmt.Errorf("%d writes (max %d): %w", b.Len(), s.maxOps, docstore.ErrBatchTooLarge)
	}

	tx, err := postgres.BeginFromCtx(ctx, s.pool)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	writes := b.Writes()
	for _, w := range writes {
		switch w.Kind {
		case docstore.WriteSet:
			batch.Queue(upsertSQL, w.Collection, w.ID, string(w.Data))
		case docstore.WriteUpdate:
			batch.Queue(mergeSQL, w.Collection, w.ID, string(w.Data))
		case docstore.WriteDelete:
			batch.Queue(deleteSQL, w.Collection, w.ID)
		}
	}

	if err := execBatch(ctx, tx, batch, writes); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	s.log.DebugContext(ctx, "batch committed", slog.Int("writes", len(writes)))
	return nil
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, writes []docstore.Write) error {
	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for _, w := range writes {
		tag, err := br.Exec()
		if err != nil {
			return postgres.MapError(err, w.Collection, w.ID)
		}
		if w.Kind == docstore.WriteUpdate && tag.RowsAffected() == 0 {
			return fmt.Errorf("update %s %s: %w", w.Collection, w.ID, domain.ErrNotFound)
		}
	}
	return br.Close()
}
