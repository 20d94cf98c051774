package testhelper

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Collection returns a collection name no other test uses, so tests can
// share one database without cleaning up.
func Collection(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

// SeedDocument inserts a raw document and returns its id.
func SeedDocument(t *testing.T, pool *pgxpool.Pool, collection string, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("testhelper: SeedDocument encode: %v", err)
	}

	id := uuid.NewString()
	_, err = pool.Exec(context.Background(),
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(data),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDocument insert: %v", err)
	}
	return id
}
