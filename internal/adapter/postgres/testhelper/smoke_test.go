package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	coll := Collection("smoke")
	id := SeedDocument(t, pool, coll, map[string]any{"name": "Agua Mineral"})

	var name string
	err := pool.QueryRow(
		context.Background(),
		`SELECT data->>'name' FROM documents WHERE collection = $1 AND id = $2`,
		coll, id,
	).Scan(&name)
	if err != nil {
		t.Fatalf("expected document in DB, got error: %v", err)
	}

	if name != "Agua Mineral" {
		t.Fatalf("expected name %q, got %q", "Agua Mineral", name)
	}
}
