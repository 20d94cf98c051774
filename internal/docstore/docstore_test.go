package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFields(t *testing.T) {
	t.Parallel()

	merged, err := MergeFields(
		json.RawMessage(`{"name":"Agua","quantity":3,"history":[{"type":"usage"}]}`),
		json.RawMessage(`{"quantity":0,"history":[]}`),
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Agua","quantity":0,"history":[]}`, string(merged))
}

func TestChunk(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [][2]int{{0, 400}, {400, 800}, {800, 901}}, Chunk(901, 400))
	assert.Equal(t, [][2]int{{0, 5}}, Chunk(5, 400))
	assert.Empty(t, Chunk(0, 400))
}

func TestBatch(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	require.NoError(t, b.Set(CollectionProducts, "p1", map[string]int{"quantity": 1}))
	require.NoError(t, b.Update(CollectionProducts, "p2", map[string]any{"quantity": 2}))
	b.Delete(CollectionJobs, "j1")

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{CollectionProducts, CollectionJobs}, b.Collections())
	assert.Equal(t, WriteUpdate, b.Writes()[1].Kind)
	assert.Equal(t, "delete", b.Writes()[2].Kind.String())
}
