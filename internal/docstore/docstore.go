// Package docstore defines the backend-neutral shapes exchanged with the
// remote document store: documents, equality filters, change callbacks and
// atomic write batches.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Collections used by the application.
const (
	CollectionProducts      = "products"
	CollectionJobs          = "jobs"
	CollectionUsers         = "users"
	CollectionAnnouncements = "announcements"
)

// DefaultMaxBatchOps is the largest number of writes accepted by one Commit.
const DefaultMaxBatchOps = 500

// ErrBatchTooLarge is returned by Commit when a batch exceeds the store limit.
var ErrBatchTooLarge = errors.New("batch exceeds max operations")

// Document is a stored JSON object addressed by collection and id.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Filter matches documents whose top-level Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// ChangeFunc receives the full current contents of a subscribed collection.
type ChangeFunc func(docs []Document)

// ErrorFunc receives feed errors. The subscription keeps retrying.
type ErrorFunc func(err error)

// WriteKind is the operation carried by a batched write.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
)

func (k WriteKind) String() string {
	switch k {
	case WriteSet:
		return "set"
	case WriteUpdate:
		return "update"
	case WriteDelete:
		return "delete"
	}
	return fmt.Sprintf("WriteKind(%d)", int(k))
}

// Write is one operation inside a Batch. Data holds the full document for
// WriteSet and the merged top-level fields for WriteUpdate.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       json.RawMessage
}

// Batch accumulates writes that must be applied all-or-nothing.
type Batch struct {
	writes []Write
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set queues a full overwrite (or insert) of a document.
func (b *Batch) Set(collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	b.writes = append(b.writes, Write{Kind: WriteSet, Collection: collection, ID: id, Data: data})
	return nil
}

// Update queues a merge of fields into an existing document. Committing an
// update of a missing document fails the whole batch.
func (b *Batch) Update(collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	b.writes = append(b.writes, Write{Kind: WriteUpdate, Collection: collection, ID: id, Data: data})
	return nil
}

// Delete queues removal of a document. Deleting a missing document is not an
// error.
func (b *Batch) Delete(collection, id string) {
	b.writes = append(b.writes, Write{Kind: WriteDelete, Collection: collection, ID: id})
}

// Len returns the number of queued writes.
func (b *Batch) Len() int { return len(b.writes) }

// Writes returns the queued writes in order.
func (b *Batch) Writes() []Write { return b.writes }

// Collections returns the distinct collections the batch touches.
func (b *Batch) Collections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range b.writes {
		if _, ok := seen[w.Collection]; ok {
			continue
		}
		seen[w.Collection] = struct{}{}
		out = append(out, w.Collection)
	}
	return out
}

// MergeFields merges the top-level fields of patch into the JSON object doc.
func MergeFields(doc, patch json.RawMessage) (json.RawMessage, error) {
	var base map[string]json.RawMessage
	if err := json.Unmarshal(doc, &base); err != nil {
		return nil, fmt.Errorf("decode base: %w", err)
	}
	if base == nil {
		base = make(map[string]json.RawMessage)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	for k, v := range fields {
		base[k] = v
	}
	return json.Marshal(base)
}

// Chunk splits n items into consecutive [start, end) ranges of at most size.
func Chunk(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
