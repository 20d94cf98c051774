package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxHistoryEntries is the number of ledger entries kept per product.
const MaxHistoryEntries = 30

// UnknownUser is recorded when a mutation has no authenticated actor.
const UnknownUser = "Desconocido"

// HistoryType classifies a ledger entry.
type HistoryType string

const (
	HistoryRestock     HistoryType = "restock"
	HistoryUsage       HistoryType = "usage"
	HistoryEdit        HistoryType = "edit"
	HistoryDetailsEdit HistoryType = "details_edit"
)

func (t HistoryType) String() string { return string(t) }

func (t HistoryType) IsValid() bool {
	switch t {
	case HistoryRestock, HistoryUsage, HistoryEdit, HistoryDetailsEdit:
		return true
	}
	return false
}

// HistoryEntry is an immutable record of one change to a product.
// Amount is set for restock/usage, Previous/New for quantity changes and
// Changes for details edits.
type HistoryEntry struct {
	Timestamp int64            `json:"timestamp"`
	Type      HistoryType      `json:"type"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Previous  *decimal.Decimal `json:"previous,omitempty"`
	New       *decimal.Decimal `json:"new,omitempty"`
	Changes   []string         `json:"changes,omitempty"`
	User      string           `json:"user,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
}

// Time converts the entry timestamp to a time.Time.
func (e HistoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Day returns the local calendar day of the entry as YYYY-MM-DD.
func (e HistoryEntry) Day() string {
	return e.Time().Format(time.DateOnly)
}

// PrependHistory returns a new slice with entry in front of history,
// truncated to MaxHistoryEntries. The input slice is not modified.
func PrependHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	n := len(history) + 1
	if n > MaxHistoryEntries {
		n = MaxHistoryEntries
	}
	out := make([]HistoryEntry, 0, n)
	out = append(out, entry)
	for _, h := range history {
		if len(out) == n {
			break
		}
		out = append(out, h)
	}
	return out
}

// CapHistory truncates history to MaxHistoryEntries, keeping the newest.
func CapHistory(history []HistoryEntry) []HistoryEntry {
	if len(history) <= MaxHistoryEntries {
		return history
	}
	return history[:MaxHistoryEntries]
}

// WithoutSession returns history minus every entry stamped with sessionID,
// and how many entries were removed.
func WithoutSession(history []HistoryEntry, sessionID string) ([]HistoryEntry, int) {
	out := make([]HistoryEntry, 0, len(history))
	for _, h := range history {
		if sessionID != "" && h.SessionID == sessionID {
			continue
		}
		out = append(out, h)
	}
	return out, len(history) - len(out)
}

// HistoryRecord is a ledger entry flattened together with its product, as
// shown in the global history view.
type HistoryRecord struct {
	ProductID   string
	ProductName string
	Unit        string
	Entry       HistoryEntry
}

// HistoryFilter narrows the global ledger. Search matches product names
// case-insensitively; Date is YYYY-MM-DD.
type HistoryFilter struct {
	Search string
	Date   string
}

func qty(d decimal.Decimal) *decimal.Decimal { return &d }
