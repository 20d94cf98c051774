package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted documents and backups carry quantities as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Change labels recorded on activation toggles.
const (
	ChangeDeactivated = "Producto desactivado"
	ChangeReactivated = "Producto restaurado"
)

// Product is a stocked item together with its bounded ledger.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	IsActive    bool            `json:"isActive"`
	History     []HistoryEntry  `json:"history"`
}

// UnmarshalJSON treats a missing isActive as active, matching documents
// written before soft delete existed.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		IsActive *bool `json:"isActive"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

// MarshalJSON always emits history as an array.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	out := plain(p)
	if out.History == nil {
		out.History = []HistoryEntry{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy safe to hand to readers.
func (p Product) Clone() Product {
	out := p
	if p.History != nil {
		out.History = make([]HistoryEntry, len(p.History))
		copy(out.History, p.History)
	}
	return out
}

// ApplyDelta adds delta to the quantity, clamping at zero, and records a
// restock or usage entry. The patch covers quantity and history.
func (p *Product) ApplyDelta(delta decimal.Decimal, at time.Time, user, sessionID string) ProductPatch {
	prev := p.Quantity
	next := ClampQuantity(prev.Add(delta))
	typ := HistoryUsage
	if delta.IsPositive() {
		typ = HistoryRestock
	}
	p.Quantity = next
	p.History = PrependHistory(p.History, HistoryEntry{
		Timestamp: at.UnixMilli(),
		Type:      typ,
		Amount:    qty(delta),
		Previous:  qty(prev),
		New:       qty(next),
		User:      user,
		SessionID: sessionID,
	})
	return ProductPatch{Quantity: &p.Quantity, History: p.History}
}

// SetQuantity overwrites the quantity and records an edit entry.
func (p *Product) SetQuantity(q decimal.Decimal, at time.Time, user string) ProductPatch {
	prev := p.Quantity
	p.Quantity = ClampQuantity(q)
	p.History = PrependHistory(p.History, HistoryEntry{
		Timestamp: at.UnixMilli(),
		Type:      HistoryEdit,
		Previous:  qty(prev),
		New:       qty(p.Quantity),
		User:      user,
	})
	return ProductPatch{Quantity: &p.Quantity, History: p.History}
}

// ApplyDetails copies the allow-listed fields of u onto p and returns the
// names of the fields whose value changed. A details_edit entry is recorded
// only when something changed.
func (p *Product) ApplyDetails(u DetailsUpdate, at time.Time, user string) (ProductPatch, []string) {
	var changed []string
	patch := ProductPatch{}
	if u.Name != nil {
		patch.Name = u.Name
		if *u.Name != p.Name {
			changed = append(changed, "name")
			p.Name = *u.Name
		}
	}
	if u.Description != nil {
		patch.Description = u.Description
		if *u.Description != p.Description {
			changed = append(changed, "description")
			p.Description = *u.Description
		}
	}
	if u.Unit != nil {
		patch.Unit = u.Unit
		if *u.Unit != p.Unit {
			changed = append(changed, "unit")
			p.Unit = *u.Unit
		}
	}
	if len(changed) > 0 {
		p.History = PrependHistory(p.History, HistoryEntry{
			Timestamp: at.UnixMilli(),
			Type:      HistoryDetailsEdit,
			Changes:   changed,
			User:      user,
		})
		patch.History = p.History
	}
	return patch, changed
}

// SetActive toggles soft deletion and records it as a details edit.
func (p *Product) SetActive(active bool, at time.Time, user string) ProductPatch {
	label := ChangeDeactivated
	if active {
		label = ChangeReactivated
	}
	p.IsActive = active
	p.History = PrependHistory(p.History, HistoryEntry{
		Timestamp: at.UnixMilli(),
		Type:      HistoryDetailsEdit,
		Changes:   []string{label},
		User:      user,
	})
	return ProductPatch{IsActive: &p.IsActive, History: p.History}
}

// Normalize enforces the stored-state rules on a product read from an
// untrusted source such as a backup file.
func (p *Product) Normalize() {
	p.Quantity = ClampQuantity(p.Quantity)
	p.History = CapHistory(p.History)
	if p.History == nil {
		p.History = []HistoryEntry{}
	}
}

// DetailsUpdate is the set of descriptive fields a details edit may touch.
// Nil fields are left unchanged. Quantity, history and image are not editable
// this way.
type DetailsUpdate struct {
	Name        *string
	Description *string
	Unit        *string
}

func (u DetailsUpdate) Validate() error {
	var errs []FieldError
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if u.Unit != nil && strings.TrimSpace(*u.Unit) == "" {
		errs = append(errs, FieldError{Field: "unit", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// ProductPatch is the explicit allow-list of product fields a partial update
// may write. A non-nil History replaces the stored history.
type ProductPatch struct {
	Name        *string
	Description *string
	Unit        *string
	Quantity    *decimal.Decimal
	IsActive    *bool
	History     []HistoryEntry
}

// Fields returns the patch as document fields keyed by their JSON names.
func (p ProductPatch) Fields() map[string]any {
	out := make(map[string]any, 6)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Unit != nil {
		out["unit"] = *p.Unit
	}
	if p.Quantity != nil {
		out["quantity"] = *p.Quantity
	}
	if p.IsActive != nil {
		out["isActive"] = *p.IsActive
	}
	if p.History != nil {
		out["history"] = p.History
	}
	return out
}

// IsEmpty reports whether the patch writes nothing.
func (p ProductPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// ClampQuantity returns q, or zero when q is negative.
func ClampQuantity(q decimal.Decimal) decimal.Decimal {
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// Bounds on a single quantity: up to nine integer digits and six decimals.
const (
	QuantityDecimals = 6
	maxQuantityInput = 64
)

// MaxQuantity is the exclusive upper bound of an entered or restored quantity.
var MaxQuantity = decimal.New(1, 9)

// QuantityInRange reports whether |d| < MaxQuantity with at most
// QuantityDecimals significant decimals. The exponent is checked before any
// arithmetic, so values such as 1e100000000 are rejected without being
// expanded.
func QuantityInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > 9 || exp < -(QuantityDecimals+18) {
		return false
	}
	if d.Coefficient().BitLen() > 128 {
		return false
	}
	if !d.Abs().LessThan(MaxQuantity) {
		return false
	}
	return exp >= -QuantityDecimals || d.Equal(d.Truncate(QuantityDecimals))
}

// ParseQuantity parses user input such as "3", "2.5" or "2,5". Values outside
// QuantityInRange are a ValidationError.
func ParseQuantity(field, raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return decimal.Zero, NewValidationError(field, "required")
	}
	if len(s) > maxQuantityInput {
		return decimal.Zero, NewValidationError(field, "number is too long")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError(field, fmt.Sprintf("%q is not a number", raw))
	}
	if !QuantityInRange(d) {
		return decimal.Zero, NewValidationError(field,
			fmt.Sprintf("must be below %s with at most %d decimals", MaxQuantity, QuantityDecimals))
	}
	return d.Truncate(QuantityDecimals), nil
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}
