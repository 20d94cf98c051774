package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// JobAction is what a job detail did to a product.
type JobAction string

const (
	JobActionUsed      JobAction = "used"
	JobActionRestocked JobAction = "restocked"
)

// Job groups the mutations of one usage session so they can be reverted
// together.
type Job struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	User      string      `json:"user"`
	Role      Role        `json:"role"`
	Summary   []string    `json:"summary"`
	Details   []JobDetail `json:"details"`
	SessionID string      `json:"sessionId"`
}

// JobDetail is one signed quantity change applied during the session.
type JobDetail struct {
	ProductID   string          `json:"productId"`
	Delta       decimal.Decimal `json:"delta"`
	ProductName string          `json:"productName,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Action      JobAction       `json:"action,omitempty"`
	PreviousQty decimal.Decimal `json:"previousQty"`
	NewQty      decimal.Decimal `json:"newQty"`
}

// SummaryLine renders the detail as shown to the operator, e.g.
// "Agua Mineral: usaste 3 botellas".
func (d JobDetail) SummaryLine() string {
	verb := "usaste"
	if d.Action == JobActionRestocked {
		verb = "agregaste"
	}
	return fmt.Sprintf("%s: %s %s %s", d.ProductName, verb, d.Delta.Abs().String(), d.Unit)
}

// ProductIDs returns the distinct products touched by the job in first-seen
// order.
func (j *Job) ProductIDs() []string {
	seen := make(map[string]struct{}, len(j.Details))
	ids := make([]string, 0, len(j.Details))
	for _, d := range j.Details {
		if _, ok := seen[d.ProductID]; ok {
			continue
		}
		seen[d.ProductID] = struct{}{}
		ids = append(ids, d.ProductID)
	}
	return ids
}
