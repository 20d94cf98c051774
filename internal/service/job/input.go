package job

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// UsageInput is one consumption within a session. Amount and Restock are raw
// user input; an empty Restock means none.
type UsageInput struct {
	ProductID string
	Amount    string
	Restock   string
}

// parsed holds the validated numbers of a UsageInput.
type parsed struct {
	amount  decimal.Decimal
	restock decimal.Decimal
}

// Validate checks the input shape. The amount is checked against the stock
// when it is applied.
func (i UsageInput) Validate() error {
	_, err := i.parse()
	return err
}

func (i UsageInput) parse() (parsed, error) {
	var (
		out  parsed
		errs []domain.FieldError
	)

	if i.ProductID == "" {
		errs = append(errs, domain.FieldError{Field: "product_id", Message: "required"})
	}

	amount, err := domain.ParseQuantity("amount", i.Amount)
	if err != nil || !amount.IsPositive() {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "Solo se aceptan números válidos (mayores a 0)."})
	}
	out.amount = amount

	if strings.TrimSpace(i.Restock) != "" {
		restock, err := domain.ParseQuantity("restock", i.Restock)
		if err != nil || !restock.IsPositive() {
			errs = append(errs, domain.FieldError{Field: "restock", Message: "must be a number greater than 0"})
		}
		out.restock = restock
	}

	if len(errs) > 0 {
		return parsed{}, domain.NewValidationErrors(errs)
	}
	return out, nil
}
