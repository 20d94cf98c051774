package inventory

import (
	"strings"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// CreateProductInput holds the parameters for creating a product.
// Quantity is raw user input.
type CreateProductInput struct {
	Name        string
	Description string
	Unit        string
	Image       string
	Quantity    string
}

// Validate checks all fields and collects all errors.
func (i CreateProductInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(i.Name) > 200 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 200 characters"})
	}
	if strings.TrimSpace(i.Unit) == "" {
		errs = append(errs, domain.FieldError{Field: "unit", Message: "required"})
	}
	if strings.TrimSpace(i.Quantity) == "" {
		errs = append(errs, domain.FieldError{Field: "quantity", Message: "required"})
	} else if q, err := domain.ParseQuantity("quantity", i.Quantity); err != nil {
		errs = append(errs, domain.FieldError{Field: "quantity", Message: "must be a number"})
	} else if q.IsNegative() {
		errs = append(errs, domain.FieldError{Field: "quantity", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// PurgeInput guards permanent deletion behind an explicit confirmation.
type PurgeInput struct {
	ProductID string
	Confirm   bool
}

// Validate checks all fields and collects all errors.
func (i PurgeInput) Validate() error {
	var errs []domain.FieldError
	if i.ProductID == "" {
		errs = append(errs, domain.FieldError{Field: "product_id", Message: "required"})
	}
	if !i.Confirm {
		errs = append(errs, domain.FieldError{Field: "confirm", Message: "permanent deletion must be confirmed"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
