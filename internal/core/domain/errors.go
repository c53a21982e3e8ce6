package domain

import "errors"

// Error kinds surfaced by the ledger. They are soft failures: callers get
// one of these back instead of a mutated ledger, and map them to responses.
var (
	ErrUnknownItem       = errors.New("unknown item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrIOFailure         = errors.New("export failed")
	ErrNotFound          = errors.New("export file not found")
	ErrLayoutMismatch    = errors.New("spreadsheet layout mismatch")
)

// SaleError pairs an error kind with the human readable message shown to
// the seller.
type SaleError struct {
	Kind    error
	Message string
}

func (e *SaleError) Error() string { return e.Message }

func (e *SaleError) Unwrap() error { return e.Kind }

// Message returns the seller facing text of err, falling back to err.Error().
func Message(err error) string {
	var se *SaleError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
