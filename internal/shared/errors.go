package shared

import "errors"

var (
	// ErrNotFound indicates a customer, model, invoice or rate is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed request or an inverted date range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStock indicates a requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates an internal inconsistency, e.g. the allocator
	// exhausted all lots while the deduction counter was still positive.
	ErrConflict = errors.New("conflict")
)
