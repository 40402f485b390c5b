package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Store methods, usually wrapped with context.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrVersionConflict = errors.New("transfer was modified by another request")
)

// InvalidTransitionError is returned when a transfer status change is not
// allowed by the workflow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change transfer status from %s to %s", e.From, e.To)
}

// InsufficientStockError is returned when a transfer asks for more of an
// item than its warehouse holds.
type InsufficientStockError struct {
	InventoryID string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: have %d, need %d", e.InventoryID, e.Available, e.Requested)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
