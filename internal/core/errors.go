package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the concrete types carry details.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConsistency = errors.New("consistency error")
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrDirectionMatch   = errors.New("transaction direction does not match category type")
)

// ValidationError reports input the core refuses to persist.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError from a field sentinel such as ErrInvalidAmount.
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: err.Error(), Err: err}
}

// NotFoundError covers both missing and foreign-owned entities.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConsistencyError aborts a unit of work that would leave an account balance
// out of sync with its transactions.
type ConsistencyError struct {
	AccountID int64
	Reason    string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("account %d: %s", e.AccountID, e.Reason)
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }
