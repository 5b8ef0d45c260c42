package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals that a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock signals that a single stock delta would drive a
	// stock level below zero. The aggregated, per-line form reported to
	// callers of order creation is InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockConflict signals that a compare-and-set stock update observed
	// a stock level different from the one read during validation.
	ErrStockConflict = errors.New("stock level changed since read")

	// ErrDuplicateRequest signals that an idempotency key was already used.
	ErrDuplicateRequest = errors.New("duplicate request")

	ErrNameTaken          = errors.New("inventory item name already in use")
	ErrEmailTaken         = errors.New("email already in use")
	ErrNotInvited         = errors.New("email has not been invited")
	ErrAlreadyRegistered  = errors.New("account already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotActive      = errors.New("user account is not active")
	ErrSelfDeletion       = errors.New("cannot delete own account")
)

// LineProblem describes one unsatisfiable line of a requested order.
type LineProblem struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Missing   bool   `json:"missing"`
}

func (p LineProblem) String() string {
	if p.Missing {
		return fmt.Sprintf("inventory item %s not found", p.ItemID)
	}
	return fmt.Sprintf("insufficient stock for item %q: requested %d, available %d",
		p.ItemName, p.Requested, p.Available)
}

// InsufficientStockError aggregates every unsatisfiable line found during
// pre-validation. It is returned before any write has been performed.
type InsufficientStockError struct {
	Problems []LineProblem
}

func (e *InsufficientStockError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return "order cannot be fulfilled: " + strings.Join(msgs, "; ")
}

// PersistenceError signals that a remote store call failed or returned an
// unexpected shape. When returned from order creation it means partial
// state may have been written and compensated.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": persistence failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
