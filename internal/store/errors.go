package store

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyCheckedIn   = errors.New("already checked in")
	ErrNoActiveCheckIn    = errors.New("no active check-in")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStockEntryNotFound = errors.New("linked stock entry not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrInvalidRecipient   = errors.New("recipient must be a core team member")
	ErrLinkedToTransfer   = errors.New("stock entry belongs to a transfer")
)

// InsufficientStockError reports a deduction larger than the current balance.
type InsufficientStockError struct {
	ItemName  string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock: have %s kg, need %s kg", e.ItemName, e.Available, e.Required)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
