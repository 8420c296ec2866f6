package models

import (
	"errors"
	"fmt"
)

// ErrorStockItemMissing is returned when a ledger event references a stock
// item row that no longer exists for the restaurant.
var ErrorStockItemMissing = errInput("stock item not found")

// ErrBadInput is the match target for errors.Is on any user-correctable
// validation failure. The transport maps these to 400; anything unclassified
// is a server-side failure.
var ErrBadInput = errors.New("invalid input")

// InputError is a validation failure message; errors.Is matches it against
// ErrBadInput.
type InputError string

func errInput(msg string) error { return InputError(msg) }

func (e InputError) Error() string { return string(e) }

func (e InputError) Is(target error) bool { return target == ErrBadInput }

// ErrInsufficientStock is the match target for errors.Is on any
// InsufficientStockError, whichever item it names.
var ErrInsufficientStock = errors.New("not enough stock")

// InsufficientStockError is returned when a sale line, an OUT movement or a
// guarded reversal would drive a stock item's quantity below zero. The
// attempted event leaves no partial state behind.
type InsufficientStockError struct {
	ItemName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ItemName)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
