package account

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAddress is returned when a balance change names no address.
	ErrEmptyAddress = errors.New("empty address")

	// ErrBalanceOverflow is returned when a credit would overflow a balance.
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrNotLocked is returned when a batch touches an address it does not hold.
	ErrNotLocked = errors.New("address not locked by batch")
)

// InsufficientFundsError is returned when a debit exceeds the balance.
type InsufficientFundsError struct {
	Address   string
	Required  uint64
	Available uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s has %d, needs %d", e.Address, e.Available, e.Required)
}
