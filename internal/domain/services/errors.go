package services

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoute             = errors.New("no route found")
	ErrInvalidQuoteRequest = errors.New("invalid quote request")
	ErrInvalidMaxHops      = errors.New("max hops out of range")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrMalformedTrace      = errors.New("malformed simulation trace")
	ErrZeroAmount          = errors.New("simulated amount is zero")
)

// RevertError carries the node's revert reason for a simulated candidate
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction reverted: %s", e.Reason)
}

func (e *RevertError) Unwrap() error {
	return ErrTransactionReverted
}
