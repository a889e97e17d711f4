// Package errors provides custom ledger service error types.
package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	// InvalidAmountError rejects a non-positive amount before storage is
	// touched.
	InvalidAmountError struct {
		Amount string
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: amount must be positive", e.Amount)
}
