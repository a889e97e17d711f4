// Package errors provides custom storage error types.
package errors

import (
	"fmt"
)

type (
	StatementPSQLError struct {
		Err error
	}
	AlreadyExistsError struct {
		Err error
		ID  string
	}
	ExecutionPSQLError struct {
		Err error
	}
	ScanningPSQLError struct {
		Err error
	}
	NotFoundError struct {
		Err error
	}
	NotEnoughFundsError struct {
		Err error
	}
	ContextTimeoutExceededError struct {
		Err error
	}
)

func (e *StatementPSQLError) Error() string {
	if e.Err == nil {
		return "could not compile"
	}
	return fmt.Sprintf("%s: could not compile", e.Err.Error())
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: already exists", e.ID)
}

func (e *ExecutionPSQLError) Error() string {
	if e.Err == nil {
		return "could not execute"
	}
	return fmt.Sprintf("%s: could not execute", e.Err.Error())
}

func (e *ScanningPSQLError) Error() string {
	if e.Err == nil {
		return "could not scan"
	}
	return fmt.Sprintf("%s: could not scan", e.Err.Error())
}

func (e *NotFoundError) Error() string {
	return "not found"
}

func (e *NotEnoughFundsError) Error() string {
	return "not enough funds"
}

func (e *ContextTimeoutExceededError) Error() string {
	if e.Err == nil {
		return "context timeout exceeded"
	}
	return fmt.Sprintf("%s: context timeout exceeded", e.Err.Error())
}
