package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessagesWithoutCause(t *testing.T) {
	// zero-value errors reach Error() through handler logging and must not panic
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "statement", err: &StatementPSQLError{}, expected: "could not compile"},
		{name: "execution", err: &ExecutionPSQLError{}, expected: "could not execute"},
		{name: "scanning", err: &ScanningPSQLError{}, expected: "could not scan"},
		{name: "not found", err: &NotFoundError{}, expected: "not found"},
		{name: "not enough funds", err: &NotEnoughFundsError{}, expected: "not enough funds"},
		{name: "context timeout", err: &ContextTimeoutExceededError{}, expected: "context timeout exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorMessagesWithCause(t *testing.T) {
	err := &ContextTimeoutExceededError{Err: context.DeadlineExceeded}
	assert.Equal(t, "context deadline exceeded: context timeout exceeded", err.Error())
	assert.Equal(t, "user@example.com: already exists", (&AlreadyExistsError{ID: "user@example.com"}).Error())
}
