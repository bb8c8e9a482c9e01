package domain

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"order not found", ErrOrderNotFound, OutcomeTerminal},
		{"user not found", ErrUserNotFound, OutcomeTerminal},
		{"not order owner", ErrNotOrderOwner, OutcomeTerminal},
		{"illegal transition", ErrIllegalTransition, OutcomeTerminal},
		{"reference assigned", ErrReferenceAssigned, OutcomeTerminal},
		{"wrapped sentinel stays terminal", fmt.Errorf("lookup: %w", ErrOrderNotFound), OutcomeTerminal},
		{"pkg/errors wrapped sentinel stays terminal", pkgerrors.Wrap(ErrUserNotFound, "repo"), OutcomeTerminal},
		{"payment failure is retryable", &PaymentError{Reason: "insufficient funds"}, OutcomeRetryable},
		{"generic infrastructure error is retryable", errors.New("dial tcp: connection refused"), OutcomeRetryable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "RETRYABLE", OutcomeRetryable.String())
	assert.Equal(t, "TERMINAL", OutcomeTerminal.String())
}

func TestPaymentError_Error(t *testing.T) {
	err := &PaymentError{Reason: "card declined"}
	assert.Contains(t, err.Error(), "card declined")
}
