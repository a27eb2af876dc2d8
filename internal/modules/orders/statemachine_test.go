package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusPaid, StatusPreparing, StatusShipping,
	StatusDelivered, StatusConfirmed, StatusCancelled,
}

func TestTransition_FullMatrix(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:   {StatusPaid: true, StatusCancelled: true},
		StatusPaid:      {StatusPreparing: true, StatusCancelled: true},
		StatusPreparing: {StatusShipping: true, StatusCancelled: true},
		StatusShipping:  {StatusDelivered: true},
		StatusDelivered: {StatusConfirmed: true},
		StatusConfirmed: {},
		StatusCancelled: {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			got, err := Transition(from, to)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s must be allowed", from, to)
				assert.Equal(t, to, got, "Transition must return the target status")
			} else {
				require.Error(t, err, "%s -> %s must be rejected", from, to)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				assert.Contains(t, err.Error(), string(from))
				assert.Contains(t, err.Error(), string(to))
			}
			assert.Equal(t, allowed[from][to], CanTransition(from, to))
		}
	}
}

func TestTransitionErrorNamesBothStatuses(t *testing.T) {
	_, err := Transition(StatusPending, StatusDelivered)
	require.Error(t, err)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusPending, te.From)
	assert.Equal(t, StatusDelivered, te.To)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusConfirmed))
	assert.True(t, IsTerminal(StatusCancelled))
	for _, s := range []Status{StatusPending, StatusPaid, StatusPreparing, StatusShipping, StatusDelivered} {
		assert.False(t, IsTerminal(s), "%s is not terminal", s)
	}
}

func TestIsCancellable(t *testing.T) {
	assert.True(t, IsCancellable(StatusPending))
	assert.True(t, IsCancellable(StatusPaid))
	assert.True(t, IsCancellable(StatusPreparing))

	// after shipment, cancellation goes through the return flow
	assert.False(t, IsCancellable(StatusShipping))
	assert.False(t, IsCancellable(StatusDelivered))
	assert.False(t, IsCancellable(StatusConfirmed))
	assert.False(t, IsCancellable(StatusCancelled))
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusPaid, StatusCancelled}, NextStatuses(StatusPending))
	assert.Empty(t, NextStatuses(StatusConfirmed))

	// mutating the returned slice must not corrupt the table
	next := NextStatuses(StatusPending)
	next[0] = StatusDelivered
	assert.ElementsMatch(t, []Status{StatusPaid, StatusCancelled}, NextStatuses(StatusPending))
}

func TestIsValid(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, IsValid(s))
	}
	assert.False(t, IsValid(Status("refunded")))
	assert.False(t, IsValid(Status("")))
}
