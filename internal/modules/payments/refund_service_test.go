package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedPayment(amount, cancelled int) Payment {
	status := StatusCompleted
	if cancelled > 0 {
		status = StatusPartiallyCancelled
	}
	return Payment{
		ID:             "pay-1",
		OrderID:        "ord-1",
		Status:         status,
		Currency:       "EUR",
		AmountCents:    amount,
		CancelledCents: cancelled,
	}
}

func TestPlanRefund_PartialThenFull(t *testing.T) {
	pay := completedPayment(10000, 0)

	plan, err := planRefund(pay, 4000)
	require.NoError(t, err)
	assert.Equal(t, 4000, plan.AmountCents)
	assert.Equal(t, 4000, plan.NewCancelledCents)
	assert.Equal(t, StatusPartiallyCancelled, plan.NewStatus)
	assert.False(t, plan.FullyRefunded)

	// apply and refund the rest
	pay.CancelledCents = plan.NewCancelledCents
	pay.Status = plan.NewStatus

	plan, err = planRefund(pay, 6000)
	require.NoError(t, err)
	assert.Equal(t, 6000, plan.AmountCents)
	assert.Equal(t, 10000, plan.NewCancelledCents)
	assert.Equal(t, StatusCancelled, plan.NewStatus)
	assert.True(t, plan.FullyRefunded)
}

func TestPlanRefund_DefaultsToFullRemaining(t *testing.T) {
	plan, err := planRefund(completedPayment(10000, 3000), 0)
	require.NoError(t, err)
	assert.Equal(t, 7000, plan.AmountCents)
	assert.Equal(t, 10000, plan.NewCancelledCents)
	assert.Equal(t, StatusCancelled, plan.NewStatus)
	assert.True(t, plan.FullyRefunded)
}

func TestPlanRefund_ExceedsRefundable(t *testing.T) {
	pay := completedPayment(10000, 4000)

	_, err := planRefund(pay, 7000)
	require.Error(t, err)

	var exceeds *RefundExceedsError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 7000, exceeds.RequestedCents)
	assert.Equal(t, 6000, exceeds.RefundableCents)
	assert.Contains(t, err.Error(), "6000") // message names the refundable figure
}

func TestPlanRefund_NegativeAmountRejected(t *testing.T) {
	pay := completedPayment(10000, 0)

	_, err := planRefund(pay, -1)
	require.ErrorIs(t, err, ErrNegativeAmount)

	// zero still means full remaining
	plan, err := planRefund(pay, 0)
	require.NoError(t, err)
	assert.Equal(t, 10000, plan.AmountCents)
}

func TestPlanRefund_StatusGate(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		allowed bool
	}{
		{"pending_rejected", StatusPending, false},
		{"failed_rejected", StatusFailed, false},
		{"fully_cancelled_rejected", StatusCancelled, false},
		{"completed_allowed", StatusCompleted, true},
		{"partially_cancelled_allowed", StatusPartiallyCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pay := completedPayment(10000, 0)
			pay.Status = tt.status
			if tt.status == StatusCancelled {
				pay.CancelledCents = pay.AmountCents
			}

			_, err := planRefund(pay, 1000)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				var notAllowed *RefundNotAllowedError
				require.ErrorAs(t, err, &notAllowed)
				assert.Equal(t, tt.status, notAllowed.Status)
			}
		})
	}
}

func TestPlanRefund_NothingLeft(t *testing.T) {
	// a partially cancelled payment with nothing left defaults to a
	// zero-remaining request, which always exceeds
	pay := completedPayment(10000, 10000)
	pay.Status = StatusPartiallyCancelled // inconsistent row, gate still holds

	_, err := planRefund(pay, 500)
	var exceeds *RefundExceedsError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 0, exceeds.RefundableCents)
}

func TestReplayResult(t *testing.T) {
	pay := completedPayment(10000, 4000)
	res := replayResult(pay, Refund{ID: "ref-1", AmountCents: 4000, Status: RefundCompleted})

	assert.True(t, res.Idempotent)
	assert.Equal(t, "ref-1", res.RefundID)
	assert.Equal(t, 4000, res.RefundedCents)
	assert.Equal(t, 4000, res.CancelledCents)
	assert.Equal(t, 6000, res.RemainingCents)
	assert.False(t, res.FullyRefunded)
}
