package payments

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("payment not found")
	ErrOrderNotPayable = errors.New("order not payable")
	ErrForbidden       = errors.New("forbidden")
	ErrReasonRequired  = errors.New("refund reason is required")
	ErrNegativeAmount  = errors.New("refund amount must not be negative")
	ErrNotCancellable  = errors.New("order not cancellable")
	ErrConflict        = errors.New("concurrent payment update, retry")
)

// RefundNotAllowedError: the payment status does not admit a refund (only
// completed and partially_cancelled payments are refundable).
type RefundNotAllowedError struct {
	PaymentID string
	Status    string
}

func (e *RefundNotAllowedError) Error() string {
	return fmt.Sprintf("refund not allowed: payment %s has status %s", e.PaymentID, e.Status)
}

// RefundExceedsError: the requested amount is above the remaining
// refundable amount.
type RefundExceedsError struct {
	RequestedCents  int
	RefundableCents int
}

func (e *RefundExceedsError) Error() string {
	return fmt.Sprintf("refund exceeds available amount: requested %d, refundable %d", e.RequestedCents, e.RefundableCents)
}

// RefundFailedError: the gateway reported failure; no local state changed.
type RefundFailedError struct {
	Cause error
}

func (e *RefundFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("refund failed: %v", e.Cause)
	}
	return "refund failed"
}

func (e *RefundFailedError) Unwrap() error { return e.Cause }
