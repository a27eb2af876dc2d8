package shipping

import (
	"errors"
	"fmt"
)

// Status is the shipment lifecycle. A strictly linear chain; there is no
// cancellation branch because order cancellation happens before a shipment
// reaches the carrier (see the order status table).
type Status string

const (
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
)

func (s Status) String() string { return string(s) }

var ErrInvalidTransition = errors.New("invalid shipment status transition")

// TransitionError names the rejected status change. It matches
// ErrInvalidTransition through errors.Is.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition shipment from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var allowedTransitions = map[Status][]Status{
	StatusPreparing: {StatusShipped},
	StatusShipped:   {StatusInTransit},
	StatusInTransit: {StatusDelivered},
	StatusDelivered: {},
}

func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the status to persist.
// Timestamps (shippedAt, deliveredAt) are owned by the caller.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

func IsTerminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}

func NextStatuses(s Status) []Status {
	allowed := allowedTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

func IsValid(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}
