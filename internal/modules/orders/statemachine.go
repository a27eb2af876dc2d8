package orders

import (
	"errors"
	"fmt"
)

// Status is the order lifecycle status. Transitions are validated by the
// table below; nothing may persist a status change without going through
// Transition (or an equivalent CanTransition check).
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPreparing Status = "preparing"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

var ErrInvalidTransition = errors.New("invalid order status transition")

// TransitionError names the rejected status change. It matches
// ErrInvalidTransition through errors.Is.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// allowedTransitions is the single source of truth for the order status
// graph. Cancellation is only reachable before the order ships; after that
// the return flow is the way back.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
	StatusDelivered: {StatusConfirmed},
	StatusConfirmed: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the status callers must
// persist. On an illegal change it returns a *TransitionError naming
// both statuses.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

// IsCancellable reports whether an order in this status may still be
// cancelled. Shipped and later orders go through the return flow instead.
func IsCancellable(s Status) bool {
	return CanTransition(s, StatusCancelled)
}

// IsTerminal reports whether no further transitions exist.
func IsTerminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}

// NextStatuses returns the legal next statuses, for admin tooling.
func NextStatuses(s Status) []Status {
	allowed := allowedTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// IsValid reports whether s is one of the known statuses.
func IsValid(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}
