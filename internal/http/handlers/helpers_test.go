package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/modules/shipping"
	"kavella.com/app/internal/shared/apperr"
)

func TestTranslate_OrderTransitionNamesBothStatuses(t *testing.T) {
	_, err := orders.Transition(orders.StatusShipping, orders.StatusCancelled)
	require.Error(t, err)

	ae := Translate(err)
	assert.Equal(t, apperr.Conflict, ae.Kind)
	assert.Equal(t, "invalid_transition", ae.Code)
	assert.Contains(t, ae.PublicMsg, "shipping")
	assert.Contains(t, ae.PublicMsg, "cancelled")
	assert.Equal(t, "shipping", ae.Fields["from"])
	assert.Equal(t, "cancelled", ae.Fields["to"])
}

func TestTranslate_ShipmentTransitionNamesBothStatuses(t *testing.T) {
	_, err := shipping.Transition(shipping.StatusDelivered, shipping.StatusPreparing)
	require.Error(t, err)

	ae := Translate(err)
	assert.Equal(t, apperr.Conflict, ae.Kind)
	assert.Equal(t, "invalid_transition", ae.Code)
	assert.Contains(t, ae.PublicMsg, "delivered")
	assert.Contains(t, ae.PublicMsg, "preparing")
}

func TestTranslate_BareTransitionSentinelStaysGeneric(t *testing.T) {
	ae := Translate(orders.ErrInvalidTransition)
	assert.Equal(t, "invalid_transition", ae.Code)
	assert.Equal(t, "The order cannot change to that status.", ae.PublicMsg)
	assert.Nil(t, ae.Fields)
}

func TestTranslate_NegativeRefundAmount(t *testing.T) {
	ae := Translate(payments.ErrNegativeAmount)
	assert.Equal(t, apperr.Invalid, ae.Kind)
	assert.Equal(t, "negative_amount", ae.Code)
	assert.Contains(t, ae.Fields, "amount_cents")
}

func TestTranslate_PassthroughAndFallback(t *testing.T) {
	in := apperr.NotFoundErr("Order not found.").WithCode("order_not_found")
	assert.Same(t, in, Translate(in))

	ae := Translate(errors.New("dial tcp: refused"))
	assert.Equal(t, apperr.Internal, ae.Kind)
	assert.Equal(t, "Something went wrong.", apperr.PublicMessage(ae))
}
