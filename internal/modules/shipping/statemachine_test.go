package shipping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavella.com/app/internal/modules/orders"
)

var allStatuses = []Status{StatusPreparing, StatusShipped, StatusInTransit, StatusDelivered}

func TestTransition_LinearChain(t *testing.T) {
	chain := []Status{StatusPreparing, StatusShipped, StatusInTransit, StatusDelivered}

	for i, from := range chain {
		for j, to := range chain {
			got, err := Transition(from, to)
			if j == i+1 {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
			} else {
				require.Error(t, err, "%s -> %s must be rejected", from, to)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusDelivered))
	for _, s := range []Status{StatusPreparing, StatusShipped, StatusInTransit} {
		assert.False(t, IsTerminal(s))
	}
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []Status{StatusShipped}, NextStatuses(StatusPreparing))
	assert.Empty(t, NextStatuses(StatusDelivered))
}

func TestOrderSyncTarget(t *testing.T) {
	tests := []struct {
		name        string
		shipStatus  Status
		orderStatus orders.Status
		wantTarget  orders.Status
		wantSync    bool
	}{
		{"shipped_advances_preparing_order", StatusShipped, orders.StatusPreparing, orders.StatusShipping, true},
		{"delivered_advances_shipping_order", StatusDelivered, orders.StatusShipping, orders.StatusDelivered, true},
		{"shipped_leaves_paid_order_alone", StatusShipped, orders.StatusPaid, "", false},
		{"shipped_leaves_cancelled_order_alone", StatusShipped, orders.StatusCancelled, "", false},
		{"delivered_leaves_preparing_order_alone", StatusDelivered, orders.StatusPreparing, "", false},
		{"in_transit_never_syncs", StatusInTransit, orders.StatusShipping, "", false},
		{"preparing_never_syncs", StatusPreparing, orders.StatusPreparing, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := orderSyncTarget(tt.shipStatus, tt.orderStatus)
			assert.Equal(t, tt.wantSync, ok)
			if tt.wantSync {
				assert.Equal(t, tt.wantTarget, target)
				// the sync target must itself be a legal order transition
				assert.True(t, orders.CanTransition(tt.orderStatus, target))
			}
		})
	}
}
