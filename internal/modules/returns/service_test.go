package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kavella.com/app/internal/modules/orders"
)

func TestReturnable(t *testing.T) {
	assert.True(t, returnable(orders.StatusDelivered))
	assert.True(t, returnable(orders.StatusConfirmed))

	for _, s := range []orders.Status{
		orders.StatusPending, orders.StatusPaid, orders.StatusPreparing,
		orders.StatusShipping, orders.StatusCancelled,
	} {
		assert.False(t, returnable(s), "status %s must not accept returns", s)
	}
}

func TestWithinWindow(t *testing.T) {
	now := time.Now()
	confirmed := now.Add(-10 * 24 * time.Hour)

	ord := orders.Order{UpdatedAt: now.Add(-30 * 24 * time.Hour), ConfirmedAt: &confirmed}
	assert.True(t, withinWindow(ord, now), "confirm stamp wins over updated_at")

	late := now.Add(-15 * 24 * time.Hour)
	ord.ConfirmedAt = &late
	assert.False(t, withinWindow(ord, now))

	ord.ConfirmedAt = nil
	ord.UpdatedAt = now.Add(-2 * 24 * time.Hour)
	assert.True(t, withinWindow(ord, now))
}

func TestRefundCents(t *testing.T) {
	item := orders.OrderItem{UnitPriceCents: 2500, Quantity: 3, LineTotalCents: 7500}

	tests := []struct {
		name    string
		qty     int
		want    int
		wantErr error
	}{
		{"one_unit", 1, 2500, nil},
		{"all_units", 3, 7500, nil},
		{"zero", 0, 0, ErrBadQuantity},
		{"negative", -1, 0, ErrBadQuantity},
		{"over_ordered", 4, 0, ErrBadQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := refundCents(item, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefundCents_CappedAtLineTotal(t *testing.T) {
	// discounted line: unit*qty exceeds the charged line total
	item := orders.OrderItem{UnitPriceCents: 3000, Quantity: 2, LineTotalCents: 5000}
	got, err := refundCents(item, 2)
	assert.NoError(t, err)
	assert.Equal(t, 5000, got)
}
