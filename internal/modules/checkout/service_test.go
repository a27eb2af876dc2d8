package checkout

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"kavella.com/app/internal/modules/orders"
)

func TestShippingCents(t *testing.T) {
	assert.Equal(t, flatShippingCents, shippingCents(0))
	assert.Equal(t, flatShippingCents, shippingCents(14999))
	assert.Equal(t, 0, shippingCents(15000))
	assert.Equal(t, 0, shippingCents(100000))
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		discount int
		want     Totals
	}{
		{
			"no_discount_flat_shipping",
			10000, 0,
			Totals{TotalCents: 10000, DiscountCents: 0, ShippingCents: 500, FinalCents: 10500},
		},
		{
			"discount_drops_below_free_threshold",
			16000, 2000,
			Totals{TotalCents: 16000, DiscountCents: 2000, ShippingCents: 500, FinalCents: 14500},
		},
		{
			"free_shipping_after_discount",
			20000, 1000,
			Totals{TotalCents: 20000, DiscountCents: 1000, ShippingCents: 0, FinalCents: 19000},
		},
		{
			"discount_clamped_to_total",
			3000, 5000,
			Totals{TotalCents: 3000, DiscountCents: 3000, ShippingCents: 500, FinalCents: 500},
		},
		{
			"negative_discount_ignored",
			3000, -100,
			Totals{TotalCents: 3000, DiscountCents: 0, ShippingCents: 500, FinalCents: 3500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeTotals(tt.total, tt.discount))
		})
	}
}

func TestRestockLines(t *testing.T) {
	tests := []struct {
		name  string
		items []orders.OrderItem
		want  []StockLine
	}{
		{
			"empty", nil, []StockLine{},
		},
		{
			"single_line",
			[]orders.OrderItem{{VariantID: "v1", Quantity: 2}},
			[]StockLine{{VariantID: "v1", Qty: 2}},
		},
		{
			"aggregates_per_variant_sorted",
			[]orders.OrderItem{
				{VariantID: "v2", Quantity: 1},
				{VariantID: "v1", Quantity: 3},
				{VariantID: "v2", Quantity: 2},
			},
			[]StockLine{{VariantID: "v1", Qty: 3}, {VariantID: "v2", Qty: 3}},
		},
		{
			"skips_non_positive_quantities",
			[]orders.OrderItem{
				{VariantID: "v1", Quantity: 0},
				{VariantID: "v2", Quantity: 1},
			},
			[]StockLine{{VariantID: "v2", Qty: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, restockLines(tt.items))
		})
	}
}

func TestOutOfStockError_Message(t *testing.T) {
	err := &OutOfStockError{Items: []OutOfStockItem{{VariantID: "v1", Requested: 3, Available: 1}}}
	assert.Contains(t, err.Error(), "v1")
	assert.Contains(t, err.Error(), "requested=3")
	assert.Contains(t, err.Error(), "available=1")

	var target *OutOfStockError
	assert.True(t, errors.As(error(err), &target))
}

func TestIsRetryableMySQLError(t *testing.T) {
	assert.True(t, isRetryableMySQLError(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isRetryableMySQLError(&mysql.MySQLError{Number: 1205}))
	assert.False(t, isRetryableMySQLError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isRetryableMySQLError(errors.New("plain")))
	assert.False(t, isRetryableMySQLError(nil))
}
