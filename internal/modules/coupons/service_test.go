package coupons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func validCoupon() Coupon {
	now := time.Now()
	return Coupon{
		ID:           "cpn-1",
		Code:         "WELCOME",
		Active:       true,
		DiscountType: TypeFixed,
		Value:        5000,
		ValidFrom:    now.Add(-time.Hour),
		ValidUntil:   now.Add(time.Hour),
	}
}

func TestComputeDiscount_FixedCappedAtOrderAmount(t *testing.T) {
	c := validCoupon() // fixed 5000
	assert.Equal(t, 3000, ComputeDiscount(c, 3000), "discount never exceeds the order total")
	assert.Equal(t, 5000, ComputeDiscount(c, 20000))
}

func TestComputeDiscount_PercentWithCap(t *testing.T) {
	c := validCoupon()
	c.DiscountType = TypePercent
	c.Value = 10
	c.MaxDiscountCents = intPtr(2000)

	// floor(30000*10/100)=3000, capped at 2000
	assert.Equal(t, 2000, ComputeDiscount(c, 30000))

	c.MaxDiscountCents = nil
	assert.Equal(t, 3000, ComputeDiscount(c, 30000))

	// floor semantics
	c.Value = 33
	assert.Equal(t, 33, ComputeDiscount(c, 101)) // floor(101*33/100) = 33
}

func TestComputeDiscount_NeverNegative(t *testing.T) {
	c := validCoupon()
	c.Value = -100
	assert.Equal(t, 0, ComputeDiscount(c, 3000))
}

func TestCheckEligibility(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		mutate     func(*Coupon)
		orderCents int
		wantErr    error
	}{
		{"valid", func(c *Coupon) {}, 10000, nil},
		{"inactive", func(c *Coupon) { c.Active = false }, 10000, ErrInactive},
		{"not_yet_valid", func(c *Coupon) { c.ValidFrom = now.Add(time.Hour) }, 10000, ErrExpired},
		{"expired", func(c *Coupon) { c.ValidUntil = now.Add(-time.Minute) }, 10000, ErrExpired},
		{"limit_reached", func(c *Coupon) { c.MaxUsageCount = intPtr(5); c.UsedCount = 5 }, 10000, ErrLimitReached},
		{"limit_remaining", func(c *Coupon) { c.MaxUsageCount = intPtr(5); c.UsedCount = 4 }, 10000, nil},
		{"nil_limit_unlimited", func(c *Coupon) { c.UsedCount = 1 << 20 }, 10000, nil},
		{"below_minimum", func(c *Coupon) { c.MinOrderCents = 20000 }, 10000, ErrBelowMinimum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			tt.mutate(&c)
			err := checkEligibility(c, tt.orderCents, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCheckEligibility_InactiveBeatsExpiry(t *testing.T) {
	// fixed check order keeps failures deterministic
	c := validCoupon()
	c.Active = false
	c.ValidUntil = time.Now().Add(-time.Hour)
	assert.ErrorIs(t, checkEligibility(c, 10000, time.Now()), ErrInactive)
}
