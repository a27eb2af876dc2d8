package coupons

import "time"

const (
	TypeFixed   = "fixed"
	TypePercent = "percent"
)

type Coupon struct {
	ID   string `gorm:"type:char(36);primaryKey"`
	Code string `gorm:"type:varchar(64);not null;uniqueIndex:ux_coupons_code"`

	Active       bool   `gorm:"not null"`
	DiscountType string `gorm:"type:varchar(16);not null"` // fixed|percent

	// fixed: discount in cents; percent: whole percentage (10 = 10%)
	Value int `gorm:"not null"`

	MinOrderCents    int  `gorm:"not null"`
	MaxDiscountCents *int // percent cap, nil = uncapped

	ValidFrom  time.Time `gorm:"type:datetime(3);not null"`
	ValidUntil time.Time `gorm:"type:datetime(3);not null"`

	MaxUsageCount *int `gorm:""` // nil = unlimited
	UsedCount     int  `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Coupon) TableName() string { return "coupons" }

// CouponUsage enforces single use per user with a storage-level unique
// index, not just an application check.
type CouponUsage struct {
	ID       string `gorm:"type:char(36);primaryKey"`
	CouponID string `gorm:"type:char(36);not null;uniqueIndex:ux_coupon_usages_coupon_user,priority:1"`
	UserID   string `gorm:"type:char(36);not null;uniqueIndex:ux_coupon_usages_coupon_user,priority:2"`
	OrderID  string `gorm:"type:char(36);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (CouponUsage) TableName() string { return "coupon_usages" }
