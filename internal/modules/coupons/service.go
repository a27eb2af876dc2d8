package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	gosql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// ComputeDiscount is the pure discount rule. The caller supplies the
// order amount; this never recomputes the total. The result is always
// capped at the order amount so the payable can not go negative.
func ComputeDiscount(c Coupon, orderCents int) int {
	var discount int
	switch c.DiscountType {
	case TypePercent:
		discount = orderCents * c.Value / 100 // integer division = floor
		if c.MaxDiscountCents != nil && discount > *c.MaxDiscountCents {
			discount = *c.MaxDiscountCents
		}
	default: // fixed
		discount = c.Value
	}
	if discount > orderCents {
		discount = orderCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// checkEligibility validates everything except the per-user usage record,
// which needs storage. Checks run in a fixed order so failures are
// deterministic.
func checkEligibility(c Coupon, orderCents int, now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return ErrExpired
	}
	if c.MaxUsageCount != nil && c.UsedCount >= *c.MaxUsageCount {
		return ErrLimitReached
	}
	if orderCents < c.MinOrderCents {
		return ErrBelowMinimum
	}
	return nil
}

type ValidationResult struct {
	Coupon        Coupon
	DiscountCents int
}

// Validate resolves a code for a user and order amount and returns the
// discount it would grant. Read-only; redemption happens in RedeemInTx.
func (s *Service) Validate(ctx context.Context, code, userID string, orderCents int) (ValidationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ValidationResult{}, ErrNotFound
	}

	var c Coupon
	if err := s.db.WithContext(ctx).First(&c, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationResult{}, ErrNotFound
		}
		return ValidationResult{}, err
	}

	// An existing usage row rejects regardless of the other checks.
	if userID != "" {
		var count int64
		if err := s.db.WithContext(ctx).Model(&CouponUsage{}).
			Where("coupon_id = ? AND user_id = ?", c.ID, userID).
			Count(&count).Error; err != nil {
			return ValidationResult{}, err
		}
		if count > 0 {
			return ValidationResult{}, ErrAlreadyUsed
		}
	}

	if err := checkEligibility(c, orderCents, time.Now()); err != nil {
		return ValidationResult{}, err
	}

	return ValidationResult{Coupon: c, DiscountCents: ComputeDiscount(c, orderCents)}, nil
}

// RedeemInTx burns one use inside the caller's transaction. The
// conditional used_count increment and the unique (coupon_id, user_id)
// index close the check-then-act race; the application-level checks in
// Validate are advisory only.
func RedeemInTx(ctx context.Context, tx *gorm.DB, c Coupon, userID, orderID string) error {
	res := tx.WithContext(ctx).Model(&Coupon{}).
		Where("id = ? AND active = ? AND (max_usage_count IS NULL OR used_count < max_usage_count)", c.ID, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrLimitReached
	}

	usage := CouponUsage{
		ID:        uuid.NewString(),
		CouponID:  c.ID,
		UserID:    userID,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}
	if err := tx.WithContext(ctx).Create(&usage).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyUsed
		}
		return err
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var me *gosql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
