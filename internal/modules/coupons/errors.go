package coupons

import "errors"

// Each failure is a distinct, user-facing reason.
var (
	ErrNotFound     = errors.New("coupon not found")
	ErrInactive     = errors.New("coupon is not active")
	ErrExpired      = errors.New("coupon is outside its validity window")
	ErrLimitReached = errors.New("coupon usage limit reached")
	ErrAlreadyUsed  = errors.New("coupon already used by this user")
	ErrBelowMinimum = errors.New("order amount below coupon minimum")
)
