package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	gosql "github.com/go-sql-driver/mysql"

	"kavella.com/app/internal/modules/catalog"
	"kavella.com/app/internal/modules/checkout"
	"kavella.com/app/internal/modules/coupons"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/modules/returns"
	"kavella.com/app/internal/modules/shipping"
	"kavella.com/app/internal/shared/apperr"
)

func RandHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ParseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Translate maps domain errors onto the apperr envelope. Anything not
// listed here is an internal error and stays opaque to the caller.
func Translate(err error) *apperr.AppError {
	if err == nil {
		return nil
	}
	if ae, ok := apperr.As(err); ok {
		return ae
	}

	switch {
	case errors.Is(err, orders.ErrNotFound):
		return apperr.NotFoundErr("Order not found.").WithCode("order_not_found")
	case errors.Is(err, orders.ErrInvalidTransition):
		ae := apperr.ConflictErr("The order cannot change to that status.").WithCode("invalid_transition")
		var te *orders.TransitionError
		if errors.As(err, &te) {
			ae.PublicMsg = fmt.Sprintf("The order cannot change from %s to %s.", te.From, te.To)
			ae.Fields = map[string]string{"from": string(te.From), "to": string(te.To)}
		}
		return ae
	case errors.Is(err, orders.ErrNotActionable):
		return apperr.InvalidErr("The request is missing required identifiers.", nil)

	case errors.Is(err, shipping.ErrNotFound):
		return apperr.NotFoundErr("Shipment not found.").WithCode("shipment_not_found")
	case errors.Is(err, shipping.ErrInvalidTransition):
		ae := apperr.ConflictErr("The shipment cannot change to that status.").WithCode("invalid_transition")
		var te *shipping.TransitionError
		if errors.As(err, &te) {
			ae.PublicMsg = fmt.Sprintf("The shipment cannot change from %s to %s.", te.From, te.To)
			ae.Fields = map[string]string{"from": string(te.From), "to": string(te.To)}
		}
		return ae
	case errors.Is(err, shipping.ErrNotActionable):
		return apperr.InvalidErr("The request is missing required identifiers.", nil)

	case errors.Is(err, payments.ErrNotFound):
		return apperr.NotFoundErr("Payment not found.").WithCode("payment_not_found")
	case errors.Is(err, payments.ErrForbidden):
		return apperr.ForbiddenErr("You cannot act on this order.")
	case errors.Is(err, payments.ErrOrderNotPayable):
		return apperr.ConflictErr("The order is not payable.").WithCode("order_not_payable")
	case errors.Is(err, payments.ErrNotCancellable):
		return apperr.ConflictErr("The order can no longer be cancelled.").WithCode("not_cancellable")
	case errors.Is(err, payments.ErrReasonRequired):
		return apperr.InvalidErr("A reason is required.", map[string]string{"reason": "This field is required."})
	case errors.Is(err, payments.ErrNegativeAmount):
		return apperr.InvalidErr("The refund amount must not be negative.", map[string]string{"amount_cents": "Must be zero or positive."}).WithCode("negative_amount")
	case errors.Is(err, payments.ErrConflict):
		return apperr.ConflictErr("A concurrent change interfered; retry the request.").WithCode("conflict_retry")

	case errors.Is(err, catalog.ErrNotFound):
		return apperr.NotFoundErr("Product variant not found.").WithCode("variant_not_found")

	case errors.Is(err, checkout.ErrEmptyOrder):
		return apperr.InvalidErr("The order has no items.", nil).WithCode("empty_order")
	case errors.Is(err, checkout.ErrUnknownVariant):
		return apperr.InvalidErr("One of the items no longer exists.", nil).WithCode("unknown_variant")
	case errors.Is(err, checkout.ErrCurrencyMismatch):
		return apperr.InvalidErr("All items must use the same currency.", nil).WithCode("currency_mismatch")

	case errors.Is(err, coupons.ErrNotFound):
		return apperr.InvalidErr("Coupon code not found.", nil).WithCode("coupon_not_found")
	case errors.Is(err, coupons.ErrInactive):
		return apperr.InvalidErr("This coupon is not active.", nil).WithCode("coupon_inactive")
	case errors.Is(err, coupons.ErrExpired):
		return apperr.InvalidErr("This coupon is outside its validity window.", nil).WithCode("coupon_expired")
	case errors.Is(err, coupons.ErrLimitReached):
		return apperr.InvalidErr("This coupon has reached its usage limit.", nil).WithCode("coupon_limit_reached")
	case errors.Is(err, coupons.ErrAlreadyUsed):
		return apperr.InvalidErr("You already used this coupon.", nil).WithCode("coupon_already_used")
	case errors.Is(err, coupons.ErrBelowMinimum):
		return apperr.InvalidErr("The order is below the coupon minimum.", nil).WithCode("coupon_below_minimum")

	case errors.Is(err, returns.ErrNotFound):
		return apperr.NotFoundErr("Return not found.").WithCode("return_not_found")
	case errors.Is(err, returns.ErrOrderNotReturnable):
		return apperr.ConflictErr("The order is not in a returnable state.").WithCode("order_not_returnable")
	case errors.Is(err, returns.ErrItemNotInOrder):
		return apperr.InvalidErr("The item does not belong to the order.", nil).WithCode("item_not_in_order")
	case errors.Is(err, returns.ErrBadQuantity):
		return apperr.InvalidErr("Invalid return quantity.", map[string]string{"quantity": "Must be between 1 and the ordered quantity."})
	case errors.Is(err, returns.ErrAlreadyOpen):
		return apperr.ConflictErr("An open return already exists for this item.").WithCode("return_already_open")
	case errors.Is(err, returns.ErrNotDecidable):
		return apperr.ConflictErr("The return is not awaiting a decision.").WithCode("return_not_decidable")
	}

	var oos *checkout.OutOfStockError
	if errors.As(err, &oos) {
		ae := apperr.ConflictErr("One or more items are out of stock.").WithCode("out_of_stock")
		ae.Fields = map[string]string{}
		for _, it := range oos.Items {
			ae.Fields[it.VariantID] = "Insufficient stock."
		}
		return ae
	}

	var rna *payments.RefundNotAllowedError
	if errors.As(err, &rna) {
		return apperr.ConflictErr("The payment is not refundable in its current status.").WithCode("refund_not_allowed")
	}
	var rex *payments.RefundExceedsError
	if errors.As(err, &rex) {
		return apperr.InvalidErr(rex.Error(), nil).WithCode("refund_exceeds_refundable")
	}
	var rf *payments.RefundFailedError
	if errors.As(err, &rf) {
		e := apperr.Wrap(err)
		e.Code = "refund_failed"
		e.PublicMsg = "The refund could not be processed; nothing was changed."
		return e
	}

	var me *gosql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return apperr.ConflictErr("A record with that unique value already exists.").WithCode("duplicate")
	}

	return apperr.Wrap(err)
}
