// Package checkout turns a validated cart into a pending order: price
// snapshot, coupon redemption, stock deduction and the charge handoff.
package checkout

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kavella.com/app/internal/modules/catalog"
	"kavella.com/app/internal/modules/coupons"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/shared/ordernum"
)

const (
	flatShippingCents     = 500
	freeShippingThreshold = 15000
)

// shippingCents is the flat-rate shipping rule with a free threshold on
// the post-discount goods amount.
func shippingCents(goodsCents int) int {
	if goodsCents >= freeShippingThreshold {
		return 0
	}
	return flatShippingCents
}

// Totals is the checkout money breakdown. FinalCents is what the payment
// will charge: total - discount + shipping, never negative.
type Totals struct {
	TotalCents    int
	DiscountCents int
	ShippingCents int
	FinalCents    int
}

func computeTotals(totalCents, discountCents int) Totals {
	if discountCents > totalCents {
		discountCents = totalCents
	}
	if discountCents < 0 {
		discountCents = 0
	}
	goods := totalCents - discountCents
	ship := shippingCents(goods)
	return Totals{
		TotalCents:    totalCents,
		DiscountCents: discountCents,
		ShippingCents: ship,
		FinalCents:    goods + ship,
	}
}

type Service struct {
	db       *gorm.DB
	catalog  *catalog.Repo
	coupons  *coupons.Service
	payments *payments.Service
}

func NewService(db *gorm.DB, cat *catalog.Repo, cpn *coupons.Service, pay *payments.Service) *Service {
	return &Service{db: db, catalog: cat, coupons: cpn, payments: pay}
}

type ItemInput struct {
	VariantID string
	Quantity  int
}

type PlaceOrderInput struct {
	UserID     *string
	Email      string
	Items      []ItemInput
	ShipTo     orders.Address
	CouponCode string
	Note       string

	Method         string
	IdempotencyKey string
}

type PlaceOrderResult struct {
	OrderID     string
	OrderNumber string
	Currency    string
	Totals      Totals
	Payment     payments.ChargeOrderResult
}

// PlaceOrder creates the pending order with denormalized item and address
// snapshots, burns the coupon and deducts stock in one transaction, then
// charges through the payment service. A failed charge leaves the order
// pending with its stock reserved; the payment can be retried.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error) {
	if len(in.Items) == 0 {
		return PlaceOrderResult{}, ErrEmptyOrder
	}

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.VariantID)
	}
	variants, err := s.catalog.VariantsByID(ctx, ids)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	currency := ""
	subtotal := 0
	items := make([]orders.OrderItem, 0, len(in.Items))
	lines := make([]StockLine, 0, len(in.Items))
	for _, it := range in.Items {
		v, ok := variants[it.VariantID]
		if !ok {
			return PlaceOrderResult{}, ErrUnknownVariant
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		if currency == "" {
			currency = v.Currency
		} else if currency != v.Currency {
			return PlaceOrderResult{}, ErrCurrencyMismatch
		}

		line := v.PriceCents * qty
		subtotal += line
		items = append(items, orders.OrderItem{
			ID:             uuid.NewString(),
			VariantID:      v.ID,
			ProductName:    v.ProductName,
			VariantDesc:    v.Description,
			UnitPriceCents: v.PriceCents,
			Currency:       v.Currency,
			Quantity:       qty,
			LineTotalCents: line,
		})
		lines = append(lines, StockLine{VariantID: v.ID, Qty: qty})
	}

	// Coupon resolution is a read; the actual redemption happens inside
	// the order transaction where the usage row pins the race.
	userID := ""
	if in.UserID != nil {
		userID = *in.UserID
	}
	var coupon *coupons.Coupon
	discount := 0
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		vr, err := s.coupons.Validate(ctx, code, userID, subtotal)
		if err != nil {
			return PlaceOrderResult{}, err
		}
		c := vr.Coupon
		coupon = &c
		discount = vr.DiscountCents
	}

	totals := computeTotals(subtotal, discount)

	shipTo, err := json.Marshal(in.ShipTo)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	var ord orders.Order
	err = withTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		now := time.Now()

		var notePtr *string
		if n := strings.TrimSpace(in.Note); n != "" {
			notePtr = &n
		}
		var couponID *string
		if coupon != nil {
			id := coupon.ID
			couponID = &id
		}

		ord = orders.Order{
			ID:            uuid.NewString(),
			OrderNumber:   ordernum.New(now),
			UserID:        in.UserID,
			Email:         strings.TrimSpace(in.Email),
			Status:        orders.StatusPending,
			Currency:      currency,
			TotalCents:    totals.TotalCents,
			DiscountCents: totals.DiscountCents,
			ShippingCents: totals.ShippingCents,
			FinalCents:    totals.FinalCents,
			CouponID:      couponID,
			Note:          notePtr,
			ShipToJSON:    datatypes.JSON(shipTo),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&ord).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = ord.ID
			items[i].CreatedAt = now
		}
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			return err
		}

		if coupon != nil {
			if err := coupons.RedeemInTx(ctx, tx, *coupon, userID, ord.ID); err != nil {
				return err
			}
		}

		if err := DeductStockInTx(ctx, tx, lines); err != nil {
			return err
		}

		actor := userID
		if actor == "" {
			actor = "guest"
		}
		ev := orders.OrderEvent{
			ID:          uuid.NewString(),
			OrderID:     ord.ID,
			ActorUserID: actor,
			Action:      "create",
			FromStatus:  orders.StatusPending,
			ToStatus:    orders.StatusPending,
			CreatedAt:   now,
		}
		return tx.WithContext(ctx).Create(&ev).Error
	})
	if err != nil {
		return PlaceOrderResult{}, err
	}

	out := PlaceOrderResult{OrderID: ord.ID, OrderNumber: ord.OrderNumber, Currency: currency, Totals: totals}

	idem := in.IdempotencyKey
	if idem == "" {
		idem = "checkout-" + ord.ID
	}
	pay, err := s.payments.ChargeOrder(ctx, payments.ChargeOrderInput{
		OrderID:        ord.ID,
		ActorUserID:    in.UserID,
		Method:         in.Method,
		IdempotencyKey: idem,
	})
	if err != nil {
		// Order exists and is payable; surface the charge failure with the
		// order attached so the client can retry payment.
		return out, err
	}
	out.Payment = pay
	return out, nil
}

// ReleaseStockInTx returns a cancelled order's reserved quantities to
// inventory. Runs inside the cancellation transaction so the status
// change and the restock commit together.
func ReleaseStockInTx(ctx context.Context, tx *gorm.DB, orderID string) error {
	var items []orders.OrderItem
	if err := tx.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	return RestockInTx(ctx, tx, restockLines(items))
}

// restockLines aggregates order items into per-variant restock lines.
func restockLines(items []orders.OrderItem) []StockLine {
	qty := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		qty[it.VariantID] += it.Quantity
	}

	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]StockLine, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, StockLine{VariantID: id, Qty: qty[id]})
	}
	return lines
}
