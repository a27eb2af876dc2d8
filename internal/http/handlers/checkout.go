package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/checkout"
	"kavella.com/app/internal/modules/email"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/shared/apperr"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
	Notifier *email.Notifier
}

func NewCheckoutHandler(svc *checkout.Service, notifier *email.Notifier) *CheckoutHandler {
	return &CheckoutHandler{Checkout: svc, Notifier: notifier}
}

type checkoutItemReq struct {
	VariantID string `json:"variant_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type checkoutReq struct {
	Email string            `json:"email" binding:"required,email"`
	Items []checkoutItemReq `json:"items" binding:"required,min=1,dive"`

	ShipTo struct {
		Name       string `json:"name" binding:"required"`
		Phone      string `json:"phone"`
		Address1   string `json:"address1" binding:"required"`
		Address2   string `json:"address2"`
		City       string `json:"city" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country" binding:"required,len=2"`
	} `json:"ship_to" binding:"required"`

	CouponCode     string `json:"coupon_code"`
	Note           string `json:"note" binding:"max=255"`
	Method         string `json:"method" binding:"required,oneof=card bank_transfer"`
	IdempotencyKey string `json:"idempotency_key"`
}

// POST /api/checkout
func (h *CheckoutHandler) Place(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	u, authed := middleware.CurrentUser(c)
	var userID *string
	if authed {
		id := u.ID
		userID = &id
	}

	items := make([]checkout.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.ItemInput{VariantID: it.VariantID, Quantity: it.Quantity})
	}

	res, err := h.Checkout.PlaceOrder(c.Request.Context(), checkout.PlaceOrderInput{
		UserID: userID,
		Email:  req.Email,
		Items:  items,
		ShipTo: orders.Address{
			Name:       req.ShipTo.Name,
			Phone:      req.ShipTo.Phone,
			Address1:   req.ShipTo.Address1,
			Address2:   req.ShipTo.Address2,
			City:       req.ShipTo.City,
			PostalCode: req.ShipTo.PostalCode,
			Country:    req.ShipTo.Country,
		},
		CouponCode:     req.CouponCode,
		Note:           req.Note,
		Method:         req.Method,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	if res.Payment.Status == payments.StatusCompleted {
		h.Notifier.OrderConfirmation(email.OrderConfirmationData{
			Email:       req.Email,
			Name:        req.ShipTo.Name,
			OrderNumber: res.OrderNumber,
			FinalCents:  res.Totals.FinalCents,
			Currency:    res.Currency,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":       res.OrderID,
		"order_number":   res.OrderNumber,
		"currency":       res.Currency,
		"total_cents":    res.Totals.TotalCents,
		"discount_cents": res.Totals.DiscountCents,
		"shipping_cents": res.Totals.ShippingCents,
		"final_cents":    res.Totals.FinalCents,
		"payment": gin.H{
			"id":     res.Payment.PaymentID,
			"status": res.Payment.Status,
		},
	})
}
