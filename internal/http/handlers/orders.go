package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/modules/shipping"
	"kavella.com/app/internal/shared/apperr"
)

type OrdersHandler struct {
	Repo      *orders.Repo
	Orders    *orders.Service
	Refunds   *payments.RefundService
	Shipments *shipping.Service
}

func NewOrdersHandler(repo *orders.Repo, svc *orders.Service, refunds *payments.RefundService, shipments *shipping.Service) *OrdersHandler {
	return &OrdersHandler{Repo: repo, Orders: svc, Refunds: refunds, Shipments: shipments}
}

func orderSummaryJSON(o orders.Order) gin.H {
	return gin.H{
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"status":       o.Status,
		"currency":     o.Currency,
		"final_cents":  o.FinalCents,
		"created_at":   o.CreatedAt,
	}
}

func orderItemJSON(it orders.OrderItem) gin.H {
	return gin.H{
		"id":               it.ID,
		"variant_id":       it.VariantID,
		"product_name":     it.ProductName,
		"variant_desc":     it.VariantDesc,
		"unit_price_cents": it.UnitPriceCents,
		"quantity":         it.Quantity,
		"line_total_cents": it.LineTotalCents,
	}
}

// GET /api/orders
func (h *OrdersHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	res, err := h.Repo.ListByUser(c.Request.Context(), orders.ListByUserParams{
		UserID:   u.ID,
		Page:     ParseInt(c.Query("page"), 1),
		PageSize: ParseInt(c.Query("page_size"), 20),
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	items := make([]gin.H, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, orderSummaryJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": res.Total})
}

// GET /api/orders/:id
func (h *OrdersHandler) Detail(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	o, items, err := h.Repo.GetOwned(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	var shipTo orders.Address
	_ = json.Unmarshal(o.ShipToJSON, &shipTo)

	out := gin.H{
		"id":             o.ID,
		"order_number":   o.OrderNumber,
		"status":         o.Status,
		"currency":       o.Currency,
		"total_cents":    o.TotalCents,
		"discount_cents": o.DiscountCents,
		"shipping_cents": o.ShippingCents,
		"final_cents":    o.FinalCents,
		"ship_to":        shipTo,
		"paid_at":        o.PaidAt,
		"cancelled_at":   o.CancelledAt,
		"confirmed_at":   o.ConfirmedAt,
		"created_at":     o.CreatedAt,
	}

	itemsOut := make([]gin.H, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, orderItemJSON(it))
	}
	out["items"] = itemsOut

	if sh, err := h.Shipments.GetByOrder(c.Request.Context(), o.ID); err == nil {
		out["shipment"] = gin.H{
			"carrier":         sh.Carrier,
			"tracking_number": sh.TrackingNumber,
			"status":          sh.Status,
			"shipped_at":      sh.ShippedAt,
			"delivered_at":    sh.DeliveredAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

// POST /api/orders/:id/confirm
func (h *OrdersHandler) Confirm(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	res, err := h.Orders.Confirm(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           res.ID,
		"order_number": res.OrderNumber,
		"status":       res.Status,
	})
}

type cancelReq struct {
	Reason string `json:"reason" binding:"max=255"`
}

// POST /api/orders/:id/cancel
func (h *OrdersHandler) Cancel(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	res, err := h.Refunds.CancelOrder(c.Request.Context(), payments.CancelOrderInput{
		OrderID:     c.Param("id"),
		ActorUserID: u.ID,
		IsAdmin:     false,
		Reason:      req.Reason,
	})
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	out := gin.H{
		"id":           res.OrderID,
		"order_number": res.OrderNumber,
		"status":       res.Status,
	}
	if res.Refund != nil {
		out["refund"] = gin.H{
			"refund_id":       res.Refund.RefundID,
			"refunded_cents":  res.Refund.RefundedCents,
			"cancelled_cents": res.Refund.CancelledCents,
			"remaining_cents": res.Refund.RemainingCents,
			"fully_refunded":  res.Refund.FullyRefunded,
			"idempotent":      res.Refund.Idempotent,
		}
	}
	c.JSON(http.StatusOK, out)
}
