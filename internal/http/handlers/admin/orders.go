package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/handlers"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/shared/apperr"
)

type OrdersHandler struct {
	Repo    *orders.Repo
	Orders  *orders.Service
	Refunds *payments.RefundService
}

func NewOrdersHandler(repo *orders.Repo, svc *orders.Service, refunds *payments.RefundService) *OrdersHandler {
	return &OrdersHandler{Repo: repo, Orders: svc, Refunds: refunds}
}

// GET /api/admin/orders
func (h *OrdersHandler) List(c *gin.Context) {
	res, err := h.Repo.AdminList(c.Request.Context(), orders.AdminListParams{
		Q:        strings.TrimSpace(c.Query("q")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     handlers.ParseInt(c.Query("page"), 1),
		PageSize: handlers.ParseInt(c.Query("page_size"), 30),
	})
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	items := make([]gin.H, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, gin.H{
			"id":           o.ID,
			"order_number": o.OrderNumber,
			"email":        o.Email,
			"status":       o.Status,
			"currency":     o.Currency,
			"final_cents":  o.FinalCents,
			"created_at":   o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": res.Total})
}

// GET /api/admin/orders/:id
// Full projection: items, audit trail, financial ledger and the legal next
// statuses so the UI only offers valid moves.
func (h *OrdersHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	o, items, err := h.Repo.GetWithItems(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	ev, err := h.Repo.ListEvents(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}
	fin, err := h.Repo.ListFinancial(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	itemsOut := make([]gin.H, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, gin.H{
			"id":               it.ID,
			"product_name":     it.ProductName,
			"variant_desc":     it.VariantDesc,
			"unit_price_cents": it.UnitPriceCents,
			"quantity":         it.Quantity,
			"line_total_cents": it.LineTotalCents,
		})
	}
	eventsOut := make([]gin.H, 0, len(ev))
	for _, e := range ev {
		eventsOut = append(eventsOut, gin.H{
			"action":        e.Action,
			"from_status":   e.FromStatus,
			"to_status":     e.ToStatus,
			"actor_user_id": e.ActorUserID,
			"note":          e.Note,
			"created_at":    e.CreatedAt,
		})
	}
	finOut := make([]gin.H, 0, len(fin))
	for _, f := range fin {
		finOut = append(finOut, gin.H{
			"event":        f.Event,
			"amount_cents": f.AmountCents,
			"currency":     f.Currency,
			"ref_type":     f.RefType,
			"ref_id":       f.RefID,
			"created_at":   f.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             o.ID,
		"order_number":   o.OrderNumber,
		"email":          o.Email,
		"user_id":        o.UserID,
		"status":         o.Status,
		"next_statuses":  orders.NextStatuses(o.Status),
		"currency":       o.Currency,
		"total_cents":    o.TotalCents,
		"discount_cents": o.DiscountCents,
		"shipping_cents": o.ShippingCents,
		"final_cents":    o.FinalCents,
		"items":          itemsOut,
		"events":         eventsOut,
		"financial":      finOut,
		"created_at":     o.CreatedAt,
	})
}

type statusReq struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=255"`
}

// POST /api/admin/orders/:id/status
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	target := orders.Status(req.Status)
	if !orders.IsValid(target) {
		middleware.Fail(c, apperr.InvalidErr("Unknown order status.", map[string]string{"status": "Unknown status."}))
		return
	}

	// Cancellation goes through the refund path so money and state stay
	// consistent.
	if target == orders.StatusCancelled {
		res, err := h.Refunds.CancelOrder(c.Request.Context(), payments.CancelOrderInput{
			OrderID:     c.Param("id"),
			ActorUserID: u.ID,
			IsAdmin:     true,
			Reason:      req.Note,
		})
		if err != nil {
			middleware.Fail(c, handlers.Translate(err))
			return
		}
		out := gin.H{"id": res.OrderID, "order_number": res.OrderNumber, "status": res.Status}
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
		return
	}

	res, err := h.Orders.UpdateStatus(c.Request.Context(), orders.UpdateStatusInput{
		OrderID:     c.Param("id"),
		Target:      target,
		ActorUserID: u.ID,
		Action:      "admin_update",
		Note:        req.Note,
	})
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           res.ID,
		"order_number": res.OrderNumber,
		"status":       res.Status,
	})
}
