package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/handlers"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/shared/apperr"
)

type RefundsHandler struct {
	Refunds *payments.RefundService
}

func NewRefundsHandler(refunds *payments.RefundService) *RefundsHandler {
	return &RefundsHandler{Refunds: refunds}
}

type refundReq struct {
	AmountCents    int    `json:"amount_cents" binding:"gte=0"` // 0 = full remaining
	Reason         string `json:"reason" binding:"required,max=255"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=64"`
}

// POST /api/admin/payments/:id/refund
func (h *RefundsHandler) Refund(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req refundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	idem := strings.TrimSpace(req.IdempotencyKey)
	if idem == "" {
		idem = handlers.RandHex(16)
	}

	res, err := h.Refunds.Refund(c.Request.Context(), payments.RefundInput{
		PaymentID:      c.Param("id"),
		AmountCents:    req.AmountCents,
		Reason:         req.Reason,
		ActorUserID:    u.ID,
		IdempotencyKey: idem,
	})
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":      res.PaymentID,
		"refund_id":       res.RefundID,
		"refunded_cents":  res.RefundedCents,
		"cancelled_cents": res.CancelledCents,
		"remaining_cents": res.RemainingCents,
		"fully_refunded":  res.FullyRefunded,
		"idempotent":      res.Idempotent,
		"idempotency_key": idem,
	})
}
