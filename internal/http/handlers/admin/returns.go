package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/handlers"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/returns"
	"kavella.com/app/internal/shared/apperr"
)

type ReturnsHandler struct {
	Returns *returns.Service
}

func NewReturnsHandler(svc *returns.Service) *ReturnsHandler {
	return &ReturnsHandler{Returns: svc}
}

// GET /api/admin/returns
func (h *ReturnsHandler) List(c *gin.Context) {
	rets, err := h.Returns.AdminList(c.Request.Context(),
		c.Query("status"),
		handlers.ParseInt(c.Query("limit"), 50),
		handlers.ParseInt(c.Query("offset"), 0),
	)
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	items := make([]gin.H, 0, len(rets))
	for _, r := range rets {
		items = append(items, adminReturnJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/admin/returns/:id
func (h *ReturnsHandler) Detail(c *gin.Context) {
	r, err := h.Returns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}
	c.JSON(http.StatusOK, adminReturnJSON(r))
}

type decideReq struct {
	Approve   bool   `json:"approve"`
	AdminNote string `json:"admin_note" binding:"max=255"`
}

// POST /api/admin/returns/:id/decide
// Approval triggers the refund; a gateway failure leaves the return
// approved so the decision can simply be retried.
func (h *ReturnsHandler) Decide(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req decideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	r, err := h.Returns.Decide(c.Request.Context(), returns.DecideInput{
		ReturnID:    c.Param("id"),
		AdminUserID: u.ID,
		Approve:     req.Approve,
		AdminNote:   req.AdminNote,
	})
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}
	c.JSON(http.StatusOK, adminReturnJSON(r))
}

func adminReturnJSON(r returns.Return) gin.H {
	return gin.H{
		"id":              r.ID,
		"order_id":        r.OrderID,
		"order_item_id":   r.OrderItemID,
		"user_id":         r.UserID,
		"status":          r.Status,
		"quantity":        r.Quantity,
		"reason":          r.Reason,
		"detail":          r.Detail,
		"evidence_images": r.EvidenceImages,
		"refund_cents":    r.RefundCents,
		"refund_id":       r.RefundID,
		"admin_note":      r.AdminNote,
		"decided_at":      r.DecidedAt,
		"completed_at":    r.CompletedAt,
		"created_at":      r.CreatedAt,
	}
}
