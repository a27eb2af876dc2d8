package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/returns"
	"kavella.com/app/internal/shared/apperr"
	"kavella.com/app/internal/storage"
)

const maxEvidenceBytes = 5 << 20

type ReturnsHandler struct {
	Returns *returns.Service
	Storage storage.Storage
}

func NewReturnsHandler(svc *returns.Service, store storage.Storage) *ReturnsHandler {
	return &ReturnsHandler{Returns: svc, Storage: store}
}

// POST /api/returns/evidence (multipart "file")
// Uploads a single evidence photo and returns its storage key. The key is
// later referenced by the return request.
func (h *ReturnsHandler) UploadEvidence(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("A file upload is required.", map[string]string{"file": "This field is required."}))
		return
	}
	if fh.Size > maxEvidenceBytes {
		middleware.Fail(c, apperr.InvalidErr("The file is too large (max 5 MB).", map[string]string{"file": "Max 5 MB."}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	res, err := h.Storage.Put(c.Request.Context(), f, storage.PutInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": res.Key, "url": res.URL})
}

type returnReq struct {
	OrderItemID  string   `json:"order_item_id" binding:"required,uuid"`
	Quantity     int      `json:"quantity" binding:"required,gt=0"`
	Reason       string   `json:"reason" binding:"required,max=64"`
	Detail       string   `json:"detail" binding:"max=1000"`
	EvidenceKeys []string `json:"evidence_keys" binding:"max=5"`
}

// POST /api/orders/:id/returns
func (h *ReturnsHandler) Request(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req returnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	ret, err := h.Returns.Request(c.Request.Context(), returns.RequestInput{
		OrderID:        c.Param("id"),
		OrderItemID:    req.OrderItemID,
		UserID:         u.ID,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		Detail:         req.Detail,
		EvidenceImages: req.EvidenceKeys,
	})
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	c.JSON(http.StatusCreated, returnJSON(ret))
}

// GET /api/returns
func (h *ReturnsHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	rets, err := h.Returns.ListByUser(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, Translate(err))
		return
	}

	items := make([]gin.H, 0, len(rets))
	for _, r := range rets {
		items = append(items, returnJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func returnJSON(r returns.Return) gin.H {
	return gin.H{
		"id":            r.ID,
		"order_id":      r.OrderID,
		"order_item_id": r.OrderItemID,
		"status":        r.Status,
		"quantity":      r.Quantity,
		"reason":        r.Reason,
		"detail":        r.Detail,
		"refund_cents":  r.RefundCents,
		"refund_id":     r.RefundID,
		"created_at":    r.CreatedAt,
	}
}
