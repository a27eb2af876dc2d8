package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kavella.com/app/internal/http/handlers"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/coupons"
	"kavella.com/app/internal/shared/apperr"
)

type CouponsHandler struct {
	DB *gorm.DB
}

func NewCouponsHandler(db *gorm.DB) *CouponsHandler {
	return &CouponsHandler{DB: db}
}

type couponReq struct {
	Code             string    `json:"code" binding:"required,min=3,max=32"`
	Active           bool      `json:"active"`
	DiscountType     string    `json:"discount_type" binding:"required,oneof=fixed percent"`
	Value            int       `json:"value" binding:"required,gt=0"`
	MinOrderCents    int       `json:"min_order_cents" binding:"gte=0"`
	MaxDiscountCents *int      `json:"max_discount_cents" binding:"omitempty,gt=0"`
	ValidFrom        time.Time `json:"valid_from" binding:"required"`
	ValidUntil       time.Time `json:"valid_until" binding:"required,gtfield=ValidFrom"`
	MaxUsageCount    *int      `json:"max_usage_count" binding:"omitempty,gt=0"`
}

// POST /api/admin/coupons
func (h *CouponsHandler) Create(c *gin.Context) {
	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}
	if req.DiscountType == coupons.TypePercent && req.Value > 100 {
		middleware.Fail(c, apperr.InvalidErr("Percent value cannot exceed 100.", map[string]string{"value": "Must be at most 100."}))
		return
	}

	now := time.Now()
	cpn := coupons.Coupon{
		ID:               uuid.NewString(),
		Code:             strings.ToUpper(strings.TrimSpace(req.Code)),
		Active:           req.Active,
		DiscountType:     req.DiscountType,
		Value:            req.Value,
		MinOrderCents:    req.MinOrderCents,
		MaxDiscountCents: req.MaxDiscountCents,
		ValidFrom:        req.ValidFrom,
		ValidUntil:       req.ValidUntil,
		MaxUsageCount:    req.MaxUsageCount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&cpn).Error; err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}
	c.JSON(http.StatusCreated, couponJSON(cpn))
}

// GET /api/admin/coupons
func (h *CouponsHandler) List(c *gin.Context) {
	var items []coupons.Coupon
	if err := h.DB.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(100).
		Find(&items).Error; err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, cpn := range items {
		out = append(out, couponJSON(cpn))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// POST /api/admin/coupons/:id/deactivate
func (h *CouponsHandler) Deactivate(c *gin.Context) {
	res := h.DB.WithContext(c.Request.Context()).
		Model(&coupons.Coupon{}).
		Where("id = ?", c.Param("id")).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		middleware.Fail(c, handlers.Translate(res.Error))
		return
	}
	if res.RowsAffected != 1 {
		middleware.Fail(c, apperr.NotFoundErr("Coupon not found."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func couponJSON(cpn coupons.Coupon) gin.H {
	return gin.H{
		"id":                 cpn.ID,
		"code":               cpn.Code,
		"active":             cpn.Active,
		"discount_type":      cpn.DiscountType,
		"value":              cpn.Value,
		"min_order_cents":    cpn.MinOrderCents,
		"max_discount_cents": cpn.MaxDiscountCents,
		"valid_from":         cpn.ValidFrom,
		"valid_until":        cpn.ValidUntil,
		"max_usage_count":    cpn.MaxUsageCount,
		"used_count":         cpn.UsedCount,
		"created_at":         cpn.CreatedAt,
	}
}
