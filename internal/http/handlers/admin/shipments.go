package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/http/handlers"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/http/validation"
	"kavella.com/app/internal/modules/email"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/shipping"
	"kavella.com/app/internal/shared/apperr"
)

type ShipmentsHandler struct {
	Shipments *shipping.Service
	Repo      *orders.Repo
	Notifier  *email.Notifier
}

func NewShipmentsHandler(svc *shipping.Service, repo *orders.Repo, notifier *email.Notifier) *ShipmentsHandler {
	return &ShipmentsHandler{Shipments: svc, Repo: repo, Notifier: notifier}
}

type shipmentReq struct {
	Carrier        string  `json:"carrier" binding:"max=64"`
	TrackingNumber *string `json:"tracking_number" binding:"omitempty,max=64"`
	Status         *string `json:"status" binding:"omitempty,oneof=preparing shipped in_transit delivered"`
}

// PUT /api/admin/orders/:id/shipment
// Creates the shipment on first call, then updates carrier/tracking and
// advances the status. Crossing shipped/delivered also moves the order.
func (h *ShipmentsHandler) Upsert(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req shipmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Request body is invalid.", validation.FromBindError(err, &req)))
		return
	}

	var target *shipping.Status
	if req.Status != nil {
		t := shipping.Status(*req.Status)
		target = &t
	}

	sh, err := h.Shipments.Update(c.Request.Context(), shipping.UpdateInput{
		OrderID:        c.Param("id"),
		ActorUserID:    u.ID,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		Target:         target,
	})
	if err != nil {
		middleware.Fail(c, handlers.Translate(err))
		return
	}

	h.notify(c, sh)

	c.JSON(http.StatusOK, gin.H{
		"id":              sh.ID,
		"order_id":        sh.OrderID,
		"carrier":         sh.Carrier,
		"tracking_number": sh.TrackingNumber,
		"status":          sh.Status,
		"shipped_at":      sh.ShippedAt,
		"delivered_at":    sh.DeliveredAt,
	})
}

func (h *ShipmentsHandler) notify(c *gin.Context, sh shipping.Shipment) {
	if sh.Status != shipping.StatusShipped && sh.Status != shipping.StatusDelivered {
		return
	}
	o, _, err := h.Repo.GetWithItems(c.Request.Context(), sh.OrderID)
	if err != nil {
		return
	}
	tracking := ""
	if sh.TrackingNumber != nil {
		tracking = *sh.TrackingNumber
	}
	var shipTo orders.Address
	_ = json.Unmarshal(o.ShipToJSON, &shipTo)
	h.Notifier.ShipmentUpdate(email.ShipmentUpdateData{
		Email:          o.Email,
		Name:           shipTo.Name,
		OrderNumber:    o.OrderNumber,
		Carrier:        sh.Carrier,
		TrackingNumber: tracking,
		Delivered:      sh.Status == shipping.StatusDelivered,
	})
}
