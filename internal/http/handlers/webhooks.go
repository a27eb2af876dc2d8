package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kavella.com/app/internal/modules/payments"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Provider   payments.Provider
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, p payments.Provider, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Provider: p, WebhookSvc: svc}
}

// POST /webhooks/:provider
// Body is raw JSON; the signature header is validated by the provider
// adapter before anything is parsed.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	if err := h.WebhookSvc.Handle(c.Request.Context(), h.Provider.Name(), ev, body); err != nil {
		// 500 so the provider retries
		h.Logger.Error("webhook apply failed", "event_id", ev.EventID, "type", ev.Type, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
