// Package http wires the gin router: middleware chain, public endpoints,
// authenticated customer endpoints and the admin API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"kavella.com/app/internal/config"
	"kavella.com/app/internal/http/handlers"
	adminhandlers "kavella.com/app/internal/http/handlers/admin"
	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/mailer"
	"kavella.com/app/internal/modules/catalog"
	"kavella.com/app/internal/modules/checkout"
	"kavella.com/app/internal/modules/coupons"
	"kavella.com/app/internal/modules/email"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/modules/returns"
	"kavella.com/app/internal/modules/shipping"
	"kavella.com/app/internal/storage"
)

type Deps struct {
	Logger   *slog.Logger
	DB       *gorm.DB
	Config   config.Config
	Provider payments.Provider
	Storage  storage.Storage
}

func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.SessionMiddleware(middleware.SessionCfg{
		DB:         d.DB,
		CookieName: "kavella_session",
		Secure:     false,
		TTL:        30 * 24 * time.Hour,
	}))

	// services
	ordersRepo := orders.NewRepo(d.DB)
	ordersSvc := orders.NewService(d.DB)
	shippingSvc := shipping.NewService(d.DB)
	paymentsSvc := payments.NewService(d.DB, d.Provider)
	refundSvc := payments.NewRefundService(d.DB, d.Provider, checkout.ReleaseStockInTx)
	webhookSvc := payments.NewWebhookService(d.DB, d.Logger)
	couponsSvc := coupons.NewService(d.DB)
	catalogRepo := catalog.NewRepo(d.DB)
	checkoutSvc := checkout.NewService(d.DB, catalogRepo, couponsSvc, paymentsSvc)
	returnsSvc := returns.NewService(d.DB, refundSvc)

	var mailSvc mailer.Service = &mailer.Mock{}
	if d.Config.Mail.Enabled {
		mailSvc = mailer.NewSMTPMailer(d.Config.SMTP)
	}
	notifier := email.NewNotifier(
		email.NewMailerAdapter(mailSvc, d.Config.Mail.From, d.Config.Mail.FromName),
		d.Logger,
		d.Config.Mail.Enabled,
	)

	// handlers
	checkoutH := handlers.NewCheckoutHandler(checkoutSvc, notifier)
	ordersH := handlers.NewOrdersHandler(ordersRepo, ordersSvc, refundSvc, shippingSvc)
	returnsH := handlers.NewReturnsHandler(returnsSvc, d.Storage)
	webhookH := handlers.NewWebhookHandler(d.Logger, d.Provider, webhookSvc)

	adminOrdersH := adminhandlers.NewOrdersHandler(ordersRepo, ordersSvc, refundSvc)
	adminRefundsH := adminhandlers.NewRefundsHandler(refundSvc)
	adminShipmentsH := adminhandlers.NewShipmentsHandler(shippingSvc, ordersRepo, notifier)
	adminReturnsH := adminhandlers.NewReturnsHandler(returnsSvc)
	adminCouponsH := adminhandlers.NewCouponsHandler(d.DB)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.POST("/webhooks/:provider", webhookH.Handle)

	api := r.Group("/api")
	{
		api.POST("/checkout", checkoutH.Place)

		authed := api.Group("")
		authed.Use(middleware.RequireAuth())
		{
			authed.GET("/orders", ordersH.List)
			authed.GET("/orders/:id", ordersH.Detail)
			authed.POST("/orders/:id/confirm", ordersH.Confirm)
			authed.POST("/orders/:id/cancel", ordersH.Cancel)

			authed.POST("/returns/evidence", returnsH.UploadEvidence)
			authed.POST("/orders/:id/returns", returnsH.Request)
			authed.GET("/returns", returnsH.List)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/orders", adminOrdersH.List)
			admin.GET("/orders/:id", adminOrdersH.Detail)
			admin.POST("/orders/:id/status", adminOrdersH.UpdateStatus)
			admin.PUT("/orders/:id/shipment", adminShipmentsH.Upsert)

			admin.POST("/payments/:id/refund", adminRefundsH.Refund)

			admin.GET("/returns", adminReturnsH.List)
			admin.GET("/returns/:id", adminReturnsH.Detail)
			admin.POST("/returns/:id/decide", adminReturnsH.Decide)

			admin.GET("/coupons", adminCouponsH.List)
			admin.POST("/coupons", adminCouponsH.Create)
			admin.POST("/coupons/:id/deactivate", adminCouponsH.Deactivate)
		}
	}

	return r
}
