package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kavella.com/app/internal/modules/orders"
)

// ProviderEvent stores every received gateway event; the unique
// (provider, event_id) index deduplicates redelivery.
type ProviderEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_provider_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }

type WebhookService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewWebhookService(db *gorm.DB, logger *slog.Logger) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{db: db, logger: logger}
}

// Handle persists and applies one verified gateway event. Returning nil
// maps to 200 (including deduplicated redelivery); an error maps to 500 so
// the provider retries.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) error {
	payload, _ := json.RawMessage(rawBody).MarshalJSON()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		pe := ProviderEvent{
			ID:          uuid.NewString(),
			Provider:    providerName,
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PayloadJSON: datatypes.JSON(payload),
			ReceivedAt:  now,
		}

		if err := tx.WithContext(ctx).Create(&pe).Error; err != nil {
			if isDuplicateKey(err) {
				s.logger.InfoContext(ctx, "webhook event deduplicated",
					"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
				return nil
			}
			return err
		}

		var applyErr error
		switch ev.Type {
		case "payment.completed":
			applyErr = s.applyPaymentCompleted(ctx, tx, providerName, ev)
		case "payment.failed":
			applyErr = s.applyPaymentFailed(ctx, tx, providerName, ev)
		case "refund.completed":
			applyErr = s.applyRefundCompleted(ctx, tx, providerName, ev)
		case "refund.failed":
			applyErr = s.applyRefundFailed(ctx, tx, providerName, ev)
		default:
			applyErr = errors.New("unknown webhook event type")
		}

		if applyErr != nil {
			msg := truncate(applyErr.Error(), 250)
			if err := tx.WithContext(ctx).Model(&ProviderEvent{}).
				Where("id = ?", pe.ID).
				Updates(map[string]any{"process_error": msg}).Error; err != nil {
				return err
			}
			s.logger.ErrorContext(ctx, "webhook event apply failed",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "error", msg)
			return applyErr
		}

		return tx.WithContext(ctx).Model(&ProviderEvent{}).
			Where("id = ?", pe.ID).
			Updates(map[string]any{"processed_at": now}).Error
	})
}

func (s *WebhookService) applyPaymentCompleted(ctx context.Context, tx *gorm.DB, providerName string, ev WebhookEvent) error {
	pay, err := s.lockPaymentByRef(ctx, tx, providerName, ev.PaymentRef)
	if err != nil {
		return err
	}
	if pay.Status == StatusCompleted {
		return nil // already applied via the sync path
	}
	if pay.Status != StatusPending {
		return errors.New("payment.completed on non-pending payment")
	}

	now := time.Now()
	if err := tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status = ?", pay.ID, StatusPending).
		Updates(map[string]any{
			"status":     StatusCompleted,
			"paid_at":    now,
			"updated_at": now,
		}).Error; err != nil {
		return err
	}

	entry := orders.FinancialEntry{
		ID:          uuid.NewString(),
		OrderID:     pay.OrderID,
		Event:       "payment_completed",
		AmountCents: pay.AmountCents,
		Currency:    pay.Currency,
		RefType:     "payment",
		RefID:       pay.ID,
		CreatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	// order pending -> paid, through the transition table
	next, err := orders.Transition(orders.StatusPending, orders.StatusPaid)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&orders.Order{}).
		Where("id = ? AND status = ?", pay.OrderID, orders.StatusPending).
		Updates(map[string]any{
			"status":     next,
			"paid_at":    now,
			"updated_at": now,
		}).Error
}

func (s *WebhookService) applyPaymentFailed(ctx context.Context, tx *gorm.DB, providerName string, ev WebhookEvent) error {
	pay, err := s.lockPaymentByRef(ctx, tx, providerName, ev.PaymentRef)
	if err != nil {
		return err
	}
	if pay.Status == StatusFailed {
		return nil
	}
	if pay.Status != StatusPending {
		return errors.New("payment.failed on non-pending payment")
	}

	now := time.Now()
	return tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status = ?", pay.ID, StatusPending).
		Updates(map[string]any{
			"status":        StatusFailed,
			"error_message": "gateway reported failure",
			"updated_at":    now,
		}).Error
}

func (s *WebhookService) applyRefundCompleted(ctx context.Context, tx *gorm.DB, providerName string, ev WebhookEvent) error {
	ref, err := s.lockRefundByRef(ctx, tx, providerName, ev.RefundRef)
	if err != nil {
		return err
	}
	if ref.Status == RefundCompleted {
		return nil
	}
	if ref.Status != RefundInitiated {
		return errors.New("refund.completed on non-initiated refund")
	}

	var pay Payment
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pay, "id = ?", ref.PaymentID).Error; err != nil {
		return err
	}

	plan, err := planRefund(pay, ref.AmountCents)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := tx.WithContext(ctx).Model(&Refund{}).
		Where("id = ? AND status = ?", ref.ID, RefundInitiated).
		Updates(map[string]any{"status": RefundCompleted, "updated_at": now}).Error; err != nil {
		return err
	}

	res := tx.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND cancelled_cents = ?", pay.ID, pay.CancelledCents).
		Updates(map[string]any{
			"cancelled_cents": plan.NewCancelledCents,
			"status":          plan.NewStatus,
			"cancelled_at":    now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrConflict
	}

	entry := orders.FinancialEntry{
		ID:          uuid.NewString(),
		OrderID:     pay.OrderID,
		Event:       "refund_completed",
		AmountCents: -plan.AmountCents,
		Currency:    pay.Currency,
		RefType:     "refund",
		RefID:       ref.ID,
		CreatedAt:   now,
	}
	return tx.WithContext(ctx).Create(&entry).Error
}

func (s *WebhookService) applyRefundFailed(ctx context.Context, tx *gorm.DB, providerName string, ev WebhookEvent) error {
	ref, err := s.lockRefundByRef(ctx, tx, providerName, ev.RefundRef)
	if err != nil {
		return err
	}
	if ref.Status == RefundFailed {
		return nil
	}
	if ref.Status != RefundInitiated {
		return errors.New("refund.failed on non-initiated refund")
	}

	now := time.Now()
	return tx.WithContext(ctx).Model(&Refund{}).
		Where("id = ? AND status = ?", ref.ID, RefundInitiated).
		Updates(map[string]any{
			"status":        RefundFailed,
			"error_message": "gateway reported failure",
			"updated_at":    now,
		}).Error
}

func (s *WebhookService) lockPaymentByRef(ctx context.Context, tx *gorm.DB, providerName, ref string) (Payment, error) {
	if ref == "" {
		return Payment{}, errors.New("event missing payment ref")
	}
	var pay Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pay, "provider = ? AND provider_ref = ?", providerName, ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Payment{}, ErrNotFound
	}
	return pay, err
}

func (s *WebhookService) lockRefundByRef(ctx context.Context, tx *gorm.DB, providerName, ref string) (Refund, error) {
	if ref == "" {
		return Refund{}, errors.New("event missing refund ref")
	}
	var r Refund
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&r, "provider = ? AND provider_ref = ?", providerName, ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Refund{}, errors.New("refund not found for provider ref")
	}
	return r, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
