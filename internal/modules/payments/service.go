package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kavella.com/app/internal/modules/orders"
)

// gatewayTimeout bounds every gateway call. A timed-out refund or charge
// is treated as failed; success is never assumed without confirmation.
const gatewayTimeout = 15 * time.Second

type Service struct {
	db       *gorm.DB
	provider Provider
}

func NewService(db *gorm.DB, p Provider) *Service {
	return &Service{db: db, provider: p}
}

type ChargeOrderInput struct {
	OrderID        string
	ActorUserID    *string
	Method         string
	IdempotencyKey string
}

type ChargeOrderResult struct {
	OrderID    string
	PaymentID  string
	Status     string
	Idempotent bool
}

// ChargeOrder runs the checkout charge in three phases: create a pending
// payment under the order row lock, call the gateway outside the
// transaction, then finalize the payment and advance the order
// pending -> paid through the order transition table.
func (s *Service) ChargeOrder(ctx context.Context, in ChargeOrderInput) (ChargeOrderResult, error) {
	if in.OrderID == "" || in.IdempotencyKey == "" {
		return ChargeOrderResult{}, ErrOrderNotPayable
	}

	var pay Payment
	var ord orders.Order

	// Phase-1: order lock + idempotency check + pending payment row
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orders.ErrNotFound
			}
			return err
		}

		if ord.UserID != nil {
			if in.ActorUserID == nil || *ord.UserID != *in.ActorUserID {
				return ErrForbidden
			}
		}

		if ord.Status != orders.StatusPending {
			return ErrOrderNotPayable
		}

		// Idempotency: same order+key returns the existing payment
		var existing Payment
		e := tx.WithContext(ctx).First(&existing, "order_id = ? AND idempotency_key = ?", ord.ID, in.IdempotencyKey).Error
		if e == nil {
			pay = existing
			return nil
		}
		if !errors.Is(e, gorm.ErrRecordNotFound) {
			return e
		}

		now := time.Now()
		pay = Payment{
			ID:             uuid.NewString(),
			OrderID:        ord.ID,
			Method:         in.Method,
			Status:         StatusPending,
			Currency:       ord.Currency,
			AmountCents:    ord.FinalCents,
			CancelledCents: 0,
			Provider:       s.provider.Name(),
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.WithContext(ctx).Create(&pay).Error
	})
	if err != nil {
		return ChargeOrderResult{}, err
	}

	if pay.Status == StatusCompleted {
		return ChargeOrderResult{OrderID: ord.ID, PaymentID: pay.ID, Status: pay.Status, Idempotent: true}, nil
	}

	// Phase-2: gateway charge (outside tx, bounded)
	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	resp, perr := s.provider.Charge(gwCtx, ChargeRequest{
		OrderID:        ord.ID,
		AmountCents:    pay.AmountCents,
		Currency:       pay.Currency,
		Method:         in.Method,
		IdempotencyKey: in.IdempotencyKey,
	})
	cancel()

	// Phase-3: finalize payment + order update
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		updates := map[string]any{"updated_at": now}
		if resp.ProviderRef != "" {
			updates["provider_ref"] = resp.ProviderRef
		}

		if perr != nil || resp.Status == StatusFailed {
			msg := "charge failed"
			if perr != nil {
				msg = perr.Error()
			}
			updates["status"] = StatusFailed
			updates["error_message"] = msg
			return tx.WithContext(ctx).Model(&Payment{}).
				Where("id = ?", pay.ID).
				Updates(updates).Error
		}

		if resp.Status != StatusCompleted {
			// async settle: webhook will finalize payment and order
			return tx.WithContext(ctx).Model(&Payment{}).
				Where("id = ?", pay.ID).
				Updates(updates).Error
		}

		updates["status"] = StatusCompleted
		updates["paid_at"] = now
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", pay.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		entry := orders.FinancialEntry{
			ID:          uuid.NewString(),
			OrderID:     ord.ID,
			Event:       "payment_completed",
			AmountCents: pay.AmountCents, // +in
			Currency:    pay.Currency,
			RefType:     "payment",
			RefID:       pay.ID,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
			return err
		}

		next, terr := orders.Transition(orders.StatusPending, orders.StatusPaid)
		if terr != nil {
			return terr
		}
		res := tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ? AND status = ?", ord.ID, orders.StatusPending).
			Updates(map[string]any{
				"status":     next,
				"paid_at":    now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		// RowsAffected 0 means a concurrent writer moved the order (e.g.
		// cancelled while charging); the webhook/verify path reconciles.
		return nil
	})
	if err != nil {
		return ChargeOrderResult{}, err
	}

	finalStatus := resp.Status
	if perr != nil {
		finalStatus = StatusFailed
	}
	return ChargeOrderResult{OrderID: ord.ID, PaymentID: pay.ID, Status: finalStatus, Idempotent: false}, nil
}

// VerifyPayment asks the gateway for the authoritative status of a
// payment, for reconciliation tooling.
func (s *Service) VerifyPayment(ctx context.Context, paymentID string) (VerifyResult, error) {
	var pay Payment
	if err := s.db.WithContext(ctx).First(&pay, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VerifyResult{}, ErrNotFound
		}
		return VerifyResult{}, err
	}
	if pay.ProviderRef == nil {
		return VerifyResult{Status: pay.Status}, nil
	}

	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	return s.provider.Verify(gwCtx, *pay.ProviderRef)
}
