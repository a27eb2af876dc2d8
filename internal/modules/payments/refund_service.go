package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	gosql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kavella.com/app/internal/modules/orders"
)

// RestockFunc returns an order's reserved stock inside the cancellation
// transaction. Wired at startup to the checkout stock helpers; this
// package knows nothing about inventory tables.
type RestockFunc func(ctx context.Context, tx *gorm.DB, orderID string) error

// RefundService is the payment ledger: it computes refundable amounts and
// records cancellations against a payment, delegating the money movement
// to the gateway. The local ledger must never diverge from gateway state,
// so nothing is written unless the gateway confirmed.
type RefundService struct {
	db       *gorm.DB
	provider Provider
	restock  RestockFunc
}

func NewRefundService(db *gorm.DB, p Provider, restock RestockFunc) *RefundService {
	return &RefundService{db: db, provider: p, restock: restock}
}

type RefundInput struct {
	PaymentID   string
	AmountCents int    // 0 => full remaining refundable amount; negative is rejected
	Reason      string // required
	ActorUserID string

	// Optional retry dedupe key. With a key, a repeated call returns the
	// prior result; without one the operation is deliberately not
	// idempotent (each call refunds again until the cap rejects).
	IdempotencyKey string
}

type RefundResult struct {
	PaymentID      string
	RefundID       string
	RefundedCents  int
	CancelledCents int // cumulative
	RemainingCents int
	FullyRefunded  bool
	Idempotent     bool
}

// refundPlan is the pure arithmetic of one refund against a payment
// snapshot. No side effects; the service applies it transactionally.
type refundPlan struct {
	AmountCents       int
	NewCancelledCents int
	NewStatus         string
	FullyRefunded     bool
}

func planRefund(p Payment, requestedCents int) (refundPlan, error) {
	if requestedCents < 0 {
		return refundPlan{}, ErrNegativeAmount
	}
	if p.Status != StatusCompleted && p.Status != StatusPartiallyCancelled {
		return refundPlan{}, &RefundNotAllowedError{PaymentID: p.ID, Status: p.Status}
	}

	refundable := p.AmountCents - p.CancelledCents
	amount := requestedCents
	if amount == 0 {
		amount = refundable
	}
	if amount > refundable {
		return refundPlan{}, &RefundExceedsError{RequestedCents: amount, RefundableCents: refundable}
	}

	newCancelled := p.CancelledCents + amount
	status := StatusPartiallyCancelled
	full := false
	if newCancelled >= p.AmountCents {
		newCancelled = p.AmountCents
		status = StatusCancelled
		full = true
	}

	return refundPlan{
		AmountCents:       amount,
		NewCancelledCents: newCancelled,
		NewStatus:         status,
		FullyRefunded:     full,
	}, nil
}

// Refund executes the refund contract: validate against the current
// payment row, ask the gateway to cancel, and only then record the new
// cancelled amount and status. A gateway failure changes nothing locally.
func (s *RefundService) Refund(ctx context.Context, in RefundInput) (RefundResult, error) {
	if in.PaymentID == "" {
		return RefundResult{}, ErrNotFound
	}
	if strings.TrimSpace(in.Reason) == "" {
		return RefundResult{}, ErrReasonRequired
	}

	// Phase-1: load + validate under lock (no writes yet)
	var pay Payment
	var plan refundPlan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&pay, "id = ?", in.PaymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.IdempotencyKey != "" {
			var existing Refund
			e := tx.WithContext(ctx).First(&existing, "payment_id = ? AND idempotency_key = ?", pay.ID, in.IdempotencyKey).Error
			if e == nil {
				return &idempotentHit{Result: replayResult(pay, existing)}
			}
			if !errors.Is(e, gorm.ErrRecordNotFound) {
				return e
			}
		}

		p, err := planRefund(pay, in.AmountCents)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		var hit *idempotentHit
		if errors.As(err, &hit) {
			return hit.Result, nil
		}
		return RefundResult{}, err
	}

	// Phase-2: gateway cancel (outside tx, bounded). Timeout or failure
	// means the refund failed; success is never assumed.
	paymentRef := ""
	if pay.ProviderRef != nil {
		paymentRef = *pay.ProviderRef
	}
	gwCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	resp, perr := s.provider.Cancel(gwCtx, CancelRequest{
		PaymentRef:     paymentRef,
		AmountCents:    plan.AmountCents,
		Currency:       pay.Currency,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
	})
	cancel()

	if perr != nil || resp.Status == RefundFailed {
		cause := perr
		if cause == nil {
			cause = errors.New("gateway rejected cancellation")
		}
		return RefundResult{}, &RefundFailedError{Cause: cause}
	}

	// Phase-3: apply the ledger change atomically
	var out RefundResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Re-lock and guard against a concurrent refund committed between
		// the phases: the conditional write only applies on the snapshot
		// the plan was computed from.
		var fresh Payment
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&fresh, "id = ?", pay.ID).Error; err != nil {
			return err
		}
		if fresh.CancelledCents != pay.CancelledCents || fresh.Status != pay.Status {
			return ErrConflict
		}

		var refProviderRef *string
		if resp.ProviderRef != "" {
			r := resp.ProviderRef
			refProviderRef = &r
		}
		var idemPtr *string
		if in.IdempotencyKey != "" {
			k := in.IdempotencyKey
			idemPtr = &k
		}

		ref := Refund{
			ID:             uuid.NewString(),
			OrderID:        pay.OrderID,
			PaymentID:      pay.ID,
			Provider:       s.provider.Name(),
			ProviderRef:    refProviderRef,
			Status:         RefundInitiated,
			AmountCents:    plan.AmountCents,
			Currency:       pay.Currency,
			IdempotencyKey: idemPtr,
			Reason:         strings.TrimSpace(in.Reason),
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if resp.Status == RefundInitiated {
			// async settle: record the pending refund, webhook finalizes
			// the ledger. The payment row is untouched until then.
			if err := tx.WithContext(ctx).Create(&ref).Error; err != nil {
				if isDuplicateKey(err) {
					return ErrConflict
				}
				return err
			}
			out = RefundResult{
				PaymentID:      pay.ID,
				RefundID:       ref.ID,
				RefundedCents:  0,
				CancelledCents: pay.CancelledCents,
				RemainingCents: pay.AmountCents - pay.CancelledCents,
			}
			return nil
		}

		ref.Status = RefundCompleted
		if err := tx.WithContext(ctx).Create(&ref).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}

		res := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND cancelled_cents = ? AND status = ?", pay.ID, pay.CancelledCents, pay.Status).
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
			AmountCents: -plan.AmountCents, // -out
			Currency:    pay.Currency,
			RefType:     "refund",
			RefID:       ref.ID,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
			return err
		}

		out = RefundResult{
			PaymentID:      pay.ID,
			RefundID:       ref.ID,
			RefundedCents:  plan.AmountCents,
			CancelledCents: plan.NewCancelledCents,
			RemainingCents: pay.AmountCents - plan.NewCancelledCents,
			FullyRefunded:  plan.FullyRefunded,
		}
		return nil
	})
	if err != nil {
		return RefundResult{}, err
	}
	return out, nil
}

type CancelOrderInput struct {
	OrderID     string
	ActorUserID string
	IsAdmin     bool
	Reason      string
}

type CancelOrderResult struct {
	OrderID     string
	OrderNumber string
	Status      orders.Status
	Refund      *RefundResult // nil when no completed payment existed
}

// CancelOrder cancels a still-cancellable order, releases its reserved
// stock and refunds its payment in full. The order transition and the
// restock commit first; if the subsequent refund fails the order stays
// cancelled and the refund is retried through the refund endpoint (the
// payment keeps its completed status until the gateway confirms).
func (s *RefundService) CancelOrder(ctx context.Context, in CancelOrderInput) (CancelOrderResult, error) {
	if in.OrderID == "" || in.ActorUserID == "" {
		return CancelOrderResult{}, orders.ErrNotActionable
	}

	var ord orders.Order
	var payID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orders.ErrNotFound
			}
			return err
		}

		// Ownership scope: a foreign order reads as not found.
		if !in.IsAdmin {
			if ord.UserID == nil || *ord.UserID != in.ActorUserID {
				return orders.ErrNotFound
			}
		}

		if !orders.IsCancellable(ord.Status) {
			return ErrNotCancellable
		}

		next, err := orders.Transition(ord.Status, orders.StatusCancelled)
		if err != nil {
			return err
		}

		now := time.Now()
		res := tx.WithContext(ctx).Model(&orders.Order{}).
			Where("id = ? AND status = ?", ord.ID, ord.Status).
			Updates(map[string]any{
				"status":       next,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return orders.ErrInvalidTransition
		}

		var notePtr *string
		if r := strings.TrimSpace(in.Reason); r != "" {
			notePtr = &r
		}
		ev := orders.OrderEvent{
			ID:          uuid.NewString(),
			OrderID:     ord.ID,
			ActorUserID: in.ActorUserID,
			Action:      "cancel",
			FromStatus:  ord.Status,
			ToStatus:    next,
			Note:        notePtr,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
			return err
		}

		if s.restock != nil {
			if err := s.restock(ctx, tx, ord.ID); err != nil {
				return err
			}
		}

		var pay Payment
		e := tx.WithContext(ctx).
			Where("order_id = ? AND status IN ?", ord.ID, []string{StatusCompleted, StatusPartiallyCancelled}).
			Order("created_at DESC").
			First(&pay).Error
		if e == nil {
			payID = pay.ID
		} else if !errors.Is(e, gorm.ErrRecordNotFound) {
			return e
		}

		ord.Status = next
		return nil
	})
	if err != nil {
		return CancelOrderResult{}, err
	}

	out := CancelOrderResult{OrderID: ord.ID, OrderNumber: ord.OrderNumber, Status: ord.Status}

	if payID != "" {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = "order cancelled"
		}
		ref, err := s.Refund(ctx, RefundInput{
			PaymentID:      payID,
			AmountCents:    0, // full remaining
			Reason:         reason,
			ActorUserID:    in.ActorUserID,
			IdempotencyKey: "cancel-" + ord.ID,
		})
		if err != nil {
			return out, err
		}
		out.Refund = &ref
	}

	return out, nil
}

// idempotentHit smuggles a prior result out of the phase-1 transaction.
type idempotentHit struct{ Result RefundResult }

func (e *idempotentHit) Error() string { return "idempotent refund replay" }

func replayResult(pay Payment, existing Refund) RefundResult {
	return RefundResult{
		PaymentID:      pay.ID,
		RefundID:       existing.ID,
		RefundedCents:  existing.AmountCents,
		CancelledCents: pay.CancelledCents,
		RemainingCents: pay.AmountCents - pay.CancelledCents,
		FullyRefunded:  pay.Status == StatusCancelled,
		Idempotent:     true,
	}
}

func isDuplicateKey(err error) bool {
	var me *gosql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
