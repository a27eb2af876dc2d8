// Package returns implements the post-delivery return flow: a customer
// requests a return for an order line, an admin approves or rejects it,
// and an approval refunds the line amount through the payment ledger.
package returns

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gosql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
)

// Returns are accepted for this long after the delivery stamp.
const returnWindow = 14 * 24 * time.Hour

type Service struct {
	db      *gorm.DB
	refunds *payments.RefundService
}

func NewService(db *gorm.DB, refunds *payments.RefundService) *Service {
	return &Service{db: db, refunds: refunds}
}

// returnable reports whether an order in this status accepts return
// requests. Only received goods can come back.
func returnable(s orders.Status) bool {
	return s == orders.StatusDelivered || s == orders.StatusConfirmed
}

// withinWindow checks the receipt stamp against the return window. The
// confirm stamp is authoritative when present; a delivered-but-unconfirmed
// order falls back to its last status change.
func withinWindow(ord orders.Order, now time.Time) bool {
	ref := ord.UpdatedAt
	if ord.ConfirmedAt != nil {
		ref = *ord.ConfirmedAt
	}
	return now.Sub(ref) <= returnWindow
}

// refundCents is the pure line-amount rule: unit price times returned
// quantity, never more than the line total.
func refundCents(item orders.OrderItem, quantity int) (int, error) {
	if quantity < 1 || quantity > item.Quantity {
		return 0, ErrBadQuantity
	}
	amount := item.UnitPriceCents * quantity
	if amount > item.LineTotalCents {
		amount = item.LineTotalCents
	}
	return amount, nil
}

type RequestInput struct {
	OrderID        string
	OrderItemID    string
	UserID         string
	Quantity       int
	Reason         string
	Detail         string
	EvidenceImages []string // storage keys, already uploaded
}

// Request files a return for one order line. The open-request uniqueness
// is enforced by the ux_returns_open_item index, not by a pre-check.
func (s *Service) Request(ctx context.Context, in RequestInput) (Return, error) {
	if in.OrderID == "" || in.OrderItemID == "" || in.UserID == "" {
		return Return{}, ErrNotFound
	}
	if strings.TrimSpace(in.Reason) == "" {
		return Return{}, payments.ErrReasonRequired
	}

	var ret Return
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ord orders.Order
		if err := tx.WithContext(ctx).First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if ord.UserID == nil || *ord.UserID != in.UserID {
			return ErrNotFound
		}
		if !returnable(ord.Status) || !withinWindow(ord, time.Now()) {
			return ErrOrderNotReturnable
		}

		var item orders.OrderItem
		if err := tx.WithContext(ctx).First(&item, "id = ?", in.OrderItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotInOrder
			}
			return err
		}
		if item.OrderID != ord.ID {
			return ErrItemNotInOrder
		}

		amount, err := refundCents(item, in.Quantity)
		if err != nil {
			return err
		}

		images := datatypes.JSON("[]")
		if len(in.EvidenceImages) > 0 {
			b, merr := json.Marshal(in.EvidenceImages)
			if merr != nil {
				return merr
			}
			images = datatypes.JSON(b)
		}

		now := time.Now()
		itemID := item.ID
		ret = Return{
			ID:             uuid.NewString(),
			OrderID:        ord.ID,
			OrderItemID:    item.ID,
			UserID:         in.UserID,
			OpenKey:        &itemID,
			Status:         StatusRequested,
			Quantity:       in.Quantity,
			Reason:         strings.TrimSpace(in.Reason),
			Detail:         strings.TrimSpace(in.Detail),
			EvidenceImages: images,
			RefundCents:    amount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&ret).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyOpen
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Return{}, err
	}
	return ret, nil
}

type DecideInput struct {
	ReturnID    string
	AdminUserID string
	Approve     bool
	AdminNote   string
}

// Decide approves or rejects a requested return. Approval refunds the
// line amount through the refund engine; the return only reaches
// completed when the refund was confirmed. A failed refund leaves the
// return approved so the decision can be retried without re-approval.
func (s *Service) Decide(ctx context.Context, in DecideInput) (Return, error) {
	if in.ReturnID == "" || in.AdminUserID == "" {
		return Return{}, ErrNotFound
	}

	var ret Return
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ret, "id = ?", in.ReturnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if ret.Status != StatusRequested && !(in.Approve && ret.Status == StatusApproved) {
			return ErrNotDecidable
		}

		now := time.Now()
		updates := map[string]any{"updated_at": now}
		if ret.DecidedAt == nil {
			updates["decided_at"] = now
		}
		var notePtr *string
		if n := strings.TrimSpace(in.AdminNote); n != "" {
			notePtr = &n
			updates["admin_note"] = n
		}

		target := StatusApproved
		if !in.Approve {
			target = StatusRejected
			updates["open_key"] = nil
		}
		updates["status"] = target

		res := tx.WithContext(ctx).Model(&Return{}).
			Where("id = ? AND status = ?", ret.ID, ret.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotDecidable
		}

		ret.Status = target
		ret.AdminNote = notePtr
		return nil
	})
	if err != nil {
		return Return{}, err
	}

	if ret.Status != StatusApproved {
		return ret, nil
	}

	// Refund outside the decision tx: the gateway call must not hold row
	// locks. The idempotency key pins retries of this same return.
	pay, err := s.completedPayment(ctx, ret.OrderID)
	if err != nil {
		return ret, err
	}
	res, err := s.refunds.Refund(ctx, payments.RefundInput{
		PaymentID:      pay.ID,
		AmountCents:    ret.RefundCents,
		Reason:         "return " + ret.ID + ": " + ret.Reason,
		ActorUserID:    in.AdminUserID,
		IdempotencyKey: "return-" + ret.ID,
	})
	if err != nil {
		return ret, err
	}

	now := time.Now()
	upd := s.db.WithContext(ctx).Model(&Return{}).
		Where("id = ? AND status = ?", ret.ID, StatusApproved).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"refund_id":    res.RefundID,
			"open_key":     nil,
			"completed_at": now,
			"updated_at":   now,
		})
	if upd.Error != nil {
		return ret, upd.Error
	}
	ret.Status = StatusCompleted
	ret.RefundID = &res.RefundID
	ret.OpenKey = nil
	ret.CompletedAt = &now
	return ret, nil
}

func (s *Service) completedPayment(ctx context.Context, orderID string) (payments.Payment, error) {
	var pay payments.Payment
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, []string{payments.StatusCompleted, payments.StatusPartiallyCancelled}).
		Order("created_at DESC").
		First(&pay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payments.Payment{}, payments.ErrNotFound
		}
		return payments.Payment{}, err
	}
	return pay, nil
}

// ListByUser returns the caller's returns, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Return, error) {
	var rets []Return
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rets).Error
	return rets, err
}

// AdminList returns returns filtered by status, newest first.
func (s *Service) AdminList(ctx context.Context, status string, limit, offset int) ([]Return, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rets []Return
	err := q.Find(&rets).Error
	return rets, err
}

func (s *Service) Get(ctx context.Context, id string) (Return, error) {
	var ret Return
	if err := s.db.WithContext(ctx).First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Return{}, ErrNotFound
		}
		return Return{}, err
	}
	return ret, nil
}

func isDuplicateKey(err error) bool {
	var me *gosql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
