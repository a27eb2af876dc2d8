package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service coordinates externally triggered order status changes. Every
// write goes through the transition table; the persisted value is the one
// Transition returned.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type UpdateStatusInput struct {
	OrderID     string
	Target      Status
	ActorUserID string
	Action      string // audit label: "confirm", "admin_update", ...
	Note        string
}

// StatusProjection is the minimal updated view returned to callers.
type StatusProjection struct {
	ID          string
	OrderNumber string
	Status      Status
}

// UpdateStatus loads the order under a row lock, validates the transition
// and persists the validated target. Illegal transitions fail loudly; the
// status is never clamped.
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (StatusProjection, error) {
	if in.OrderID == "" || in.ActorUserID == "" {
		return StatusProjection{}, ErrNotActionable
	}
	if !IsValid(in.Target) {
		return StatusProjection{}, ErrInvalidTransition
	}

	var out StatusProjection

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := Transition(o.Status, in.Target)
		if err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{
			"status":     next,
			"updated_at": now,
		}
		// Lifecycle stamps are written exactly once.
		if next == StatusPaid && o.PaidAt == nil {
			updates["paid_at"] = now
		}
		if next == StatusCancelled && o.CancelledAt == nil {
			updates["cancelled_at"] = now
		}
		if next == StatusConfirmed && o.ConfirmedAt == nil {
			updates["confirmed_at"] = now
		}

		res := tx.WithContext(ctx).
			Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, o.Status). // optimistic guard
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// concurrent writer moved the order first
			return ErrInvalidTransition
		}

		action := in.Action
		if action == "" {
			action = "status_update"
		}
		var notePtr *string
		if n := strings.TrimSpace(in.Note); n != "" {
			notePtr = &n
		}
		ev := OrderEvent{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ActorUserID: in.ActorUserID,
			Action:      action,
			FromStatus:  o.Status,
			ToStatus:    next,
			Note:        notePtr,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
			return err
		}

		out = StatusProjection{ID: o.ID, OrderNumber: o.OrderNumber, Status: next}
		return nil
	})
	if err != nil {
		return StatusProjection{}, err
	}
	return out, nil
}

// Confirm is the customer "I received it" action: delivered -> confirmed,
// scoped to the owning user. Foreign orders read as not found.
func (s *Service) Confirm(ctx context.Context, orderID, userID string) (StatusProjection, error) {
	if orderID == "" || userID == "" {
		return StatusProjection{}, ErrNotActionable
	}

	var o Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusProjection{}, ErrNotFound
		}
		return StatusProjection{}, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return StatusProjection{}, ErrNotFound
	}

	return s.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:     orderID,
		Target:      StatusConfirmed,
		ActorUserID: userID,
		Action:      "confirm",
	})
}
