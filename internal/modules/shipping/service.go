package shipping

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kavella.com/app/internal/modules/orders"
)

// Service owns shipment rows and keeps the parent order in lockstep when
// the shipment crosses the shipped/delivered thresholds. The order side
// always goes through the order transition table, never a direct write.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type UpdateInput struct {
	OrderID     string
	ActorUserID string

	Carrier        string  // optional, set/overwrite when non-empty
	TrackingNumber *string // optional
	Target         *Status // optional status advance
}

// orderSyncTarget decides whether an order must advance when its shipment
// reaches shipStatus. The order is only moved from the exact expected
// status; anything else is left untouched.
func orderSyncTarget(shipStatus Status, orderStatus orders.Status) (orders.Status, bool) {
	switch {
	case shipStatus == StatusShipped && orderStatus == orders.StatusPreparing:
		return orders.StatusShipping, true
	case shipStatus == StatusDelivered && orderStatus == orders.StatusShipping:
		return orders.StatusDelivered, true
	default:
		return "", false
	}
}

// Update creates or advances the shipment for an order. A first call
// creates the row in preparing; a Target advances it through the shipment
// machine, stamping shippedAt/deliveredAt exactly once.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Shipment, error) {
	if in.OrderID == "" || in.ActorUserID == "" {
		return Shipment{}, ErrNotActionable
	}
	if in.Target != nil && !IsValid(*in.Target) {
		return Shipment{}, ErrInvalidTransition
	}

	var out Shipment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock order first, shipment second: fixed order avoids deadlock
		// against the payment/cancel paths, which also lock the order row.
		var ord orders.Order
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ord, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orders.ErrNotFound
			}
			return err
		}

		now := time.Now()

		var sh Shipment
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&sh, "order_id = ?", in.OrderID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sh = Shipment{
				ID:        uuid.NewString(),
				OrderID:   in.OrderID,
				Carrier:   strings.TrimSpace(in.Carrier),
				Status:    StatusPreparing,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&sh).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		updates := map[string]any{"updated_at": now}
		if c := strings.TrimSpace(in.Carrier); c != "" {
			updates["carrier"] = c
			sh.Carrier = c
		}
		if in.TrackingNumber != nil {
			tn := strings.TrimSpace(*in.TrackingNumber)
			updates["tracking_number"] = tn
			sh.TrackingNumber = &tn
		}

		if in.Target != nil && *in.Target != sh.Status {
			next, err := Transition(sh.Status, *in.Target)
			if err != nil {
				return err
			}

			updates["status"] = next
			if next == StatusShipped && sh.ShippedAt == nil {
				updates["shipped_at"] = now
				sh.ShippedAt = &now
			}
			if next == StatusDelivered && sh.DeliveredAt == nil {
				updates["delivered_at"] = now
				sh.DeliveredAt = &now
			}

			res := tx.WithContext(ctx).
				Model(&Shipment{}).
				Where("id = ? AND status = ?", sh.ID, sh.Status). // optimistic guard
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrInvalidTransition
			}
			sh.Status = next

			if err := s.syncOrder(ctx, tx, &ord, next, in.ActorUserID, now); err != nil {
				return err
			}
		} else {
			if err := tx.WithContext(ctx).
				Model(&Shipment{}).
				Where("id = ?", sh.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		sh.UpdatedAt = now
		out = sh
		return nil
	})
	if err != nil {
		return Shipment{}, err
	}
	return out, nil
}

// syncOrder advances the order when the shipment crossed a threshold. The
// transition runs through the order state machine; when the order is in an
// unexpected status the sync is skipped, never forced.
func (s *Service) syncOrder(ctx context.Context, tx *gorm.DB, ord *orders.Order, shipStatus Status, actorUserID string, now time.Time) error {
	target, ok := orderSyncTarget(shipStatus, ord.Status)
	if !ok {
		return nil
	}

	next, err := orders.Transition(ord.Status, target)
	if err != nil {
		// unreachable while the sync table matches the order table
		return err
	}

	res := tx.WithContext(ctx).
		Model(&orders.Order{}).
		Where("id = ? AND status = ?", ord.ID, ord.Status).
		Updates(map[string]any{"status": next, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return orders.ErrInvalidTransition
	}

	ev := orders.OrderEvent{
		ID:          uuid.NewString(),
		OrderID:     ord.ID,
		ActorUserID: actorUserID,
		Action:      "shipment_sync",
		FromStatus:  ord.Status,
		ToStatus:    next,
		CreatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
		return err
	}
	ord.Status = next
	return nil
}

// GetByOrder returns the shipment for an order, if any.
func (s *Service) GetByOrder(ctx context.Context, orderID string) (Shipment, error) {
	var sh Shipment
	if err := s.db.WithContext(ctx).First(&sh, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Shipment{}, ErrNotFound
		}
		return Shipment{}, err
	}
	return sh, nil
}
