package payments

import "time"

const (
	// Payment statuses. cancelled_cents drives the completed ->
	// partially_cancelled -> cancelled progression.
	StatusPending            = "pending"
	StatusCompleted          = "completed"
	StatusPartiallyCancelled = "partially_cancelled"
	StatusCancelled          = "cancelled"
	StatusFailed             = "failed"
)

const (
	RefundInitiated = "initiated"
	RefundCompleted = "completed"
	RefundFailed    = "failed"
)

type Payment struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	OrderID string `gorm:"type:char(36);not null;index:ix_payments_order_id;uniqueIndex:ux_payments_order_idem,priority:1"`

	Method   string `gorm:"type:varchar(32);not null"`
	Status   string `gorm:"type:varchar(32);not null"`
	Currency string `gorm:"type:char(3);not null"`

	AmountCents int `gorm:"not null"`
	// Cumulative refunded amount. Monotonically non-decreasing and never
	// above AmountCents.
	CancelledCents int `gorm:"not null"`

	Provider    string  `gorm:"type:varchar(64);not null"`
	ProviderRef *string `gorm:"type:varchar(128);index:ix_payments_provider_ref"`

	IdempotencyKey string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_payments_order_idem,priority:2"`
	ErrorMessage   *string `gorm:"type:varchar(255)"`

	PaidAt      *time.Time `gorm:"type:datetime(3)"`
	CancelledAt *time.Time `gorm:"type:datetime(3)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "payments" }

// Refund is the audit row for one cancellation against a payment.
type Refund struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	OrderID   string `gorm:"type:char(36);not null;index:ix_refunds_order_id"`
	PaymentID string `gorm:"type:char(36);not null;uniqueIndex:ux_refunds_payment_idem,priority:1"`

	Provider    string  `gorm:"type:varchar(64);not null"`
	ProviderRef *string `gorm:"type:varchar(128);index:ix_refunds_provider_ref"`

	Status      string `gorm:"type:varchar(32);not null"`
	AmountCents int    `gorm:"not null"`
	Currency    string `gorm:"type:char(3);not null"`

	// Retry dedupe: a repeated call with the same key returns the prior
	// result instead of refunding twice.
	IdempotencyKey *string `gorm:"type:varchar(64);uniqueIndex:ux_refunds_payment_idem,priority:2"`

	Reason       string  `gorm:"type:varchar(255);not null"`
	ErrorMessage *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Refund) TableName() string { return "refunds" }
