package returns

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Return is one customer return request against a single order line. One
// open request per line at a time; the unique index enforces it for the
// non-terminal statuses via the OpenKey column.
type Return struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderID     string `gorm:"type:char(36);not null;index:ix_returns_order_id"`
	OrderItemID string `gorm:"type:char(36);not null"`
	UserID      string `gorm:"type:char(36);not null;index:ix_returns_user_id"`

	// OpenKey mirrors OrderItemID while the request is open and becomes
	// NULL on rejection, so a rejected line can be re-requested but two
	// open requests can never coexist.
	OpenKey *string `gorm:"type:char(36);uniqueIndex:ux_returns_open_item"`

	Status   Status `gorm:"type:varchar(16);not null;index:ix_returns_status"`
	Quantity int    `gorm:"not null"`
	Reason   string `gorm:"type:varchar(64);not null"`
	Detail   string `gorm:"type:varchar(1000);not null"`

	// Customer-uploaded photo keys in object storage.
	EvidenceImages datatypes.JSON `gorm:"type:json"`

	RefundCents int     `gorm:"not null"`
	RefundID    *string `gorm:"type:char(36)"`
	AdminNote   *string `gorm:"type:varchar(255)"`

	DecidedAt   *time.Time `gorm:"type:datetime(3)"`
	CompletedAt *time.Time `gorm:"type:datetime(3)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Return) TableName() string { return "returns" }
