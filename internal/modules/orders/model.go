package orders

import (
	"time"

	"gorm.io/datatypes"
)

type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_order_number"`

	UserID *string `gorm:"type:char(36);index:ix_orders_user_id"`
	Email  string  `gorm:"type:varchar(255);not null"`

	Status   Status `gorm:"type:varchar(32);not null;index:ix_orders_status"`
	Currency string `gorm:"type:char(3);not null"`

	TotalCents    int `gorm:"not null"`
	DiscountCents int `gorm:"not null"`
	ShippingCents int `gorm:"not null"`
	FinalCents    int `gorm:"not null"` // total - discount + shipping

	CouponID *string `gorm:"type:char(36)"`
	Note     *string `gorm:"type:varchar(255)"`

	// Address snapshot taken at checkout. Later profile edits must not
	// change historical orders.
	ShipToJSON datatypes.JSON `gorm:"type:json;not null"`

	PaidAt      *time.Time `gorm:"type:datetime(3)"`
	CancelledAt *time.Time `gorm:"type:datetime(3)"`
	ConfirmedAt *time.Time `gorm:"type:datetime(3)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

// Address is the checkout-time shipping snapshot serialized into
// Order.ShipToJSON.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem carries product name/variant/price copied at order time, so
// later catalog edits do not corrupt historical orders.
type OrderItem struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	OrderID string `gorm:"type:char(36);not null;index:ix_order_items_order_id"`

	VariantID   string `gorm:"type:char(36);not null;index:ix_order_items_variant_id"`
	ProductName string `gorm:"type:varchar(255);not null"`
	VariantDesc string `gorm:"type:varchar(255);not null"`

	UnitPriceCents int    `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`
	Quantity       int    `gorm:"not null"`
	LineTotalCents int    `gorm:"not null"` // unit price * quantity

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderEvent is the audit trail row written for every status change.
type OrderEvent struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	OrderID     string    `gorm:"type:char(36);not null;index:ix_order_events_order_id"`
	ActorUserID string    `gorm:"type:char(36);not null"`
	Action      string    `gorm:"type:varchar(32);not null"`
	FromStatus  Status    `gorm:"type:varchar(32);not null"`
	ToStatus    Status    `gorm:"type:varchar(32);not null"`
	Note        *string   `gorm:"type:varchar(255)"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderEvent) TableName() string { return "order_events" }

// FinancialEntry is the money-movement ledger: one row per charge or
// refund applied to an order (refunds are negative).
type FinancialEntry struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	OrderID     string    `gorm:"type:char(36);not null;index:ix_order_fin_entries_order_created,priority:1"`
	Event       string    `gorm:"type:varchar(32);not null"`
	AmountCents int       `gorm:"not null"`
	Currency    string    `gorm:"type:char(3);not null"`
	RefType     string    `gorm:"type:varchar(16);not null"`
	RefID       string    `gorm:"type:char(36);not null"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null;index:ix_order_fin_entries_order_created,priority:2"`
}

func (FinancialEntry) TableName() string { return "order_financial_entries" }
