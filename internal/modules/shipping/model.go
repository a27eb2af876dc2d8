package shipping

import "time"

type Shipment struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	OrderID string `gorm:"type:char(36);not null;uniqueIndex:ux_shipments_order_id"`

	Carrier        string  `gorm:"type:varchar(64);not null"`
	TrackingNumber *string `gorm:"type:varchar(64)"`

	Status Status `gorm:"type:varchar(32);not null"`

	// Set exactly once when the status first reaches shipped/delivered.
	ShippedAt   *time.Time `gorm:"type:datetime(3)"`
	DeliveredAt *time.Time `gorm:"type:datetime(3)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Shipment) TableName() string { return "shipments" }
