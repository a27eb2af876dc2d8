package catalog

import "time"

type Product struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	Name        string `gorm:"type:varchar(255);not null"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex:ux_products_slug"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(16);not null;index:ix_products_status"`

	Variants []Variant `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "products" }

type Variant struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	ProductID string `gorm:"type:char(36);not null;index:ix_product_variants_product_id"`
	SKU       string `gorm:"type:varchar(64);not null;uniqueIndex:ux_product_variants_sku"`

	Description string `gorm:"type:varchar(255);not null"`
	PriceCents  int    `gorm:"not null"`
	Currency    string `gorm:"type:char(3);not null"`
	Stock       int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Variant) TableName() string { return "product_variants" }
