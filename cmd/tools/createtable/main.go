// Dev tool: creates/updates all tables from the gorm models. Production
// schemas should be managed with explicit migrations instead.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"kavella.com/app/internal/http/middleware"
	"kavella.com/app/internal/modules/catalog"
	"kavella.com/app/internal/modules/coupons"
	"kavella.com/app/internal/modules/orders"
	"kavella.com/app/internal/modules/payments"
	"kavella.com/app/internal/modules/returns"
	"kavella.com/app/internal/modules/shipping"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	models := []any{
		&middleware.User{},
		&middleware.Session{},
		&catalog.Product{},
		&catalog.Variant{},
		&coupons.Coupon{},
		&coupons.CouponUsage{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.OrderEvent{},
		&orders.FinancialEntry{},
		&payments.Payment{},
		&payments.Refund{},
		&payments.ProviderEvent{},
		&shipping.Shipment{},
		&returns.Return{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	log.Printf("✓ %d tables migrated successfully", len(models))
}
