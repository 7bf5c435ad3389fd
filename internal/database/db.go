package database

import (
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// Callers run Migrate themselves so a migration failure is fatal in one place.
func NewConnection(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate runs AutoMigrate for every model, leaves first so foreign keys
// resolve: users/roles, then catalog and vendors, then the inventory ledger,
// then the approval workflow tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Brand{},
		&model.Manufacturer{},
		&model.Category{},
		&model.Salt{},
		&model.Dosage{},
		&model.Attribute{},
		&model.GSTRate{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Vendor{},
		&model.VendorInventory{},
		&model.InventoryLog{},
		&model.ApprovalRequest{},
		&model.ApprovalHistory{},
		&model.ApprovalNotification{},
		&model.ActivityLog{},
	)
}
