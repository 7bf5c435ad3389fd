package database

import (
	"log"
	"os"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Permission codes grouped the way the admin UI groups them.
var seedPermissions = []model.Permission{
	{Code: "users.read", Name: "View users", Group: "users"},
	{Code: "users.write", Name: "Manage users", Group: "users"},
	{Code: "catalog.read", Name: "View catalog", Group: "catalog"},
	{Code: "catalog.write", Name: "Propose catalog changes", Group: "catalog"},
	{Code: "vendors.read", Name: "View vendors", Group: "vendors"},
	{Code: "inventory.read", Name: "View vendor inventory", Group: "inventory"},
	{Code: "inventory.write", Name: "Record inventory movements", Group: "inventory"},
	{Code: "approvals.read", Name: "View approval requests", Group: "approvals"},
	{Code: "approvals.submit", Name: "Submit approval requests", Group: "approvals"},
	{Code: "approvals.review", Name: "Approve or reject requests", Group: "approvals"},
	{Code: "approvals.apply", Name: "Apply approved requests", Group: "approvals"},
	{Code: "audit.read", Name: "View activity logs", Group: "audit"},
}

var seedRolePermissions = map[string][]string{
	model.RoleAdmin: nil, // admin gets every code
	model.RoleManager: {
		"users.read", "catalog.read", "catalog.write", "vendors.read",
		"inventory.read", "inventory.write",
		"approvals.read", "approvals.submit", "approvals.review", "approvals.apply",
		"audit.read",
	},
	model.RoleStaff: {
		"catalog.read", "vendors.read", "inventory.read",
		"approvals.read", "approvals.submit",
	},
}

// Indian GST slabs applicable to pharma SKUs.
var seedGSTRates = []model.GSTRate{
	{Slab: "GST_0", Rate: decimal.NewFromInt(0), Description: "Exempt"},
	{Slab: "GST_5", Rate: decimal.NewFromInt(5), Description: "Essential medicines"},
	{Slab: "GST_12", Rate: decimal.NewFromInt(12), Description: "Standard pharma"},
	{Slab: "GST_18", Rate: decimal.NewFromInt(18), Description: "OTC and wellness"},
	{Slab: "GST_28", Rate: decimal.NewFromInt(28), Description: "Non-essential"},
}

// Seed inserts reference rows the platform cannot run without: permission
// codes, built-in roles with their grants, GST slabs, and a bootstrap admin.
// It is idempotent; re-running against a populated database is a no-op.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range seedPermissions {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&seedPermissions[i]).Error; err != nil {
				return err
			}
		}

		var perms []model.Permission
		if err := tx.Find(&perms).Error; err != nil {
			return err
		}
		byCode := make(map[string]model.Permission, len(perms))
		for _, p := range perms {
			byCode[p.Code] = p
		}

		for roleName, codes := range seedRolePermissions {
			role := model.Role{Name: roleName, IsSystem: true}
			if err := tx.Where(model.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
				return err
			}

			grant := perms
			if codes != nil {
				grant = make([]model.Permission, 0, len(codes))
				for _, code := range codes {
					if p, ok := byCode[code]; ok {
						grant = append(grant, p)
					}
				}
			}
			if err := tx.Model(&role).Association("Permissions").Replace(grant); err != nil {
				return err
			}
		}

		for i := range seedGSTRates {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&seedGSTRates[i]).Error; err != nil {
				return err
			}
		}

		return seedAdminUser(tx)
	})
}

func seedAdminUser(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("ADMIN_BOOTSTRAP_PASSWORD not set, seeding admin with default password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Username: "admin",
		Email:    "admin@truecart.local",
		Password: string(hashed),
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	return tx.Create(&admin).Error
}
