package service

import (
	"testing"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/database"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles the repositories and services wired against an in-memory
// database, mirroring the production dependency graph.
type testEnv struct {
	db *gorm.DB

	txManager        repository.TransactionManager
	approvalRepo     repository.ApprovalRepository
	notificationRepo repository.NotificationRepository
	inventoryRepo    repository.InventoryRepository
	catalogRepo      repository.CatalogRepository
	vendorRepo       repository.VendorRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository

	approvals    ApprovalService
	inventory    InventoryService
	catalog      CatalogService
	vendors      VendorService
	notification NotificationService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:               db,
		txManager:        repository.NewTransactionManager(db),
		approvalRepo:     repository.NewApprovalRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		inventoryRepo:    repository.NewInventoryRepository(db),
		catalogRepo:      repository.NewCatalogRepository(db),
		vendorRepo:       repository.NewVendorRepository(db),
		userRepo:         repository.NewUserRepository(db),
		auditRepo:        repository.NewAuditRepository(db),
	}

	env.approvals = NewApprovalService(env.approvalRepo, env.notificationRepo, env.userRepo, env.auditRepo, env.txManager, nil)
	env.inventory = NewInventoryService(env.inventoryRepo, env.vendorRepo, env.auditRepo, env.txManager, nil)
	env.catalog = NewCatalogService(env.catalogRepo, env.vendorRepo)
	env.vendors = NewVendorService(env.vendorRepo, env.inventoryRepo)
	env.notification = NewNotificationService(env.notificationRepo)

	env.catalog.RegisterKinds(env.approvals)
	return env
}

func (e *testEnv) createUser(t *testing.T, username, role string) model.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) createVendor(t *testing.T, code string) model.Vendor {
	t.Helper()

	vendor := model.Vendor{
		Code:     code,
		Name:     "Vendor " + code,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&vendor).Error)
	return vendor
}

func (e *testEnv) createProduct(t *testing.T, sku string) model.Product {
	t.Helper()

	product := model.Product{
		SKU:      sku,
		Name:     "Product " + sku,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&product).Error)
	return product
}
