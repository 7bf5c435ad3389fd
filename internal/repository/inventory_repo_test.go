package repository

import (
	"context"
	"testing"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/database"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedPair(t *testing.T, db *gorm.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()

	vendor := model.Vendor{Code: "VND-001", Name: "Vendor", IsActive: true}
	require.NoError(t, db.Create(&vendor).Error)
	product := model.Product{SKU: "SKU-001", Name: "Product", IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	return vendor.ID, product.ID
}

func TestUpdateStockGuardedDetectsStaleRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	vendorID, productID := seedPair(t, db)

	row := model.VendorInventory{
		VendorID:     vendorID,
		ProductID:    productID,
		TotalStock:   10,
		OnlineStock:  10,
		OfflineStock: 0,
	}
	require.NoError(t, repo.CreateRow(ctx, &row))

	// A writer holding the real previous values wins.
	update := model.VendorInventory{
		VendorID:     vendorID,
		ProductID:    productID,
		TotalStock:   15,
		OnlineStock:  15,
		OfflineStock: 0,
	}
	require.NoError(t, repo.UpdateStockGuarded(ctx, &update, 10, 10, 0))

	// A writer holding the now-stale values loses with a conflict.
	stale := model.VendorInventory{
		VendorID:     vendorID,
		ProductID:    productID,
		TotalStock:   12,
		OnlineStock:  12,
		OfflineStock: 0,
	}
	err := repo.UpdateStockGuarded(ctx, &stale, 10, 10, 0)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	current, err := repo.FindPair(ctx, vendorID, productID)
	require.NoError(t, err)
	assert.Equal(t, 15, current.TotalStock)
}

func TestCreateRowDuplicatePair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	vendorID, productID := seedPair(t, db)

	first := model.VendorInventory{VendorID: vendorID, ProductID: productID, TotalStock: 5, OnlineStock: 5}
	require.NoError(t, repo.CreateRow(ctx, &first))

	second := model.VendorInventory{VendorID: vendorID, ProductID: productID, TotalStock: 7, OnlineStock: 7}
	err := repo.CreateRow(ctx, &second)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestFindPairMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepository(db)

	row, err := repo.FindPair(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestLogsInOrderPreservesAppendOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	vendorID, productID := seedPair(t, db)

	user := model.User{Username: "staff", Email: "staff@example.com", Password: "x", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	for i := 1; i <= 3; i++ {
		entry := model.InventoryLog{
			VendorID:        vendorID,
			ProductID:       productID,
			TransactionType: model.TxTypeRestock,
			QuantityChange:  i,
			StockType:       model.StockTypeOnline,
			PerformedBy:     user.ID,
		}
		require.NoError(t, repo.AppendLog(ctx, &entry))
	}

	logs, err := repo.LogsInOrder(ctx, vendorID, productID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 1, logs[0].QuantityChange)
	assert.Equal(t, 2, logs[1].QuantityChange)
	assert.Equal(t, 3, logs[2].QuantityChange)
	assert.Less(t, logs[0].ID, logs[1].ID)
	assert.Less(t, logs[1].ID, logs[2].ID)
}
