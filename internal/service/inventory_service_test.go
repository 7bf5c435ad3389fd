package service

import (
	"context"
	"testing"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contendedInventoryRepo fails the guarded update a fixed number of times
// before delegating, standing in for a concurrent writer on the same pair.
type contendedInventoryRepo struct {
	repository.InventoryRepository
	remaining int
}

func (r *contendedInventoryRepo) UpdateStockGuarded(ctx context.Context, row *model.VendorInventory, prevTotal, prevOnline, prevOffline int) error {
	if r.remaining > 0 {
		r.remaining--
		return apperr.Conflict("vendor inventory row changed underneath the update")
	}
	return r.InventoryRepository.UpdateStockGuarded(ctx, row, prevTotal, prevOnline, prevOffline)
}

func TestRecordMovementCreatesPair(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	stock, err := env.inventory.RecordMovement(ctx, RecordMovementInput{
		VendorID:        vendor.ID,
		ProductID:       product.ID,
		TransactionType: model.TxTypeRestock,
		QuantityChange:  50,
		StockType:       model.StockTypeOnline,
		PerformedBy:     staff.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, stock.TotalStock)
	assert.Equal(t, 50, stock.OnlineStock)
	assert.Equal(t, 0, stock.OfflineStock)

	// The ledger got exactly one row with the full before/after snapshot.
	movements, total, err := env.inventory.ListMovements(ctx, vendor.ID, product.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, movements, 1)
	assert.Equal(t, 0, movements[0].PreviousTotalStock)
	assert.Equal(t, 50, movements[0].NewTotalStock)
	assert.Equal(t, 50, movements[0].NewOnlineStock)
}

func TestRecordMovementRejectsNegativeStock(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	// No stock yet: any sale would drive the buckets negative.
	_, err := env.inventory.RecordMovement(ctx, RecordMovementInput{
		VendorID:        vendor.ID,
		ProductID:       product.ID,
		TransactionType: model.TxTypeOfflineSale,
		QuantityChange:  -5,
		StockType:       model.StockTypeOffline,
		PerformedBy:     staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	// The failed movement left no ledger row behind.
	_, total, err := env.inventory.ListMovements(ctx, vendor.ID, product.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestRecordMovementValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	_, err := env.inventory.RecordMovement(ctx, RecordMovementInput{
		VendorID:        vendor.ID,
		ProductID:       product.ID,
		TransactionType: model.TxTypeAdjustment,
		QuantityChange:  0,
		StockType:       model.StockTypeOnline,
		PerformedBy:     staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCurrentStockZeroDefault(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	stock, err := env.inventory.CurrentStock(ctx, vendor.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.TotalStock)
	assert.Equal(t, 0, stock.OnlineStock)
	assert.Equal(t, 0, stock.OfflineStock)
}

func TestReallocatePreservesTotal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	_, err := env.inventory.RecordMovement(ctx, RecordMovementInput{
		VendorID:        vendor.ID,
		ProductID:       product.ID,
		TransactionType: model.TxTypeRestock,
		QuantityChange:  100,
		StockType:       model.StockTypeOnline,
		PerformedBy:     staff.ID,
	})
	require.NoError(t, err)

	stock, err := env.inventory.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   60,
		NewOffline:  40,
		PerformedBy: staff.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, stock.TotalStock)
	assert.Equal(t, 60, stock.OnlineStock)
	assert.Equal(t, 40, stock.OfflineStock)

	// A split that changes the total is refused.
	_, err = env.inventory.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   60,
		NewOffline:  50,
		PerformedBy: staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}

func TestReallocateUnknownPair(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	_, err := env.inventory.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   0,
		NewOffline:  0,
		PerformedBy: staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReallocateRetriesOnConflict(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	_, err := env.inventory.RecordMovement(ctx, RecordMovementInput{
		VendorID:        vendor.ID,
		ProductID:       product.ID,
		TransactionType: model.TxTypeRestock,
		QuantityChange:  100,
		StockType:       model.StockTypeOnline,
		PerformedBy:     staff.ID,
	})
	require.NoError(t, err)

	// Two conflicts fit inside the retry budget.
	contended := &contendedInventoryRepo{InventoryRepository: env.inventoryRepo, remaining: 2}
	svc := NewInventoryService(contended, env.vendorRepo, env.auditRepo, env.txManager, nil)

	stock, err := svc.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   60,
		NewOffline:  40,
		PerformedBy: staff.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, stock.TotalStock)
	assert.Equal(t, 60, stock.OnlineStock)
	assert.Equal(t, 40, stock.OfflineStock)

	// The rolled-back attempts left no ledger rows: one restock, one reallocation.
	_, total, err := env.inventory.ListMovements(ctx, vendor.ID, product.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Conflicts beyond the budget surface to the caller and change nothing.
	exhausted := &contendedInventoryRepo{InventoryRepository: env.inventoryRepo, remaining: 3}
	svc = NewInventoryService(exhausted, env.vendorRepo, env.auditRepo, env.txManager, nil)

	_, err = svc.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   40,
		NewOffline:  60,
		PerformedBy: staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	current, err := env.inventory.CurrentStock(ctx, vendor.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, current.OnlineStock)
	assert.Equal(t, 40, current.OfflineStock)
}

func TestBucketInvariantAcrossMovements(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	steps := []RecordMovementInput{
		{TransactionType: model.TxTypeRestock, QuantityChange: 80, StockType: model.StockTypeOnline},
		{TransactionType: model.TxTypeRestock, QuantityChange: 20, StockType: model.StockTypeOffline},
		{TransactionType: model.TxTypeSale, QuantityChange: -30, StockType: model.StockTypeOnline},
		{TransactionType: model.TxTypeOfflineSale, QuantityChange: -5, StockType: model.StockTypeOffline},
		{TransactionType: model.TxTypeReturn, QuantityChange: 3, StockType: model.StockTypeOnline},
		{TransactionType: model.TxTypeDamage, QuantityChange: -2, StockType: model.StockTypeOffline},
	}

	var last StockResponse
	for _, step := range steps {
		step.VendorID = vendor.ID
		step.ProductID = product.ID
		step.PerformedBy = staff.ID

		stock, err := env.inventory.RecordMovement(ctx, step)
		require.NoError(t, err)
		assert.Equal(t, stock.TotalStock, stock.OnlineStock+stock.OfflineStock)
		last = stock
	}

	assert.Equal(t, 66, last.TotalStock)
	assert.Equal(t, 53, last.OnlineStock)
	assert.Equal(t, 13, last.OfflineStock)
}

func TestReplayMatchesMaterializedStock(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	staff := env.createUser(t, "staff", model.RoleStaff)
	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	movements := []RecordMovementInput{
		{TransactionType: model.TxTypeRestock, QuantityChange: 40, StockType: model.StockTypeOnline},
		{TransactionType: model.TxTypeRestock, QuantityChange: 10, StockType: model.StockTypeOffline},
		{TransactionType: model.TxTypeSale, QuantityChange: -12, StockType: model.StockTypeOnline},
		{TransactionType: model.TxTypeAdjustment, QuantityChange: 5, StockType: model.StockTypeTotal},
	}
	for _, m := range movements {
		m.VendorID = vendor.ID
		m.ProductID = product.ID
		m.PerformedBy = staff.ID
		_, err := env.inventory.RecordMovement(ctx, m)
		require.NoError(t, err)
	}

	// Reallocation rows replay too.
	_, err := env.inventory.Reallocate(ctx, ReallocateInput{
		VendorID:    vendor.ID,
		ProductID:   product.ID,
		NewOnline:   23,
		NewOffline:  20,
		PerformedBy: staff.ID,
	})
	require.NoError(t, err)

	replayed, err := env.inventory.Replay(ctx, vendor.ID, product.ID)
	require.NoError(t, err)

	current, err := env.inventory.CurrentStock(ctx, vendor.ID, product.ID)
	require.NoError(t, err)

	assert.Equal(t, current.TotalStock, replayed.TotalStock)
	assert.Equal(t, current.OnlineStock, replayed.OnlineStock)
	assert.Equal(t, current.OfflineStock, replayed.OfflineStock)
}

func TestReplayEmptyLedger(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	vendor := env.createVendor(t, "VND-001")
	product := env.createProduct(t, "SKU-001")

	replayed, err := env.inventory.Replay(ctx, vendor.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, replayed.TotalStock)
	assert.Equal(t, 0, replayed.OnlineStock)
	assert.Equal(t, 0, replayed.OfflineStock)
}
