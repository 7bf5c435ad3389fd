package repository

import (
	"context"
	"errors"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryRepository interface {
	FindPair(ctx context.Context, vendorID, productID uuid.UUID) (*model.VendorInventory, error)
	CreateRow(ctx context.Context, row *model.VendorInventory) error
	UpdateStockGuarded(ctx context.Context, row *model.VendorInventory, prevTotal, prevOnline, prevOffline int) error
	AppendLog(ctx context.Context, entry *model.InventoryLog) error
	ListLogs(ctx context.Context, vendorID, productID uuid.UUID, page, limit int) ([]model.InventoryLog, int64, error)
	LogsInOrder(ctx context.Context, vendorID, productID uuid.UUID) ([]model.InventoryLog, error)
	ListLowStock(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.VendorInventory, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// FindPair returns the live materialized row for a pair, or nil when no
// movement has ever touched it.
func (r *inventoryRepository) FindPair(ctx context.Context, vendorID, productID uuid.UUID) (*model.VendorInventory, error) {
	var row model.VendorInventory
	err := GetDB(ctx, r.db).
		Where("vendor_id = ? AND product_id = ?", vendorID, productID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CreateRow inserts the first materialized row for a pair. A duplicate-key
// failure means another writer created it concurrently; that surfaces as a
// ConflictError so the caller retries with fresh state.
func (r *inventoryRepository) CreateRow(ctx context.Context, row *model.VendorInventory) error {
	err := GetDB(ctx, r.db).Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("inventory row for vendor %s product %s already exists", row.VendorID, row.ProductID)
		}
		return err
	}
	return nil
}

// UpdateStockGuarded writes the new bucket values only if the row still holds
// the values the caller read. Zero rows affected means a concurrent movement
// got there first.
func (r *inventoryRepository) UpdateStockGuarded(ctx context.Context, row *model.VendorInventory, prevTotal, prevOnline, prevOffline int) error {
	res := GetDB(ctx, r.db).Model(&model.VendorInventory{}).
		Where("vendor_id = ? AND product_id = ?", row.VendorID, row.ProductID).
		Where("total_stock = ? AND online_stock = ? AND offline_stock = ?", prevTotal, prevOnline, prevOffline).
		Updates(map[string]interface{}{
			"total_stock":   row.TotalStock,
			"online_stock":  row.OnlineStock,
			"offline_stock": row.OfflineStock,
			"updated_by":    row.UpdatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("concurrent stock movement on vendor %s product %s", row.VendorID, row.ProductID)
	}
	return nil
}

func (r *inventoryRepository) AppendLog(ctx context.Context, entry *model.InventoryLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *inventoryRepository) ListLogs(ctx context.Context, vendorID, productID uuid.UUID, page, limit int) ([]model.InventoryLog, int64, error) {
	var logs []model.InventoryLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryLog{}).
		Where("vendor_id = ? AND product_id = ?", vendorID, productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// LogsInOrder returns every log row for a pair in append order, for replay.
func (r *inventoryRepository) LogsInOrder(ctx context.Context, vendorID, productID uuid.UUID) ([]model.InventoryLog, error) {
	var logs []model.InventoryLog
	if err := GetDB(ctx, r.db).
		Where("vendor_id = ? AND product_id = ?", vendorID, productID).
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *inventoryRepository) ListLowStock(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.VendorInventory, int64, error) {
	var rows []model.VendorInventory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.VendorInventory{}).
		Where("total_stock <= low_stock_threshold")
	if vendorID != uuid.Nil {
		db = db.Where("vendor_id = ?", vendorID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
