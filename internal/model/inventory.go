package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock buckets tracked per (vendor, product) pair.
const (
	StockTypeTotal   = "total"
	StockTypeOnline  = "online"
	StockTypeOffline = "offline"
)

// Inventory transaction types.
const (
	TxTypeRestock          = "restock"
	TxTypeSale             = "sale"
	TxTypeOfflineSale      = "offline_sale"
	TxTypeAdjustment       = "adjustment"
	TxTypeAllocationChange = "allocation_change"
	TxTypeDamage           = "damage"
	TxTypeReturn           = "return"
	TxTypeTransfer         = "transfer"
)

// VendorInventory is the materialized current stock for one (vendor, product)
// pair. It is a cache of the latest InventoryLog row: total_stock must always
// equal online_stock + offline_stock and no bucket may go negative.
type VendorInventory struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_vendor_inventory_pair" json:"vendor_id"`
	Vendor            *Vendor        `gorm:"foreignKey:VendorID;constraint:OnDelete:RESTRICT" json:"vendor,omitempty"`
	ProductID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:ux_vendor_inventory_pair" json:"product_id"`
	Product           *Product       `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	TotalStock        int            `gorm:"not null;default:0" json:"total_stock"`
	OnlineStock       int            `gorm:"not null;default:0" json:"online_stock"`
	OfflineStock      int            `gorm:"not null;default:0" json:"offline_stock"`
	LowStockThreshold int            `gorm:"not null;default:10" json:"low_stock_threshold"`
	CreatedBy         *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	UpdatedBy         *uuid.UUID     `gorm:"type:uuid" json:"updated_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *VendorInventory) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// InventoryLog is the append-only transaction record, one row per stock
// mutation, carrying a full before/after snapshot of all three buckets. The
// log is the sole reconstruction source for VendorInventory. The bigint key
// preserves insertion order for replay.
type InventoryLog struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID             uuid.UUID  `gorm:"type:uuid;not null;index:idx_inventory_logs_pair" json:"vendor_id"`
	ProductID            uuid.UUID  `gorm:"type:uuid;not null;index:idx_inventory_logs_pair" json:"product_id"`
	TransactionType      string     `gorm:"type:varchar(30);not null;index" json:"transaction_type"`
	QuantityChange       int        `gorm:"not null" json:"quantity_change"` // positive = addition, negative = reduction
	StockType            string     `gorm:"type:varchar(10);not null" json:"stock_type"`
	PreviousTotalStock   int        `gorm:"not null" json:"previous_total_stock"`
	PreviousOnlineStock  int        `gorm:"not null" json:"previous_online_stock"`
	PreviousOfflineStock int        `gorm:"not null" json:"previous_offline_stock"`
	NewTotalStock        int        `gorm:"not null" json:"new_total_stock"`
	NewOnlineStock       int        `gorm:"not null" json:"new_online_stock"`
	NewOfflineStock      int        `gorm:"not null" json:"new_offline_stock"`
	ReferenceType        string     `gorm:"type:varchar(50)" json:"reference_type"` // causing business event, e.g. order
	ReferenceID          *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`
	PerformedBy          uuid.UUID  `gorm:"type:uuid;not null" json:"performed_by"`
	Performer            *User      `gorm:"foreignKey:PerformedBy" json:"performer,omitempty"`
	Notes                string     `gorm:"type:text" json:"notes"`
	CreatedAt            time.Time  `gorm:"index" json:"created_at"`
}
