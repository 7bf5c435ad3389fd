package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor is a seller on the marketplace. Vendors are only ever soft-deleted
// so inventory ledger rows keep a valid reference.
type Vendor struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Phone       string         `gorm:"type:varchar(20)" json:"phone"`
	GSTIN       string         `gorm:"type:varchar(15)" json:"gstin"`
	LicenseNo   string         `gorm:"type:varchar(50)" json:"license_no"` // drug license number
	Address     string         `gorm:"type:text" json:"address"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	OnboardedAt *time.Time     `json:"onboarded_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
