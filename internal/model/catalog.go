package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Brand is a marketed product line (e.g. "Crocin").
type Brand struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Manufacturer is the producing company behind one or more brands.
type Manufacturer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	LicenseNo string         `gorm:"type:varchar(50)" json:"license_no"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Manufacturer) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Category is a catalog taxonomy node; ParentID forms the tree.
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	ParentID  *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id"`
	Parent    *Category      `gorm:"foreignKey:ParentID" json:"-"`
	SortOrder int            `gorm:"not null;default:0" json:"sort_order"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Salt is an active pharmaceutical ingredient (e.g. "Paracetamol 500mg").
type Salt struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Salt) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Dosage is a dosage form (tablet, syrup, injection...).
type Dosage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Form      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"form"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Dosage) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Attribute is a filterable product attribute (e.g. "storage condition").
type Attribute struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	IsFilterable bool      `gorm:"not null;default:false" json:"is_filterable"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Attribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// GSTRate is a tax slab applied to products by HSN classification.
type GSTRate struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Slab        string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"slab"` // e.g. "GST_12"
	Rate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate"`            // percentage
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (g *GSTRate) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Product is a sellable catalog item. Catalog mutations flow through the
// approval workflow, so rows here only appear once a request is applied.
type Product struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SKU                  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name                 string          `gorm:"type:varchar(255);not null;index" json:"name"`
	HSNCode              string          `gorm:"type:varchar(20)" json:"hsn_code"`
	BrandID              *uuid.UUID      `gorm:"type:uuid;index" json:"brand_id"`
	Brand                *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	ManufacturerID       *uuid.UUID      `gorm:"type:uuid;index" json:"manufacturer_id"`
	Manufacturer         *Manufacturer   `gorm:"foreignKey:ManufacturerID" json:"manufacturer,omitempty"`
	CategoryID           *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category             *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SaltID               *uuid.UUID      `gorm:"type:uuid;index" json:"salt_id"`
	Salt                 *Salt           `gorm:"foreignKey:SaltID" json:"salt,omitempty"`
	DosageID             *uuid.UUID      `gorm:"type:uuid" json:"dosage_id"`
	Dosage               *Dosage         `gorm:"foreignKey:DosageID" json:"dosage,omitempty"`
	GSTRateID            *uuid.UUID      `gorm:"type:uuid" json:"gst_rate_id"`
	GSTRate              *GSTRate        `gorm:"foreignKey:GSTRateID" json:"gst_rate,omitempty"`
	MRP                  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"mrp"`
	SellingPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	PrescriptionRequired bool            `gorm:"not null;default:false" json:"prescription_required"`
	IsActive             bool            `gorm:"not null;default:true" json:"is_active"`
	Variants             []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductVariant is a pack-size variation of a product.
type ProductVariant struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU          string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"` // e.g. "strip of 10"
	PackSize     int             `gorm:"not null;default:1" json:"pack_size"`
	MRP          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"mrp"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"selling_price"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
