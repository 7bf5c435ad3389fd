package repository

import (
	"context"
	"errors"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository owns the reference-data tables of the product catalog.
// Mutations arrive exclusively through approval-request appliers.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)

	CreateBrand(ctx context.Context, brand *model.Brand) error
	UpdateBrand(ctx context.Context, brand *model.Brand) error
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	FindBrandByID(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	ListBrands(ctx context.Context, page, limit int) ([]model.Brand, int64, error)

	ListManufacturers(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListSalts(ctx context.Context, page, limit int) ([]model.Salt, int64, error)
	ListDosages(ctx context.Context) ([]model.Dosage, error)
	ListAttributes(ctx context.Context) ([]model.Attribute, error)
	ListGSTRates(ctx context.Context) ([]model.GSTRate, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	err := GetDB(ctx, r.db).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("product with SKU %s already exists", product.SKU)
	}
	return err
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *catalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).
		Preload("Brand").Preload("Manufacturer").Preload("Category").
		Preload("Salt").Preload("Dosage").Preload("GSTRate").Preload("Variants").
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product %s not found", id)
		}
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if search != "" {
		db = db.Where("name LIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Brand").Preload("GSTRate").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *catalogRepository) CreateBrand(ctx context.Context, brand *model.Brand) error {
	err := GetDB(ctx, r.db).Create(brand).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("brand %q already exists", brand.Name)
	}
	return err
}

func (r *catalogRepository) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	return GetDB(ctx, r.db).Save(brand).Error
}

func (r *catalogRepository) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Brand{}).Error
}

func (r *catalogRepository) FindBrandByID(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	var brand model.Brand
	if err := GetDB(ctx, r.db).First(&brand, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("brand %s not found", id)
		}
		return nil, err
	}
	return &brand, nil
}

func (r *catalogRepository) ListBrands(ctx context.Context, page, limit int) ([]model.Brand, int64, error) {
	var brands []model.Brand
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Brand{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&brands).Error; err != nil {
		return nil, 0, err
	}
	return brands, total, nil
}

func (r *catalogRepository) ListManufacturers(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error) {
	var rows []model.Manufacturer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Manufacturer{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var rows []model.Category
	if err := GetDB(ctx, r.db).Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *catalogRepository) ListSalts(ctx context.Context, page, limit int) ([]model.Salt, int64, error) {
	var rows []model.Salt
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Salt{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *catalogRepository) ListDosages(ctx context.Context) ([]model.Dosage, error) {
	var rows []model.Dosage
	if err := GetDB(ctx, r.db).Order("form ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *catalogRepository) ListAttributes(ctx context.Context) ([]model.Attribute, error) {
	var rows []model.Attribute
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *catalogRepository) ListGSTRates(ctx context.Context) ([]model.GSTRate, error) {
	var rows []model.GSTRate
	if err := GetDB(ctx, r.db).Order("rate ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
