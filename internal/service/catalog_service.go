package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity type names accepted by the approval workflow.
const (
	EntityTypeProduct = "product"
	EntityTypeBrand   = "brand"
	EntityTypeVendor  = "vendor"
)

// --- Payloads ---

// ProductPayload is the proposed_data shape for product requests.
type ProductPayload struct {
	SKU                  string          `json:"sku"`
	Name                 string          `json:"name"`
	HSNCode              string          `json:"hsn_code"`
	BrandID              *uuid.UUID      `json:"brand_id"`
	ManufacturerID       *uuid.UUID      `json:"manufacturer_id"`
	CategoryID           *uuid.UUID      `json:"category_id"`
	SaltID               *uuid.UUID      `json:"salt_id"`
	DosageID             *uuid.UUID      `json:"dosage_id"`
	GSTRateID            *uuid.UUID      `json:"gst_rate_id"`
	MRP                  decimal.Decimal `json:"mrp"`
	SellingPrice         decimal.Decimal `json:"selling_price"`
	PrescriptionRequired bool            `json:"prescription_required"`
	IsActive             *bool           `json:"is_active"`
}

type BrandPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type VendorPayload struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	GSTIN     string `json:"gstin"`
	LicenseNo string `json:"license_no"`
	Address   string `json:"address"`
	IsActive  *bool  `json:"is_active"`
}

// --- Interface ---

// CatalogService serves catalog reads and owns the approval-workflow
// appliers for catalog entities. Direct writes are deliberately absent:
// every mutation travels submit -> review -> apply.
type CatalogService interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	GetBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	ListBrands(ctx context.Context, page, limit int) ([]model.Brand, int64, error)
	ListManufacturers(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListSalts(ctx context.Context, page, limit int) ([]model.Salt, int64, error)
	ListDosages(ctx context.Context) ([]model.Dosage, error)
	ListAttributes(ctx context.Context) ([]model.Attribute, error)
	ListGSTRates(ctx context.Context) ([]model.GSTRate, error)

	RegisterKinds(approvals ApprovalService)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	vendorRepo  repository.VendorRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository, vendorRepo repository.VendorRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, vendorRepo: vendorRepo}
}

// --- Reads ---

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.catalogRepo.FindProductByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.catalogRepo.ListProducts(ctx, page, limit, search)
}

func (s *catalogService) GetBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	return s.catalogRepo.FindBrandByID(ctx, id)
}

func (s *catalogService) ListBrands(ctx context.Context, page, limit int) ([]model.Brand, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.catalogRepo.ListBrands(ctx, page, limit)
}

func (s *catalogService) ListManufacturers(ctx context.Context, page, limit int) ([]model.Manufacturer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.catalogRepo.ListManufacturers(ctx, page, limit)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *catalogService) ListSalts(ctx context.Context, page, limit int) ([]model.Salt, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.catalogRepo.ListSalts(ctx, page, limit)
}

func (s *catalogService) ListDosages(ctx context.Context) ([]model.Dosage, error) {
	return s.catalogRepo.ListDosages(ctx)
}

func (s *catalogService) ListAttributes(ctx context.Context) ([]model.Attribute, error) {
	return s.catalogRepo.ListAttributes(ctx)
}

func (s *catalogService) ListGSTRates(ctx context.Context) ([]model.GSTRate, error) {
	return s.catalogRepo.ListGSTRates(ctx)
}

// --- Approval workflow wiring ---

// RegisterKinds hooks catalog entity types into the approval engine.
func (s *catalogService) RegisterKinds(approvals ApprovalService) {
	approvals.RegisterKind(EntityTypeProduct, EntityKind{
		Validate: validateProductPayload,
		Apply:    s.applyProduct,
	})
	approvals.RegisterKind(EntityTypeBrand, EntityKind{
		Validate: validateBrandPayload,
		Apply:    s.applyBrand,
	})
	approvals.RegisterKind(EntityTypeVendor, EntityKind{
		Validate: validateVendorPayload,
		Apply:    s.applyVendor,
	})
}

func validateProductPayload(requestType string, payload json.RawMessage) error {
	if requestType == model.RequestTypeDelete {
		return nil
	}
	var p ProductPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed product payload: %w", err)
	}
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.MRP.IsNegative() || p.SellingPrice.IsNegative() {
		return fmt.Errorf("prices must be non-negative")
	}
	if p.SellingPrice.GreaterThan(p.MRP) {
		return fmt.Errorf("selling price %s exceeds MRP %s", p.SellingPrice, p.MRP)
	}
	return nil
}

func validateBrandPayload(requestType string, payload json.RawMessage) error {
	if requestType == model.RequestTypeDelete {
		return nil
	}
	var p BrandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed brand payload: %w", err)
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func validateVendorPayload(requestType string, payload json.RawMessage) error {
	if requestType == model.RequestTypeDelete {
		return nil
	}
	var p VendorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("malformed vendor payload: %w", err)
	}
	if p.Code == "" {
		return fmt.Errorf("code is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.GSTIN != "" && len(p.GSTIN) != 15 {
		return fmt.Errorf("gstin must be 15 characters")
	}
	return nil
}

// applyProduct executes an approved product request inside the engine's
// transaction context.
func (s *catalogService) applyProduct(ctx context.Context, requestType string, entityID *uuid.UUID, finalData json.RawMessage) (uuid.UUID, error) {
	switch requestType {
	case model.RequestTypeCreate:
		var p ProductPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed product payload: %w", err)
		}
		product := productFromPayload(p)
		if err := s.catalogRepo.CreateProduct(ctx, &product); err != nil {
			return uuid.Nil, err
		}
		return product.ID, nil

	case model.RequestTypeUpdate:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("update request carries no entity id")
		}
		var p ProductPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed product payload: %w", err)
		}
		product, err := s.catalogRepo.FindProductByID(ctx, *entityID)
		if err != nil {
			return uuid.Nil, err
		}
		mergeProductPayload(product, p)
		if err := s.catalogRepo.UpdateProduct(ctx, product); err != nil {
			return uuid.Nil, err
		}
		return product.ID, nil

	case model.RequestTypeDelete:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("delete request carries no entity id")
		}
		if err := s.catalogRepo.DeleteProduct(ctx, *entityID); err != nil {
			return uuid.Nil, err
		}
		return *entityID, nil
	}
	return uuid.Nil, apperr.InvalidOperation("unknown request type %q", requestType)
}

func (s *catalogService) applyBrand(ctx context.Context, requestType string, entityID *uuid.UUID, finalData json.RawMessage) (uuid.UUID, error) {
	switch requestType {
	case model.RequestTypeCreate:
		var p BrandPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed brand payload: %w", err)
		}
		brand := model.Brand{Name: p.Name, Description: p.Description, IsActive: true}
		if p.IsActive != nil {
			brand.IsActive = *p.IsActive
		}
		if err := s.catalogRepo.CreateBrand(ctx, &brand); err != nil {
			return uuid.Nil, err
		}
		return brand.ID, nil

	case model.RequestTypeUpdate:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("update request carries no entity id")
		}
		var p BrandPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed brand payload: %w", err)
		}
		brand, err := s.catalogRepo.FindBrandByID(ctx, *entityID)
		if err != nil {
			return uuid.Nil, err
		}
		if p.Name != "" {
			brand.Name = p.Name
		}
		if p.Description != "" {
			brand.Description = p.Description
		}
		if p.IsActive != nil {
			brand.IsActive = *p.IsActive
		}
		if err := s.catalogRepo.UpdateBrand(ctx, brand); err != nil {
			return uuid.Nil, err
		}
		return brand.ID, nil

	case model.RequestTypeDelete:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("delete request carries no entity id")
		}
		if err := s.catalogRepo.DeleteBrand(ctx, *entityID); err != nil {
			return uuid.Nil, err
		}
		return *entityID, nil
	}
	return uuid.Nil, apperr.InvalidOperation("unknown request type %q", requestType)
}

// applyVendor handles vendor requests. Vendors with ledger history are never
// hard-removed; a delete request deactivates them instead.
func (s *catalogService) applyVendor(ctx context.Context, requestType string, entityID *uuid.UUID, finalData json.RawMessage) (uuid.UUID, error) {
	switch requestType {
	case model.RequestTypeCreate:
		var p VendorPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed vendor payload: %w", err)
		}
		vendor := model.Vendor{
			Code:      p.Code,
			Name:      p.Name,
			Email:     p.Email,
			Phone:     p.Phone,
			GSTIN:     p.GSTIN,
			LicenseNo: p.LicenseNo,
			Address:   p.Address,
			IsActive:  true,
		}
		if p.IsActive != nil {
			vendor.IsActive = *p.IsActive
		}
		if err := s.vendorRepo.Create(ctx, &vendor); err != nil {
			return uuid.Nil, err
		}
		return vendor.ID, nil

	case model.RequestTypeUpdate:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("update request carries no entity id")
		}
		var p VendorPayload
		if err := json.Unmarshal(finalData, &p); err != nil {
			return uuid.Nil, fmt.Errorf("malformed vendor payload: %w", err)
		}
		vendor, err := s.vendorRepo.FindByID(ctx, *entityID)
		if err != nil {
			return uuid.Nil, err
		}
		mergeVendorPayload(vendor, p)
		if err := s.vendorRepo.Update(ctx, vendor); err != nil {
			return uuid.Nil, err
		}
		return vendor.ID, nil

	case model.RequestTypeDelete:
		if entityID == nil {
			return uuid.Nil, apperr.InvalidOperation("delete request carries no entity id")
		}
		hasLedger, err := s.vendorRepo.HasLedgerRows(ctx, *entityID)
		if err != nil {
			return uuid.Nil, err
		}
		if hasLedger {
			vendor, err := s.vendorRepo.FindByID(ctx, *entityID)
			if err != nil {
				return uuid.Nil, err
			}
			vendor.IsActive = false
			if err := s.vendorRepo.Update(ctx, vendor); err != nil {
				return uuid.Nil, err
			}
			return *entityID, nil
		}
		if err := s.vendorRepo.Delete(ctx, *entityID); err != nil {
			return uuid.Nil, err
		}
		return *entityID, nil
	}
	return uuid.Nil, apperr.InvalidOperation("unknown request type %q", requestType)
}

// --- Helpers ---

func productFromPayload(p ProductPayload) model.Product {
	product := model.Product{
		SKU:                  p.SKU,
		Name:                 p.Name,
		HSNCode:              p.HSNCode,
		BrandID:              p.BrandID,
		ManufacturerID:       p.ManufacturerID,
		CategoryID:           p.CategoryID,
		SaltID:               p.SaltID,
		DosageID:             p.DosageID,
		GSTRateID:            p.GSTRateID,
		MRP:                  p.MRP,
		SellingPrice:         p.SellingPrice,
		PrescriptionRequired: p.PrescriptionRequired,
		IsActive:             true,
	}
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
	return product
}

func mergeProductPayload(product *model.Product, p ProductPayload) {
	if p.SKU != "" {
		product.SKU = p.SKU
	}
	if p.Name != "" {
		product.Name = p.Name
	}
	if p.HSNCode != "" {
		product.HSNCode = p.HSNCode
	}
	if p.BrandID != nil {
		product.BrandID = p.BrandID
	}
	if p.ManufacturerID != nil {
		product.ManufacturerID = p.ManufacturerID
	}
	if p.CategoryID != nil {
		product.CategoryID = p.CategoryID
	}
	if p.SaltID != nil {
		product.SaltID = p.SaltID
	}
	if p.DosageID != nil {
		product.DosageID = p.DosageID
	}
	if p.GSTRateID != nil {
		product.GSTRateID = p.GSTRateID
	}
	if !p.MRP.IsZero() {
		product.MRP = p.MRP
	}
	if !p.SellingPrice.IsZero() {
		product.SellingPrice = p.SellingPrice
	}
	product.PrescriptionRequired = p.PrescriptionRequired
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
}

func mergeVendorPayload(vendor *model.Vendor, p VendorPayload) {
	if p.Code != "" {
		vendor.Code = p.Code
	}
	if p.Name != "" {
		vendor.Name = p.Name
	}
	if p.Email != "" {
		vendor.Email = p.Email
	}
	if p.Phone != "" {
		vendor.Phone = p.Phone
	}
	if p.GSTIN != "" {
		vendor.GSTIN = p.GSTIN
	}
	if p.LicenseNo != "" {
		vendor.LicenseNo = p.LicenseNo
	}
	if p.Address != "" {
		vendor.Address = p.Address
	}
	if p.IsActive != nil {
		vendor.IsActive = *p.IsActive
	}
}
