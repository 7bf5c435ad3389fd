package service

import (
	"context"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"

	"github.com/google/uuid"
)

// VendorService serves vendor reads; vendor mutations travel through the
// approval workflow like catalog entities.
type VendorService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Vendor, int64, error)
	LowStock(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.VendorInventory, int64, error)
}

type vendorService struct {
	vendorRepo    repository.VendorRepository
	inventoryRepo repository.InventoryRepository
}

func NewVendorService(vendorRepo repository.VendorRepository, inventoryRepo repository.InventoryRepository) VendorService {
	return &vendorService{vendorRepo: vendorRepo, inventoryRepo: inventoryRepo}
}

func (s *vendorService) GetByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	return s.vendorRepo.FindByID(ctx, id)
}

func (s *vendorService) List(ctx context.Context, page, limit int, search string) ([]model.Vendor, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.vendorRepo.List(ctx, page, limit, search)
}

// LowStock returns the vendor's inventory rows at or below their threshold.
func (s *vendorService) LowStock(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]model.VendorInventory, int64, error) {
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.inventoryRepo.ListLowStock(ctx, vendorID, page, limit)
}
