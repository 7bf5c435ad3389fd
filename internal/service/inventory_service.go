package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
)

// conflictRetries bounds the optimistic-concurrency retry loops in
// RecordMovement and Reallocate before the conflict is surfaced to the caller.
const conflictRetries = 3

// --- DTOs ---

type RecordMovementInput struct {
	VendorID        uuid.UUID  `json:"vendor_id" binding:"required"`
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	TransactionType string     `json:"transaction_type" binding:"required,oneof=restock sale offline_sale adjustment allocation_change damage return transfer"`
	QuantityChange  int        `json:"quantity_change" binding:"required"`
	StockType       string     `json:"stock_type" binding:"required,oneof=total online offline"`
	ReferenceType   string     `json:"reference_type"`
	ReferenceID     *uuid.UUID `json:"reference_id"`
	PerformedBy     uuid.UUID  `json:"-"`
	Notes           string     `json:"notes"`
}

type ReallocateInput struct {
	VendorID     uuid.UUID `json:"vendor_id" binding:"required"`
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	NewOnline    int       `json:"new_online" binding:"min=0"`
	NewOffline   int       `json:"new_offline" binding:"min=0"`
	PerformedBy  uuid.UUID `json:"-"`
	Notes        string    `json:"notes"`
}

type StockResponse struct {
	VendorID          string `json:"vendor_id"`
	ProductID         string `json:"product_id"`
	TotalStock        int    `json:"total_stock"`
	OnlineStock       int    `json:"online_stock"`
	OfflineStock      int    `json:"offline_stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	IsLowStock        bool   `json:"is_low_stock"`
}

type MovementResponse struct {
	ID                   int64   `json:"id"`
	TransactionType      string  `json:"transaction_type"`
	QuantityChange       int     `json:"quantity_change"`
	StockType            string  `json:"stock_type"`
	PreviousTotalStock   int     `json:"previous_total_stock"`
	PreviousOnlineStock  int     `json:"previous_online_stock"`
	PreviousOfflineStock int     `json:"previous_offline_stock"`
	NewTotalStock        int     `json:"new_total_stock"`
	NewOnlineStock       int     `json:"new_online_stock"`
	NewOfflineStock      int     `json:"new_offline_stock"`
	ReferenceType        string  `json:"reference_type,omitempty"`
	ReferenceID          *string `json:"reference_id,omitempty"`
	PerformedBy          string  `json:"performed_by"`
	Notes                string  `json:"notes,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

// --- Interface ---

type InventoryService interface {
	RecordMovement(ctx context.Context, in RecordMovementInput) (StockResponse, error)
	CurrentStock(ctx context.Context, vendorID, productID uuid.UUID) (StockResponse, error)
	Reallocate(ctx context.Context, in ReallocateInput) (StockResponse, error)
	ListMovements(ctx context.Context, vendorID, productID uuid.UUID, page, limit int) ([]MovementResponse, int64, error)
	Replay(ctx context.Context, vendorID, productID uuid.UUID) (StockResponse, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	vendorRepo    repository.VendorRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           interface{ GetBroadcast() chan []byte } // optional websocket hub
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub interface{ GetBroadcast() chan []byte },
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		vendorRepo:    vendorRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

// --- Implementation ---

// RecordMovement applies a signed delta to one stock bucket and appends the
// matching ledger row, atomically. The read-compute-write sequence is guarded
// by a compare-and-swap on the previously read bucket values; a concurrent
// movement on the same pair triggers a bounded retry with fresh state.
func (s *inventoryService) RecordMovement(ctx context.Context, in RecordMovementInput) (StockResponse, error) {
	if in.QuantityChange == 0 {
		return StockResponse{}, apperr.Validation("quantity_change must not be zero")
	}
	if in.PerformedBy == uuid.Nil {
		return StockResponse{}, apperr.Validation("performed_by is required")
	}

	var result StockResponse
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		result, err = s.tryMovement(ctx, in)
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			break
		}
	}
	if err != nil {
		return StockResponse{}, err
	}

	s.broadcastStock("inventory.movement", result)
	if result.IsLowStock {
		s.broadcastStock("inventory.low_stock", result)
	}
	return result, nil
}

func (s *inventoryService) tryMovement(ctx context.Context, in RecordMovementInput) (StockResponse, error) {
	current, err := s.inventoryRepo.FindPair(ctx, in.VendorID, in.ProductID)
	if err != nil {
		return StockResponse{}, err
	}

	prevTotal, prevOnline, prevOffline := 0, 0, 0
	threshold := 0
	if current != nil {
		prevTotal = current.TotalStock
		prevOnline = current.OnlineStock
		prevOffline = current.OfflineStock
		threshold = current.LowStockThreshold
	}

	newTotal, newOnline, newOffline, err := applyDelta(prevTotal, prevOnline, prevOffline, in.TransactionType, in.StockType, in.QuantityChange)
	if err != nil {
		return StockResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry := model.InventoryLog{
			VendorID:             in.VendorID,
			ProductID:            in.ProductID,
			TransactionType:      in.TransactionType,
			QuantityChange:       in.QuantityChange,
			StockType:            in.StockType,
			PreviousTotalStock:   prevTotal,
			PreviousOnlineStock:  prevOnline,
			PreviousOfflineStock: prevOffline,
			NewTotalStock:        newTotal,
			NewOnlineStock:       newOnline,
			NewOfflineStock:      newOffline,
			ReferenceType:        in.ReferenceType,
			ReferenceID:          in.ReferenceID,
			PerformedBy:          in.PerformedBy,
			Notes:                in.Notes,
		}
		if err := s.inventoryRepo.AppendLog(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append inventory log: %w", err)
		}

		if current == nil {
			row := model.VendorInventory{
				VendorID:     in.VendorID,
				ProductID:    in.ProductID,
				TotalStock:   newTotal,
				OnlineStock:  newOnline,
				OfflineStock: newOffline,
				CreatedBy:    &in.PerformedBy,
				UpdatedBy:    &in.PerformedBy,
			}
			if err := s.inventoryRepo.CreateRow(txCtx, &row); err != nil {
				return err
			}
		} else {
			row := model.VendorInventory{
				VendorID:     in.VendorID,
				ProductID:    in.ProductID,
				TotalStock:   newTotal,
				OnlineStock:  newOnline,
				OfflineStock: newOffline,
				UpdatedBy:    &in.PerformedBy,
			}
			if err := s.inventoryRepo.UpdateStockGuarded(txCtx, &row, prevTotal, prevOnline, prevOffline); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"transaction_type": in.TransactionType,
			"stock_type":       in.StockType,
			"quantity_change":  in.QuantityChange,
			"new_total":        newTotal,
		})
		audit := model.ActivityLog{
			UserID:     &in.PerformedBy,
			Action:     model.ActionRecordMovement,
			EntityID:   in.VendorID.String() + ":" + in.ProductID.String(),
			EntityName: in.TransactionType,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, &audit); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}

		return nil
	})
	if err != nil {
		return StockResponse{}, err
	}

	return StockResponse{
		VendorID:          in.VendorID.String(),
		ProductID:         in.ProductID.String(),
		TotalStock:        newTotal,
		OnlineStock:       newOnline,
		OfflineStock:      newOffline,
		LowStockThreshold: threshold,
		IsLowStock:        threshold > 0 && newTotal <= threshold,
	}, nil
}

// CurrentStock returns the materialized row, or a zero-stock default when no
// movement has ever touched the pair.
func (s *inventoryService) CurrentStock(ctx context.Context, vendorID, productID uuid.UUID) (StockResponse, error) {
	row, err := s.inventoryRepo.FindPair(ctx, vendorID, productID)
	if err != nil {
		return StockResponse{}, err
	}
	if row == nil {
		return StockResponse{
			VendorID:  vendorID.String(),
			ProductID: productID.String(),
		}, nil
	}
	return toStockResponse(*row), nil
}

// Reallocate redistributes the current total between the online and offline
// buckets without changing it, recorded as a single allocation_change row.
// A concurrent movement on the same pair triggers the same bounded retry as
// RecordMovement, re-reading the buckets before each attempt.
func (s *inventoryService) Reallocate(ctx context.Context, in ReallocateInput) (StockResponse, error) {
	if in.NewOnline < 0 || in.NewOffline < 0 {
		return StockResponse{}, apperr.InvalidOperation("allocation buckets must be non-negative")
	}

	var result StockResponse
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		result, err = s.tryReallocate(ctx, in)
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			break
		}
	}
	if err != nil {
		return StockResponse{}, err
	}
	return result, nil
}

func (s *inventoryService) tryReallocate(ctx context.Context, in ReallocateInput) (StockResponse, error) {
	current, err := s.inventoryRepo.FindPair(ctx, in.VendorID, in.ProductID)
	if err != nil {
		return StockResponse{}, err
	}
	if current == nil {
		return StockResponse{}, apperr.NotFound("no inventory for vendor %s product %s", in.VendorID, in.ProductID)
	}
	if in.NewOnline+in.NewOffline != current.TotalStock {
		return StockResponse{}, apperr.InvalidOperation(
			"allocation %d+%d does not preserve total stock %d",
			in.NewOnline, in.NewOffline, current.TotalStock)
	}

	delta := in.NewOnline - current.OnlineStock
	if delta == 0 {
		return toStockResponse(*current), nil
	}

	// A single online-bucket movement with the compensating offline shift:
	// log it explicitly so the before/after snapshot stays self-consistent.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry := model.InventoryLog{
			VendorID:             in.VendorID,
			ProductID:            in.ProductID,
			TransactionType:      model.TxTypeAllocationChange,
			QuantityChange:       delta,
			StockType:            model.StockTypeOnline,
			PreviousTotalStock:   current.TotalStock,
			PreviousOnlineStock:  current.OnlineStock,
			PreviousOfflineStock: current.OfflineStock,
			NewTotalStock:        current.TotalStock,
			NewOnlineStock:       in.NewOnline,
			NewOfflineStock:      in.NewOffline,
			PerformedBy:          in.PerformedBy,
			Notes:                in.Notes,
		}
		if err := s.inventoryRepo.AppendLog(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append inventory log: %w", err)
		}

		row := model.VendorInventory{
			VendorID:     in.VendorID,
			ProductID:    in.ProductID,
			TotalStock:   current.TotalStock,
			OnlineStock:  in.NewOnline,
			OfflineStock: in.NewOffline,
			UpdatedBy:    &in.PerformedBy,
		}
		if err := s.inventoryRepo.UpdateStockGuarded(txCtx, &row,
			current.TotalStock, current.OnlineStock, current.OfflineStock); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"new_online":  in.NewOnline,
			"new_offline": in.NewOffline,
		})
		audit := model.ActivityLog{
			UserID:     &in.PerformedBy,
			Action:     model.ActionReallocateStock,
			EntityID:   in.VendorID.String() + ":" + in.ProductID.String(),
			EntityName: model.TxTypeAllocationChange,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, &audit)
	})
	if err != nil {
		return StockResponse{}, err
	}

	return StockResponse{
		VendorID:          in.VendorID.String(),
		ProductID:         in.ProductID.String(),
		TotalStock:        current.TotalStock,
		OnlineStock:       in.NewOnline,
		OfflineStock:      in.NewOffline,
		LowStockThreshold: current.LowStockThreshold,
		IsLowStock:        current.LowStockThreshold > 0 && current.TotalStock <= current.LowStockThreshold,
	}, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, vendorID, productID uuid.UUID, page, limit int) ([]MovementResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.inventoryRepo.ListLogs(ctx, vendorID, productID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory logs: %w", err)
	}

	result := make([]MovementResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, toMovementResponse(l))
	}
	return result, total, nil
}

// Replay folds every ledger row for a pair from (0,0,0) and returns the
// reconstructed buckets. Used by reconciliation jobs and tests to verify the
// materialized row is exactly the fold of the log.
func (s *inventoryService) Replay(ctx context.Context, vendorID, productID uuid.UUID) (StockResponse, error) {
	logs, err := s.inventoryRepo.LogsInOrder(ctx, vendorID, productID)
	if err != nil {
		return StockResponse{}, err
	}

	total, online, offline := 0, 0, 0
	for _, l := range logs {
		total, online, offline, err = applyDelta(total, online, offline, l.TransactionType, l.StockType, l.QuantityChange)
		if err != nil {
			return StockResponse{}, apperr.Wrap(apperr.KindInvalidOperation, err,
				"ledger replay diverged at log %d", l.ID)
		}
	}

	return StockResponse{
		VendorID:     vendorID.String(),
		ProductID:    productID.String(),
		TotalStock:   total,
		OnlineStock:  online,
		OfflineStock: offline,
	}, nil
}

// --- Helpers ---

// applyDelta computes the new bucket values for a movement. For ordinary
// movements the delta lands on the named bucket and total moves in lockstep;
// a movement named on the total bucket itself is absorbed by the online
// allocation. Allocation changes shift stock between online and offline and
// leave the total untouched.
func applyDelta(total, online, offline int, txType, stockType string, delta int) (int, int, int, error) {
	newTotal, newOnline, newOffline := total, online, offline
	if txType == model.TxTypeAllocationChange {
		switch stockType {
		case model.StockTypeOnline:
			newOnline += delta
			newOffline -= delta
		case model.StockTypeOffline:
			newOffline += delta
			newOnline -= delta
		default:
			return 0, 0, 0, apperr.Validation("allocation changes must name the online or offline bucket")
		}
	} else {
		switch stockType {
		case model.StockTypeOnline:
			newOnline += delta
			newTotal += delta
		case model.StockTypeOffline:
			newOffline += delta
			newTotal += delta
		case model.StockTypeTotal:
			newTotal += delta
			newOnline += delta
		default:
			return 0, 0, 0, apperr.Validation("unknown stock type %q", stockType)
		}
	}

	if newTotal < 0 || newOnline < 0 || newOffline < 0 {
		return 0, 0, 0, apperr.InvalidOperation(
			"movement of %+d on %s would drive stock negative (total=%d online=%d offline=%d)",
			delta, stockType, newTotal, newOnline, newOffline)
	}
	if newTotal != newOnline+newOffline {
		return 0, 0, 0, apperr.InvalidOperation(
			"movement of %+d on %s breaks total=online+offline (%d != %d+%d)",
			delta, stockType, newTotal, newOnline, newOffline)
	}
	return newTotal, newOnline, newOffline, nil
}

func (s *inventoryService) broadcastStock(event string, stock StockResponse) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"event":      event,
		"vendor_id":  stock.VendorID,
		"product_id": stock.ProductID,
		"total":      stock.TotalStock,
	})
	select {
	case s.hub.GetBroadcast() <- payload:
	default:
	}
}

func toStockResponse(row model.VendorInventory) StockResponse {
	return StockResponse{
		VendorID:          row.VendorID.String(),
		ProductID:         row.ProductID.String(),
		TotalStock:        row.TotalStock,
		OnlineStock:       row.OnlineStock,
		OfflineStock:      row.OfflineStock,
		LowStockThreshold: row.LowStockThreshold,
		IsLowStock:        row.LowStockThreshold > 0 && row.TotalStock <= row.LowStockThreshold,
	}
}

func toMovementResponse(l model.InventoryLog) MovementResponse {
	resp := MovementResponse{
		ID:                   l.ID,
		TransactionType:      l.TransactionType,
		QuantityChange:       l.QuantityChange,
		StockType:            l.StockType,
		PreviousTotalStock:   l.PreviousTotalStock,
		PreviousOnlineStock:  l.PreviousOnlineStock,
		PreviousOfflineStock: l.PreviousOfflineStock,
		NewTotalStock:        l.NewTotalStock,
		NewOnlineStock:       l.NewOnlineStock,
		NewOfflineStock:      l.NewOfflineStock,
		ReferenceType:        l.ReferenceType,
		PerformedBy:          l.PerformedBy.String(),
		Notes:                l.Notes,
		CreatedAt:            l.CreatedAt.Format(time.RFC3339),
	}
	if l.ReferenceID != nil {
		s := l.ReferenceID.String()
		resp.ReferenceID = &s
	}
	return resp
}
