package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusTransition is the column set applied atomically when a request
// leaves the pending state.
type StatusTransition struct {
	NewStatus       string
	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
	ReviewerRemarks string
	FinalData       []byte // only set on approve
}

type ApprovalRepository interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
	List(ctx context.Context, status, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error)
	TransitionFromPending(ctx context.Context, id uuid.UUID, tr StatusTransition) error
	MarkApplied(ctx context.Context, id uuid.UUID, appliedBy uuid.UUID, appliedAt time.Time, entityID *uuid.UUID) error
	SetEntityID(ctx context.Context, id, entityID uuid.UUID) error
	AppendHistory(ctx context.Context, entry *model.ApprovalHistory) error
	ListHistory(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalHistory, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("approval request %s not found", id)
		}
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := GetDB(ctx, r.db).Preload("Requester").Preload("Reviewer").
		First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("approval request %s not found", id)
		}
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) List(ctx context.Context, status, entityType string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var requests []model.ApprovalRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ApprovalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Requester").Preload("Reviewer").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// TransitionFromPending performs a compare-and-swap on the status column so
// two concurrent reviewers cannot both win. When zero rows are affected the
// request is re-read to tell "already reviewed" apart from "gone".
func (r *approvalRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, tr StatusTransition) error {
	db := GetDB(ctx, r.db)

	updates := map[string]interface{}{
		"status":           tr.NewStatus,
		"reviewed_by":      tr.ReviewedBy,
		"reviewed_at":      tr.ReviewedAt,
		"reviewer_remarks": tr.ReviewerRemarks,
	}
	if tr.FinalData != nil {
		updates["final_data"] = tr.FinalData
	}

	res := db.Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, model.ApprovalStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current model.ApprovalRequest
		if err := db.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("approval request %s not found", id)
			}
			return err
		}
		return apperr.InvalidState("approval request %s is already %s", id, current.Status)
	}
	return nil
}

// MarkApplied flips is_applied exactly once; a concurrent applier that loses
// the race gets an InvalidStateError. For create requests the applied entity
// id is written back in the same statement.
func (r *approvalRepository) MarkApplied(ctx context.Context, id uuid.UUID, appliedBy uuid.UUID, appliedAt time.Time, entityID *uuid.UUID) error {
	db := GetDB(ctx, r.db)

	updates := map[string]interface{}{
		"is_applied": true,
		"applied_at": appliedAt,
		"applied_by": appliedBy,
	}
	if entityID != nil {
		updates["entity_id"] = entityID
	}

	res := db.Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ? AND is_applied = ?", id, model.ApprovalStatusApproved, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("approval request %s is not approved and unapplied", id)
	}
	return nil
}

// SetEntityID writes the applied entity's id back onto a create request.
func (r *approvalRepository) SetEntityID(ctx context.Context, id, entityID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.ApprovalRequest{}).
		Where("id = ?", id).
		Update("entity_id", entityID).Error
}

func (r *approvalRepository) AppendHistory(ctx context.Context, entry *model.ApprovalHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *approvalRepository) ListHistory(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalHistory, error) {
	var entries []model.ApprovalHistory
	if err := GetDB(ctx, r.db).
		Where("approval_request_id = ?", requestID).
		Order("action_at ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
