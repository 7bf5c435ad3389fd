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

type NotificationRepository interface {
	CreateBatch(ctx context.Context, rows []model.ApprovalNotification) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]model.ApprovalNotification, int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID, readAt time.Time) error
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, rows []model.ApprovalNotification) error {
	if len(rows) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&rows).Error
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]model.ApprovalNotification, int64, error) {
	var rows []model.ApprovalNotification
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ApprovalNotification{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkRead transitions is_read false to true exactly once; already-read rows
// are left untouched and reported as an invalid state.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID, readAt time.Time) error {
	db := GetDB(ctx, r.db)
	res := db.Model(&model.ApprovalNotification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n model.ApprovalNotification
		if err := db.First(&n, "id = ? AND recipient_id = ?", id, recipientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("notification %s not found", id)
			}
			return err
		}
		return apperr.InvalidState("notification %s is already read", id)
	}
	return nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ApprovalNotification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
