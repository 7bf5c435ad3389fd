package service

import (
	"context"
	"time"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID                string  `json:"id"`
	ApprovalRequestID string  `json:"approval_request_id"`
	NotificationType  string  `json:"notification_type"`
	Title             string  `json:"title"`
	Message           string  `json:"message,omitempty"`
	IsRead            bool    `json:"is_read"`
	ReadAt            *string `json:"read_at,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

type NotificationService interface {
	List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	rows, total, err := s.notificationRepo.ListForRecipient(ctx, recipientID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		result = append(result, toNotificationResponse(n))
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, recipientID, time.Now())
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, recipientID)
}

func toNotificationResponse(n model.ApprovalNotification) NotificationResponse {
	resp := NotificationResponse{
		ID:                n.ID.String(),
		ApprovalRequestID: n.ApprovalRequestID.String(),
		NotificationType:  n.NotificationType,
		Title:             n.Title,
		Message:           n.Message,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt.Format(time.RFC3339),
	}
	if n.ReadAt != nil {
		s := n.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &s
	}
	return resp
}
