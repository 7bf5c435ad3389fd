package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
)

// Review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ApplyFunc executes an approved change against the real entity store and
// returns the id of the entity it touched (the new id for create requests).
// Its writes join the engine's transaction via the context.
type ApplyFunc func(ctx context.Context, requestType string, entityID *uuid.UUID, finalData json.RawMessage) (uuid.UUID, error)

// EntityKind binds an entity type name to its payload validation and its
// default applier. The engine stays kind-agnostic; payload shape is the
// entity owner's business.
type EntityKind struct {
	Validate func(requestType string, payload json.RawMessage) error
	Apply    ApplyFunc
}

// --- DTOs ---

type SubmitRequestInput struct {
	EntityType    string          `json:"entity_type" binding:"required"`
	EntityID      *uuid.UUID      `json:"entity_id"`
	RequestType   string          `json:"request_type" binding:"required,oneof=create update delete"`
	CurrentData   json.RawMessage `json:"current_data"`
	ProposedData  json.RawMessage `json:"proposed_data" binding:"required"`
	ChangeSummary string          `json:"change_summary"`
	RequestReason string          `json:"request_reason"`
	RequestedBy   uuid.UUID       `json:"-"`
	IPAddress     string          `json:"-"`
	UserAgent     string          `json:"-"`
}

type ReviewRequestInput struct {
	Decision   string          `json:"decision" binding:"required,oneof=approve reject"`
	Remarks    string          `json:"remarks"`
	EditedData json.RawMessage `json:"edited_data"` // reviewer-tweaked payload, approve only
	Actor      uuid.UUID       `json:"-"`
	IPAddress  string          `json:"-"`
	UserAgent  string          `json:"-"`
}

type ApprovalFilter struct {
	Status     string
	EntityType string
	Page       int
	Limit      int
}

type ApprovalRequestResponse struct {
	ID              string          `json:"id"`
	RequestType     string          `json:"request_type"`
	EntityType      string          `json:"entity_type"`
	EntityID        *string         `json:"entity_id"`
	Status          string          `json:"status"`
	CurrentData     json.RawMessage `json:"current_data,omitempty"`
	ProposedData    json.RawMessage `json:"proposed_data"`
	FinalData       json.RawMessage `json:"final_data,omitempty"`
	ChangeSummary   string          `json:"change_summary"`
	RequestReason   string          `json:"request_reason"`
	RequestedBy     string          `json:"requested_by"`
	RequesterName   string          `json:"requester_name,omitempty"`
	RequestedAt     string          `json:"requested_at"`
	ReviewedBy      *string         `json:"reviewed_by"`
	ReviewerName    string          `json:"reviewer_name,omitempty"`
	ReviewedAt      *string         `json:"reviewed_at"`
	ReviewerRemarks string          `json:"reviewer_remarks"`
	IsApplied       bool            `json:"is_applied"`
	AppliedAt       *string         `json:"applied_at"`
	AppliedBy       *string         `json:"applied_by"`
	CreatedAt       string          `json:"created_at"`
}

type ApprovalHistoryResponse struct {
	ID             string          `json:"id"`
	Action         string          `json:"action"`
	ActionBy       string          `json:"action_by"`
	ActionAt       string          `json:"action_at"`
	PreviousStatus *string         `json:"previous_status"`
	NewStatus      *string         `json:"new_status"`
	Remarks        string          `json:"remarks"`
	DataSnapshot   json.RawMessage `json:"data_snapshot,omitempty"`
	IPAddress      string          `json:"ip_address,omitempty"`
}

// --- Interface ---

type ApprovalService interface {
	RegisterKind(entityType string, kind EntityKind)
	Submit(ctx context.Context, in SubmitRequestInput) (ApprovalRequestResponse, error)
	Review(ctx context.Context, id uuid.UUID, in ReviewRequestInput) (ApprovalRequestResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID, ip, userAgent string) (ApprovalRequestResponse, error)
	Apply(ctx context.Context, id uuid.UUID, applier uuid.UUID, fn ApplyFunc) (ApprovalRequestResponse, error)
	Get(ctx context.Context, id uuid.UUID) (ApprovalRequestResponse, error)
	List(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error)
	History(ctx context.Context, id uuid.UUID) ([]ApprovalHistoryResponse, error)
}

type approvalService struct {
	approvalRepo     repository.ApprovalRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	auditRepo        repository.AuditRepository
	txManager        repository.TransactionManager
	hub              interface{ GetBroadcast() chan []byte } // optional websocket hub
	kinds            map[string]EntityKind
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub interface{ GetBroadcast() chan []byte },
) ApprovalService {
	return &approvalService{
		approvalRepo:     approvalRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		txManager:        txManager,
		hub:              hub,
		kinds:            make(map[string]EntityKind),
	}
}

// RegisterKind wires an entity type into the engine. Not safe for concurrent
// use; call during startup before requests flow.
func (s *approvalService) RegisterKind(entityType string, kind EntityKind) {
	s.kinds[entityType] = kind
}

// --- Submit ---

func (s *approvalService) Submit(ctx context.Context, in SubmitRequestInput) (ApprovalRequestResponse, error) {
	if emptyJSON(in.ProposedData) {
		return ApprovalRequestResponse{}, apperr.Validation("proposed_data must not be empty")
	}
	if in.RequestType != model.RequestTypeCreate && in.EntityID == nil {
		return ApprovalRequestResponse{}, apperr.Validation("entity_id is required for %s requests", in.RequestType)
	}
	if in.RequestType == model.RequestTypeCreate && in.EntityID != nil {
		return ApprovalRequestResponse{}, apperr.Validation("entity_id must be empty for create requests")
	}

	kind, ok := s.kinds[in.EntityType]
	if !ok {
		return ApprovalRequestResponse{}, apperr.Validation("unknown entity type %q", in.EntityType)
	}
	if kind.Validate != nil {
		if err := kind.Validate(in.RequestType, in.ProposedData); err != nil {
			return ApprovalRequestResponse{}, apperr.Wrap(apperr.KindValidation, err, "invalid %s payload", in.EntityType)
		}
	}

	now := time.Now()
	request := model.ApprovalRequest{
		RequestType:   in.RequestType,
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		RequestedBy:   in.RequestedBy,
		RequestedAt:   now,
		CurrentData:   in.CurrentData,
		ProposedData:  in.ProposedData,
		ChangeSummary: in.ChangeSummary,
		RequestReason: in.RequestReason,
		Status:        model.ApprovalStatusPending,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.Create(txCtx, &request); err != nil {
			return fmt.Errorf("failed to create approval request: %w", err)
		}

		pending := model.ApprovalStatusPending
		history := model.ApprovalHistory{
			ApprovalRequestID: request.ID,
			Action:            model.HistoryActionSubmitted,
			ActionBy:          in.RequestedBy,
			ActionAt:          now,
			NewStatus:         &pending,
			Remarks:           in.RequestReason,
			DataSnapshot:      in.ProposedData,
			IPAddress:         in.IPAddress,
			UserAgent:         in.UserAgent,
		}
		if err := s.approvalRepo.AppendHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to write approval history: %w", err)
		}

		reviewers, err := s.userRepo.ListByRoles(txCtx, model.RoleAdmin, model.RoleManager)
		if err != nil {
			return fmt.Errorf("failed to resolve reviewers: %w", err)
		}
		title := fmt.Sprintf("New %s request for %s", in.RequestType, in.EntityType)
		notifications := make([]model.ApprovalNotification, 0, len(reviewers))
		for _, reviewer := range reviewers {
			if reviewer.ID == in.RequestedBy {
				continue
			}
			notifications = append(notifications, s.notification(request, reviewer.ID, model.NotificationNewRequest, title, in.ChangeSummary))
		}
		if err := s.notificationRepo.CreateBatch(txCtx, notifications); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}

		return s.audit(txCtx, in.RequestedBy, model.ActionSubmitApproval, request)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.broadcast("approval.submitted", request)
	return s.Get(ctx, request.ID)
}

// --- Review ---

func (s *approvalService) Review(ctx context.Context, id uuid.UUID, in ReviewRequestInput) (ApprovalRequestResponse, error) {
	request, err := s.approvalRepo.FindByID(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if request.Status != model.ApprovalStatusPending {
		return ApprovalRequestResponse{}, apperr.InvalidState("approval request %s is already %s", id, request.Status)
	}

	now := time.Now()
	newStatus := model.ApprovalStatusRejected
	notifType := model.NotificationRejected
	historyAction := model.HistoryActionRejected
	if in.Decision == DecisionApprove {
		newStatus = model.ApprovalStatusApproved
		notifType = model.NotificationApproved
		historyAction = model.HistoryActionApproved
	}

	finalData := json.RawMessage(nil)
	edited := false
	if in.Decision == DecisionApprove {
		finalData = request.ProposedData
		if !emptyJSON(in.EditedData) && !bytes.Equal(in.EditedData, request.ProposedData) {
			finalData = in.EditedData
			edited = true
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		transition := repository.StatusTransition{
			NewStatus:       newStatus,
			ReviewedBy:      &in.Actor,
			ReviewedAt:      &now,
			ReviewerRemarks: in.Remarks,
		}
		if finalData != nil {
			transition.FinalData = finalData
		}
		if err := s.approvalRepo.TransitionFromPending(txCtx, id, transition); err != nil {
			return err
		}

		pending := model.ApprovalStatusPending
		if edited {
			modified := model.ApprovalHistory{
				ApprovalRequestID: id,
				Action:            model.HistoryActionModified,
				ActionBy:          in.Actor,
				ActionAt:          now,
				PreviousStatus:    &pending,
				NewStatus:         &pending,
				Remarks:           "payload edited by reviewer",
				DataSnapshot:      finalData,
				IPAddress:         in.IPAddress,
				UserAgent:         in.UserAgent,
			}
			if err := s.approvalRepo.AppendHistory(txCtx, &modified); err != nil {
				return fmt.Errorf("failed to write modified history: %w", err)
			}
		}

		snapshot := request.ProposedData
		if finalData != nil {
			snapshot = finalData
		}
		history := model.ApprovalHistory{
			ApprovalRequestID: id,
			Action:            historyAction,
			ActionBy:          in.Actor,
			ActionAt:          now,
			PreviousStatus:    &pending,
			NewStatus:         &newStatus,
			Remarks:           in.Remarks,
			DataSnapshot:      snapshot,
			IPAddress:         in.IPAddress,
			UserAgent:         in.UserAgent,
		}
		if err := s.approvalRepo.AppendHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to write approval history: %w", err)
		}

		title := fmt.Sprintf("Your %s request for %s was %s", request.RequestType, request.EntityType, newStatus)
		if edited {
			notifType = model.NotificationModified
			title = fmt.Sprintf("Your %s request for %s was approved with changes", request.RequestType, request.EntityType)
		}
		notif := s.notification(*request, request.RequestedBy, notifType, title, in.Remarks)
		if err := s.notificationRepo.CreateBatch(txCtx, []model.ApprovalNotification{notif}); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		action := model.ActionRejectRequest
		if in.Decision == DecisionApprove {
			action = model.ActionApproveRequest
		}
		return s.audit(txCtx, in.Actor, action, *request)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.broadcast("approval."+newStatus, *request)
	return s.Get(ctx, id)
}

// --- Cancel ---

func (s *approvalService) Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID, ip, userAgent string) (ApprovalRequestResponse, error) {
	request, err := s.approvalRepo.FindByID(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if request.Status != model.ApprovalStatusPending {
		return ApprovalRequestResponse{}, apperr.InvalidState("approval request %s is already %s", id, request.Status)
	}

	now := time.Now()
	cancelled := model.ApprovalStatusCancelled

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		transition := repository.StatusTransition{
			NewStatus:  cancelled,
			ReviewedBy: &actor,
			ReviewedAt: &now,
		}
		if err := s.approvalRepo.TransitionFromPending(txCtx, id, transition); err != nil {
			return err
		}

		pending := model.ApprovalStatusPending
		history := model.ApprovalHistory{
			ApprovalRequestID: id,
			Action:            model.HistoryActionCancelled,
			ActionBy:          actor,
			ActionAt:          now,
			PreviousStatus:    &pending,
			NewStatus:         &cancelled,
			IPAddress:         ip,
			UserAgent:         userAgent,
		}
		if err := s.approvalRepo.AppendHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to write approval history: %w", err)
		}

		reviewers, err := s.userRepo.ListByRoles(txCtx, model.RoleAdmin, model.RoleManager)
		if err != nil {
			return fmt.Errorf("failed to resolve reviewers: %w", err)
		}
		title := fmt.Sprintf("%s request for %s was cancelled", request.RequestType, request.EntityType)
		notifications := make([]model.ApprovalNotification, 0, len(reviewers))
		for _, reviewer := range reviewers {
			if reviewer.ID == actor {
				continue
			}
			notifications = append(notifications, s.notification(*request, reviewer.ID, model.NotificationCancelled, title, ""))
		}
		if err := s.notificationRepo.CreateBatch(txCtx, notifications); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}

		return s.audit(txCtx, actor, model.ActionCancelRequest, *request)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.broadcast("approval.cancelled", *request)
	return s.Get(ctx, id)
}

// --- Apply ---

// Apply executes an approved, unapplied request exactly once. When fn is nil
// the applier registered for the request's entity kind is used. The external
// applier's failure is surfaced unclassified so callers can retry just the
// apply step; the engine's own state errors come back as apperr kinds.
func (s *approvalService) Apply(ctx context.Context, id uuid.UUID, applier uuid.UUID, fn ApplyFunc) (ApprovalRequestResponse, error) {
	request, err := s.approvalRepo.FindByID(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	if request.Status != model.ApprovalStatusApproved {
		return ApprovalRequestResponse{}, apperr.InvalidState("approval request %s is %s, not approved", id, request.Status)
	}
	if request.IsApplied {
		return ApprovalRequestResponse{}, apperr.InvalidState("approval request %s is already applied", id)
	}

	if fn == nil {
		kind, ok := s.kinds[request.EntityType]
		if !ok || kind.Apply == nil {
			return ApprovalRequestResponse{}, apperr.InvalidOperation("no applier registered for entity type %q", request.EntityType)
		}
		fn = kind.Apply
	}

	finalData := request.FinalData
	if finalData == nil {
		finalData = request.ProposedData
	}

	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Claim the request first so a concurrent applier rolls out here
		// instead of running fn twice.
		if err := s.approvalRepo.MarkApplied(txCtx, id, applier, now, nil); err != nil {
			return err
		}

		entityID, applyErr := fn(txCtx, request.RequestType, request.EntityID, finalData)
		if applyErr != nil {
			return fmt.Errorf("apply failed for request %s (%s %s): %w", id, request.RequestType, request.EntityType, applyErr)
		}

		if request.RequestType == model.RequestTypeCreate && entityID != uuid.Nil {
			if err := s.approvalRepo.SetEntityID(txCtx, id, entityID); err != nil {
				return fmt.Errorf("failed to write back entity id: %w", err)
			}
		}

		approved := model.ApprovalStatusApproved
		snapshot, _ := json.Marshal(map[string]interface{}{"entity_id": entityID.String()})
		history := model.ApprovalHistory{
			ApprovalRequestID: id,
			Action:            model.HistoryActionApplied,
			ActionBy:          applier,
			ActionAt:          now,
			PreviousStatus:    &approved,
			NewStatus:         &approved,
			DataSnapshot:      snapshot,
		}
		if err := s.approvalRepo.AppendHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to write approval history: %w", err)
		}

		return s.audit(txCtx, applier, model.ActionApplyRequest, *request)
	})
	if err != nil {
		return ApprovalRequestResponse{}, err
	}

	s.broadcast("approval.applied", *request)
	return s.Get(ctx, id)
}

// --- Reads ---

func (s *approvalService) Get(ctx context.Context, id uuid.UUID) (ApprovalRequestResponse, error) {
	request, err := s.approvalRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		return ApprovalRequestResponse{}, err
	}
	return toApprovalResponse(*request), nil
}

func (s *approvalService) List(ctx context.Context, filter ApprovalFilter) ([]ApprovalRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.approvalRepo.List(ctx, filter.Status, filter.EntityType, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list approval requests: %w", err)
	}

	result := make([]ApprovalRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toApprovalResponse(r))
	}
	return result, total, nil
}

func (s *approvalService) History(ctx context.Context, id uuid.UUID) ([]ApprovalHistoryResponse, error) {
	if _, err := s.approvalRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.approvalRepo.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}

	result := make([]ApprovalHistoryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, ApprovalHistoryResponse{
			ID:             e.ID.String(),
			Action:         e.Action,
			ActionBy:       e.ActionBy.String(),
			ActionAt:       e.ActionAt.Format(time.RFC3339),
			PreviousStatus: e.PreviousStatus,
			NewStatus:      e.NewStatus,
			Remarks:        e.Remarks,
			DataSnapshot:   e.DataSnapshot,
			IPAddress:      e.IPAddress,
		})
	}
	return result, nil
}

// --- Helpers ---

func (s *approvalService) notification(req model.ApprovalRequest, recipient uuid.UUID, notifType, title, message string) model.ApprovalNotification {
	metadata, _ := json.Marshal(map[string]string{
		"entity_type":  req.EntityType,
		"request_type": req.RequestType,
	})
	return model.ApprovalNotification{
		ApprovalRequestID: req.ID,
		RecipientID:       recipient,
		NotificationType:  notifType,
		Title:             title,
		Message:           message,
		Metadata:          metadata,
	}
}

func (s *approvalService) audit(ctx context.Context, actor uuid.UUID, action string, req model.ApprovalRequest) error {
	details, _ := json.Marshal(map[string]string{
		"entity_type":  req.EntityType,
		"request_type": req.RequestType,
		"status":       req.Status,
	})
	entry := model.ActivityLog{
		UserID:     &actor,
		Action:     action,
		EntityID:   req.ID.String(),
		EntityName: req.EntityType,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func (s *approvalService) broadcast(event string, req model.ApprovalRequest) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"event":       event,
		"request_id":  req.ID.String(),
		"entity_type": req.EntityType,
	})
	select {
	case s.hub.GetBroadcast() <- payload:
	default: // never block the request path on slow websocket consumers
	}
}

func emptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch string(trimmed) {
	case "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func toApprovalResponse(r model.ApprovalRequest) ApprovalRequestResponse {
	resp := ApprovalRequestResponse{
		ID:              r.ID.String(),
		RequestType:     r.RequestType,
		EntityType:      r.EntityType,
		Status:          r.Status,
		CurrentData:     r.CurrentData,
		ProposedData:    r.ProposedData,
		FinalData:       r.FinalData,
		ChangeSummary:   r.ChangeSummary,
		RequestReason:   r.RequestReason,
		RequestedBy:     r.RequestedBy.String(),
		RequestedAt:     r.RequestedAt.Format(time.RFC3339),
		ReviewerRemarks: r.ReviewerRemarks,
		IsApplied:       r.IsApplied,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}

	if r.EntityID != nil {
		s := r.EntityID.String()
		resp.EntityID = &s
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	if r.ReviewedBy != nil {
		s := r.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	if r.Reviewer != nil {
		resp.ReviewerName = r.Reviewer.Username
	}
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	if r.AppliedAt != nil {
		s := r.AppliedAt.Format(time.RFC3339)
		resp.AppliedAt = &s
	}
	if r.AppliedBy != nil {
		s := r.AppliedBy.String()
		resp.AppliedBy = &s
	}

	return resp
}
