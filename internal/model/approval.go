package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Request types — what kind of mutation is being proposed.
const (
	RequestTypeCreate = "create"
	RequestTypeUpdate = "update"
	RequestTypeDelete = "delete"
)

// Approval request statuses. Transitions are one-way: pending may move to
// approved, rejected or cancelled; nothing ever moves back to pending.
const (
	ApprovalStatusPending   = "pending"
	ApprovalStatusApproved  = "approved"
	ApprovalStatusRejected  = "rejected"
	ApprovalStatusCancelled = "cancelled"
)

// History actions recorded for each transition or notable event on a request.
const (
	HistoryActionSubmitted = "submitted"
	HistoryActionApproved  = "approved"
	HistoryActionRejected  = "rejected"
	HistoryActionCancelled = "cancelled"
	HistoryActionModified  = "modified"
	HistoryActionApplied   = "applied"
)

// Notification types delivered to recipients on request events.
const (
	NotificationNewRequest = "new_request"
	NotificationApproved   = "approved"
	NotificationRejected   = "rejected"
	NotificationModified   = "modified"
	NotificationCancelled  = "cancelled"
)

// ApprovalRequest represents one proposed mutation against an entity awaiting
// human review. EntityID is nil for create requests until the change is
// applied; the applier writes the new entity's id back.
type ApprovalRequest struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestType     string          `gorm:"type:varchar(20);not null;index" json:"request_type"` // create, update, delete
	EntityType      string          `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID        *uuid.UUID      `gorm:"type:uuid;index" json:"entity_id"`
	RequestedBy     uuid.UUID       `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester       *User           `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	RequestedAt     time.Time       `gorm:"not null" json:"requested_at"`
	CurrentData     json.RawMessage `gorm:"type:jsonb" json:"current_data,omitempty"`       // entity snapshot before the change
	ProposedData    json.RawMessage `gorm:"type:jsonb;not null" json:"proposed_data"`       // the change payload, always present
	ChangeSummary   string          `gorm:"type:text" json:"change_summary"`
	RequestReason   string          `gorm:"type:text" json:"request_reason"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy      *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer        *User           `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at"`
	ReviewerRemarks string          `gorm:"type:text" json:"reviewer_remarks"`
	FinalData       json.RawMessage `gorm:"type:jsonb" json:"final_data,omitempty"` // set only when approved
	IsApplied       bool            `gorm:"not null;default:false;index" json:"is_applied"`
	AppliedAt       *time.Time      `json:"applied_at"`
	AppliedBy       *uuid.UUID      `gorm:"type:uuid" json:"applied_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"` // requests are never hard-deleted
}

func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ApprovalHistory is an append-only log entry, one per state transition or
// notable action. The request's current status is always reconstructable as
// the NewStatus of its most recent status-bearing row.
type ApprovalHistory struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ApprovalRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"approval_request_id"`
	Action            string          `gorm:"type:varchar(20);not null" json:"action"`
	ActionBy          uuid.UUID       `gorm:"type:uuid;not null" json:"action_by"`
	Actor             *User           `gorm:"foreignKey:ActionBy" json:"actor,omitempty"`
	ActionAt          time.Time       `gorm:"not null;index" json:"action_at"`
	PreviousStatus    *string         `gorm:"type:varchar(20)" json:"previous_status"`
	NewStatus         *string         `gorm:"type:varchar(20)" json:"new_status"`
	Remarks           string          `gorm:"type:text" json:"remarks"`
	DataSnapshot      json.RawMessage `gorm:"type:jsonb" json:"data_snapshot,omitempty"`
	IPAddress         string          `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent         string          `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (h *ApprovalHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ApprovalNotification is a delivery record of a request event to one
// recipient. Read state only transitions false to true.
type ApprovalNotification struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ApprovalRequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"approval_request_id"`
	RecipientID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"recipient_id"`
	NotificationType  string          `gorm:"type:varchar(20);not null" json:"notification_type"`
	Title             string          `gorm:"type:varchar(255);not null" json:"title"`
	Message           string          `gorm:"type:text" json:"message"`
	Metadata          json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsRead            bool            `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt            *time.Time      `json:"read_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (n *ApprovalNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
