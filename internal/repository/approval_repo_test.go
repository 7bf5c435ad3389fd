package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedRequest(t *testing.T, db *gorm.DB, status string) (model.ApprovalRequest, model.User) {
	t.Helper()

	user := model.User{Username: "requester", Email: "requester@example.com", Password: "x", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	request := model.ApprovalRequest{
		RequestType:  model.RequestTypeCreate,
		EntityType:   "brand",
		RequestedBy:  user.ID,
		RequestedAt:  time.Now(),
		ProposedData: json.RawMessage(`{"name":"Crocin"}`),
		Status:       status,
	}
	require.NoError(t, db.Create(&request).Error)
	return request, user
}

func TestTransitionFromPendingWinsOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	request, user := seedRequest(t, db, model.ApprovalStatusPending)
	now := time.Now()

	tr := StatusTransition{
		NewStatus:  model.ApprovalStatusApproved,
		ReviewedBy: &user.ID,
		ReviewedAt: &now,
		FinalData:  []byte(`{"name":"Crocin"}`),
	}
	require.NoError(t, repo.TransitionFromPending(ctx, request.ID, tr))

	// The second transition sees a non-pending row and reports the state.
	err := repo.TransitionFromPending(ctx, request.ID, StatusTransition{
		NewStatus:  model.ApprovalStatusRejected,
		ReviewedBy: &user.ID,
		ReviewedAt: &now,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	current, err := repo.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, current.Status)
}

func TestTransitionFromPendingMissingRequest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)

	err := repo.TransitionFromPending(context.Background(), uuid.New(), StatusTransition{
		NewStatus: model.ApprovalStatusApproved,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkAppliedClaimsOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	request, user := seedRequest(t, db, model.ApprovalStatusApproved)
	now := time.Now()

	require.NoError(t, repo.MarkApplied(ctx, request.ID, user.ID, now, nil))

	// A concurrent applier loses the claim.
	err := repo.MarkApplied(ctx, request.ID, user.ID, now, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestMarkAppliedRequiresApprovedStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	request, user := seedRequest(t, db, model.ApprovalStatusPending)

	err := repo.MarkApplied(ctx, request.ID, user.ID, time.Now(), nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}
