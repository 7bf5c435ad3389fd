package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/model"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitBrandCreate(t *testing.T, env *testEnv, requester uuid.UUID, name string) ApprovalRequestResponse {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"name": name})
	resp, err := env.approvals.Submit(context.Background(), SubmitRequestInput{
		EntityType:    EntityTypeBrand,
		RequestType:   model.RequestTypeCreate,
		ProposedData:  payload,
		ChangeSummary: "add brand " + name,
		RequestedBy:   requester,
	})
	require.NoError(t, err)
	return resp
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Crocin")

	assert.Equal(t, model.ApprovalStatusPending, resp.Status)
	assert.False(t, resp.IsApplied)
	assert.Nil(t, resp.EntityID)
	assert.Equal(t, staff.ID.String(), resp.RequestedBy)

	id := uuid.MustParse(resp.ID)
	history, err := env.approvals.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.HistoryActionSubmitted, history[0].Action)
	require.NotNil(t, history[0].NewStatus)
	assert.Equal(t, model.ApprovalStatusPending, *history[0].NewStatus)
	assert.Nil(t, history[0].PreviousStatus)

	// Reviewers get notified, the requester does not.
	count, err := env.notification.UnreadCount(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = env.notification.UnreadCount(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSubmitValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	staff := env.createUser(t, "staff", model.RoleStaff)

	cases := []struct {
		name string
		in   SubmitRequestInput
	}{
		{
			name: "empty proposed data",
			in: SubmitRequestInput{
				EntityType:   EntityTypeBrand,
				RequestType:  model.RequestTypeCreate,
				ProposedData: json.RawMessage(`{}`),
				RequestedBy:  staff.ID,
			},
		},
		{
			name: "update without entity id",
			in: SubmitRequestInput{
				EntityType:   EntityTypeBrand,
				RequestType:  model.RequestTypeUpdate,
				ProposedData: json.RawMessage(`{"name":"X"}`),
				RequestedBy:  staff.ID,
			},
		},
		{
			name: "unknown entity type",
			in: SubmitRequestInput{
				EntityType:   "warehouse",
				RequestType:  model.RequestTypeCreate,
				ProposedData: json.RawMessage(`{"name":"X"}`),
				RequestedBy:  staff.ID,
			},
		},
		{
			name: "brand payload missing name",
			in: SubmitRequestInput{
				EntityType:   EntityTypeBrand,
				RequestType:  model.RequestTypeCreate,
				ProposedData: json.RawMessage(`{"description":"no name"}`),
				RequestedBy:  staff.ID,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.approvals.Submit(ctx, tc.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	// Create requests must not name an entity.
	existing := uuid.New()
	_, err := env.approvals.Submit(ctx, SubmitRequestInput{
		EntityType:   EntityTypeBrand,
		EntityID:     &existing,
		RequestType:  model.RequestTypeCreate,
		ProposedData: json.RawMessage(`{"name":"X"}`),
		RequestedBy:  staff.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApproveThenApply(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Crocin")
	id := uuid.MustParse(resp.ID)

	reviewed, err := env.approvals.Review(ctx, id, ReviewRequestInput{
		Decision: DecisionApprove,
		Remarks:  "looks good",
		Actor:    admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, reviewed.Status)
	assert.False(t, reviewed.IsApplied)
	assert.JSONEq(t, `{"name":"Crocin"}`, string(reviewed.FinalData))
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.ID.String(), *reviewed.ReviewedBy)

	applied, err := env.approvals.Apply(ctx, id, admin.ID, nil)
	require.NoError(t, err)
	assert.True(t, applied.IsApplied)
	require.NotNil(t, applied.EntityID)

	// The applied entity exists in the catalog.
	brand, err := env.catalog.GetBrand(ctx, uuid.MustParse(*applied.EntityID))
	require.NoError(t, err)
	assert.Equal(t, "Crocin", brand.Name)

	// Trail: submitted -> approved -> applied, oldest first.
	history, err := env.approvals.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.HistoryActionSubmitted, history[0].Action)
	assert.Equal(t, model.HistoryActionApproved, history[1].Action)
	assert.Equal(t, model.HistoryActionApplied, history[2].Action)

	// The requester was told about the approval.
	count, err := env.notification.UnreadCount(ctx, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRejectFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Dolo")
	id := uuid.MustParse(resp.ID)

	rejected, err := env.approvals.Review(ctx, id, ReviewRequestInput{
		Decision: DecisionReject,
		Remarks:  "duplicate of an existing brand",
		Actor:    admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusRejected, rejected.Status)
	assert.Empty(t, rejected.FinalData)

	// Rejected requests cannot be applied.
	_, err = env.approvals.Apply(ctx, id, admin.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestReviewTwiceFails(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Calpol")
	id := uuid.MustParse(resp.ID)

	_, err := env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	require.NoError(t, err)

	_, err = env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionReject, Actor: admin.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestConcurrentReviewsSingleWinner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	manager := env.createUser(t, "manager", model.RoleManager)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Sinarest")
	id := uuid.MustParse(resp.ID)

	decisions := []ReviewRequestInput{
		{Decision: DecisionApprove, Actor: admin.ID},
		{Decision: DecisionReject, Actor: manager.ID},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(decisions))
	for i, in := range decisions {
		wg.Add(1)
		go func(i int, in ReviewRequestInput) {
			defer wg.Done()
			_, errs[i] = env.approvals.Review(ctx, id, in)
		}(i, in)
	}
	wg.Wait()

	// Exactly one reviewer wins; the loser sees the settled state.
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, apperr.ErrInvalidState) || errors.Is(err, apperr.ErrConflict),
			"loser got %v", err)
	}
	assert.Equal(t, 1, winners)

	after, err := env.approvals.Get(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, model.ApprovalStatusPending, after.Status)
	assert.Contains(t, []string{model.ApprovalStatusApproved, model.ApprovalStatusRejected}, after.Status)
}

func TestCancelPendingRequest(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Benadryl")
	id := uuid.MustParse(resp.ID)

	cancelled, err := env.approvals.Cancel(ctx, id, staff.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusCancelled, cancelled.Status)

	// Terminal: no review after cancellation.
	_, err = env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestApplyTwiceFails(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Volini")
	id := uuid.MustParse(resp.ID)

	_, err := env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	require.NoError(t, err)

	_, err = env.approvals.Apply(ctx, id, admin.ID, nil)
	require.NoError(t, err)

	_, err = env.approvals.Apply(ctx, id, admin.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestReviewerEditsPayload(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	resp := submitBrandCreate(t, env, staff.ID, "Crocinn")
	id := uuid.MustParse(resp.ID)

	reviewed, err := env.approvals.Review(ctx, id, ReviewRequestInput{
		Decision:   DecisionApprove,
		Remarks:    "fixed the typo",
		EditedData: json.RawMessage(`{"name":"Crocin"}`),
		Actor:      admin.ID,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Crocin"}`, string(reviewed.FinalData))

	history, err := env.approvals.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.HistoryActionModified, history[1].Action)
	assert.Equal(t, model.HistoryActionApproved, history[2].Action)

	// The requester is told the payload changed, not just that it passed.
	rows, _, err := env.notification.List(ctx, staff.ID, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotificationModified, rows[0].NotificationType)

	// The edited payload, not the proposed one, reaches the entity store.
	applied, err := env.approvals.Apply(ctx, id, admin.ID, nil)
	require.NoError(t, err)
	brand, err := env.catalog.GetBrand(ctx, uuid.MustParse(*applied.EntityID))
	require.NoError(t, err)
	assert.Equal(t, "Crocin", brand.Name)
}

func TestApplyFailureRollsBack(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)
	env.createVendor(t, "VND-001")

	// A vendor create colliding on code makes the applier fail.
	payload, _ := json.Marshal(map[string]string{"code": "VND-001", "name": "Duplicate Pharma"})
	resp, err := env.approvals.Submit(ctx, SubmitRequestInput{
		EntityType:   EntityTypeVendor,
		RequestType:  model.RequestTypeCreate,
		ProposedData: payload,
		RequestedBy:  staff.ID,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	require.NoError(t, err)

	_, err = env.approvals.Apply(ctx, id, admin.ID, nil)
	require.Error(t, err)

	// The applied claim rolled back with the rest of the transaction.
	after, err := env.approvals.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalStatusApproved, after.Status)
	assert.False(t, after.IsApplied)
}

func TestUpdateRequestFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	brand := model.Brand{Name: "Old Name", IsActive: true}
	require.NoError(t, env.db.Create(&brand).Error)

	current, _ := json.Marshal(map[string]string{"name": "Old Name"})
	proposed, _ := json.Marshal(map[string]string{"name": "New Name"})
	resp, err := env.approvals.Submit(ctx, SubmitRequestInput{
		EntityType:   EntityTypeBrand,
		EntityID:     &brand.ID,
		RequestType:  model.RequestTypeUpdate,
		CurrentData:  current,
		ProposedData: proposed,
		RequestedBy:  staff.ID,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = env.approvals.Review(ctx, id, ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	require.NoError(t, err)
	_, err = env.approvals.Apply(ctx, id, admin.ID, nil)
	require.NoError(t, err)

	updated, err := env.catalog.GetBrand(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
}

func TestListFiltersByStatusAndEntityType(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	first := submitBrandCreate(t, env, staff.ID, "One")
	submitBrandCreate(t, env, staff.ID, "Two")

	_, err := env.approvals.Review(ctx, uuid.MustParse(first.ID), ReviewRequestInput{Decision: DecisionApprove, Actor: admin.ID})
	require.NoError(t, err)

	pending, total, err := env.approvals.List(ctx, ApprovalFilter{Status: model.ApprovalStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, model.ApprovalStatusPending, pending[0].Status)

	_, total, err = env.approvals.List(ctx, ApprovalFilter{EntityType: EntityTypeBrand})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = env.approvals.List(ctx, ApprovalFilter{EntityType: EntityTypeVendor})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestNotificationMarkReadOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", model.RoleAdmin)
	staff := env.createUser(t, "staff", model.RoleStaff)

	submitBrandCreate(t, env, staff.ID, "Zyrtec")

	rows, _, err := env.notification.List(ctx, admin.ID, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	id := uuid.MustParse(rows[0].ID)
	require.NoError(t, env.notification.MarkRead(ctx, id, admin.ID))

	// Read state never transitions back.
	err = env.notification.MarkRead(ctx, id, admin.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	count, err := env.notification.UnreadCount(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
