package handler

import (
	"net/http"

	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/middleware"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/service"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/pagination"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.POST("", middleware.RequirePermission("approvals.submit"), h.Submit)
		approvals.GET("", middleware.RequirePermission("approvals.read"), h.List)
		approvals.GET("/:id", middleware.RequirePermission("approvals.read"), h.Get)
		approvals.GET("/:id/history", middleware.RequirePermission("approvals.read"), h.History)
		approvals.PUT("/:id/review", middleware.RequirePermission("approvals.review"), h.Review)
		approvals.PUT("/:id/cancel", middleware.RequirePermission("approvals.submit"), h.Cancel)
		approvals.POST("/:id/apply", middleware.RequirePermission("approvals.apply"), h.Apply)
	}
}

// Submit creates a pending approval request for an entity change.
// @Summary      Submit approval request
// @Description  Creates a pending change request for an entity, notifying eligible reviewers
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitRequestInput  true  "Change Request Payload"
// @Success      201      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/approvals [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	var in service.SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}
	in.RequestedBy = actor
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	result, err := h.approvalService.Submit(c.Request.Context(), in)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// List returns approval requests filtered by status and entity type.
// @Summary      List approval requests
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by status (pending, approved, rejected, cancelled)"
// @Param        entity_type  query     string  false  "Filter by entity type"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=response.Paginated}
// @Router       /api/approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.ApprovalFilter{
		Status:     c.Query("status"),
		EntityType: c.Query("entity_type"),
		Page:       p.Page,
		Limit:      p.Limit,
	}

	approvals, total, err := h.approvalService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: approvals,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

func (h *ApprovalHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id"))
		return
	}

	result, err := h.approvalService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// History returns the append-only trail for a request, oldest first.
// @Summary      Get approval history
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalHistoryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/approvals/{id}/history [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id"))
		return
	}

	entries, err := h.approvalService.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// Review approves or rejects a pending request.
// @Summary      Review approval request
// @Description  Approves or rejects a pending request, optionally with a reviewer-edited payload
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Request ID"
// @Param        payload  body      service.ReviewRequestInput  true  "Review Decision"
// @Success      200      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/review [put]
func (h *ApprovalHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id"))
		return
	}

	var in service.ReviewRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}
	in.Actor = actor
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	result, err := h.approvalService.Review(c.Request.Context(), id, in)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel withdraws a pending request.
// @Summary      Cancel approval request
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/approvals/{id}/cancel [put]
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id"))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}

	result, err := h.approvalService.Cancel(c.Request.Context(), id, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Apply executes an approved request against the entity store.
// @Summary      Apply approved request
// @Description  Executes an approved, unapplied request exactly once
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/approvals/{id}/apply [post]
func (h *ApprovalHandler) Apply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request id"))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}

	result, err := h.approvalService.Apply(c.Request.Context(), id, actor, nil)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
