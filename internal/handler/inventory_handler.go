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

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.POST("/movements", middleware.RequirePermission("inventory.write"), h.RecordMovement)
		inventory.POST("/reallocate", middleware.RequirePermission("inventory.write"), h.Reallocate)
		inventory.GET("/:vendorId/:productId", middleware.RequirePermission("inventory.read"), h.CurrentStock)
		inventory.GET("/:vendorId/:productId/movements", middleware.RequirePermission("inventory.read"), h.ListMovements)
		inventory.GET("/:vendorId/:productId/replay", middleware.RequirePermission("inventory.read"), h.Replay)
	}
}

// RecordMovement appends a stock movement to the ledger.
// @Summary      Record stock movement
// @Description  Applies a signed quantity change to one stock bucket and appends the ledger row
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordMovementInput  true  "Movement Payload"
// @Success      201      {object}  response.Response{data=service.StockResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var in service.RecordMovementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}
	in.PerformedBy = actor

	stock, err := h.inventoryService.RecordMovement(c.Request.Context(), in)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, stock))
}

// Reallocate shifts stock between the online and offline buckets.
// @Summary      Reallocate stock buckets
// @Description  Redistributes the current total between online and offline without changing it
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ReallocateInput  true  "Reallocation Payload"
// @Success      200      {object}  response.Response{data=service.StockResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/inventory/reallocate [post]
func (h *InventoryHandler) Reallocate(c *gin.Context) {
	var in service.ReallocateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	actor, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not authenticated"))
		return
	}
	in.PerformedBy = actor

	stock, err := h.inventoryService.Reallocate(c.Request.Context(), in)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// CurrentStock returns the materialized stock row for a vendor/product pair.
// @Summary      Get current stock
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        vendorId   path      string  true  "Vendor ID"
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  response.Response{data=service.StockResponse}
// @Router       /api/inventory/{vendorId}/{productId} [get]
func (h *InventoryHandler) CurrentStock(c *gin.Context) {
	vendorID, productID, ok := parsePairParams(c)
	if !ok {
		return
	}

	stock, err := h.inventoryService.CurrentStock(c.Request.Context(), vendorID, productID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	vendorID, productID, ok := parsePairParams(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), vendorID, productID, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: movements,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

// Replay reconstructs the stock position from the full movement log.
func (h *InventoryHandler) Replay(c *gin.Context) {
	vendorID, productID, ok := parsePairParams(c)
	if !ok {
		return
	}

	stock, err := h.inventoryService.Replay(c.Request.Context(), vendorID, productID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

func parsePairParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	vendorID, err := uuid.Parse(c.Param("vendorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor id"))
		return uuid.Nil, uuid.Nil, false
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid product id"))
		return uuid.Nil, uuid.Nil, false
	}
	return vendorID, productID, true
}
