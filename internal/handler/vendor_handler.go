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

type VendorHandler struct {
	vendorService service.VendorService
}

func NewVendorHandler(vendorService service.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/api/vendors", middleware.RequirePermission("vendors.read"))
	{
		vendors.GET("", h.List)
		vendors.GET("/:id", h.Get)
		vendors.GET("/:id/low-stock", h.LowStock)
	}
}

// List returns a paginated vendor listing.
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by vendor name or code"
// @Success      200     {object}  response.Response{data=response.Paginated}
// @Router       /api/vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	vendors, total, err := h.vendorService.List(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: vendors,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

func (h *VendorHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor id"))
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// LowStock lists the vendor's inventory rows at or below their threshold.
// @Summary      List low-stock inventory
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id}/low-stock [get]
func (h *VendorHandler) LowStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor id"))
		return
	}

	p := pagination.Parse(c)
	rows, total, err := h.vendorService.LowStock(c.Request.Context(), id, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: rows,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}
