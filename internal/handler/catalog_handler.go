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

// CatalogHandler serves catalog reads. Writes are absent on purpose; catalog
// changes go through the approvals endpoints.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	catalog := router.Group("/api/catalog", middleware.RequirePermission("catalog.read"))
	{
		catalog.GET("/products", h.ListProducts)
		catalog.GET("/products/:id", h.GetProduct)
		catalog.GET("/brands", h.ListBrands)
		catalog.GET("/brands/:id", h.GetBrand)
		catalog.GET("/manufacturers", h.ListManufacturers)
		catalog.GET("/categories", h.ListCategories)
		catalog.GET("/salts", h.ListSalts)
		catalog.GET("/dosages", h.ListDosages)
		catalog.GET("/attributes", h.ListAttributes)
		catalog.GET("/gst-rates", h.ListGSTRates)
	}
}

// ListProducts returns a paginated product listing.
// @Summary      List products
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name or SKU"
// @Success      200     {object}  response.Response{data=response.Paginated}
// @Router       /api/catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.catalogService.ListProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: products,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

// GetProduct returns one product by id.
// @Summary      Get product
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid product id"))
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

func (h *CatalogHandler) ListBrands(c *gin.Context) {
	p := pagination.Parse(c)
	brands, total, err := h.catalogService.ListBrands(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: brands,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}))
}

func (h *CatalogHandler) GetBrand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid brand id"))
		return
	}

	brand, err := h.catalogService.GetBrand(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, brand))
}

func (h *CatalogHandler) ListManufacturers(c *gin.Context) {
	p := pagination.Parse(c)
	rows, total, err := h.catalogService.ListManufacturers(c.Request.Context(), p.Page, p.Limit)
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

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	rows, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

func (h *CatalogHandler) ListSalts(c *gin.Context) {
	p := pagination.Parse(c)
	rows, total, err := h.catalogService.ListSalts(c.Request.Context(), p.Page, p.Limit)
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

func (h *CatalogHandler) ListDosages(c *gin.Context) {
	rows, err := h.catalogService.ListDosages(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

func (h *CatalogHandler) ListAttributes(c *gin.Context) {
	rows, err := h.catalogService.ListAttributes(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

func (h *CatalogHandler) ListGSTRates(c *gin.Context) {
	rows, err := h.catalogService.ListGSTRates(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}
