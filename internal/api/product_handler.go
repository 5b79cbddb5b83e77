package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// ProductHandler serves the public catalog and the seller's listing CRUD.
type ProductHandler struct {
	products core.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(products core.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// List handles GET /products, the public paginated catalog. Pagination is
// cursor-based: pass the last product ID of the previous page as startAfter.
func (h *ProductHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	products, err := h.products.List(c.Request.Context(), limit, c.Query("startAfter"))
	if err != nil {
		h.logger.Error("product listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetByID handles GET /products/:id (public).
func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListMine handles GET /products/mine (seller only).
func (h *ProductHandler) ListMine(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	products, err := h.products.ListBySeller(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("seller product listing failed", zap.String("sellerId", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// Create handles POST /products (verified seller only).
func (h *ProductHandler) Create(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	product, err := h.products.Create(c.Request.Context(), uid, req)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update handles PATCH /products/:id (owning seller only).
func (h *ProductHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	product, err := h.products.Update(c.Request.Context(), uid, c.Param("id"), req)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /products/:id (owning seller only).
func (h *ProductHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	if err := h.products.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Product deleted"})
}

func (h *ProductHandler) respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrProductNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Product not found"})
	case errors.Is(err, core.ErrNotProductOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You do not own this product"})
	case errors.Is(err, core.ErrSellerNotVerified):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Listings require an active subscription"})
	case errors.Is(err, core.ErrInvalidCategory), errors.Is(err, core.ErrNonPositivePrice):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("product operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong"})
	}
}
