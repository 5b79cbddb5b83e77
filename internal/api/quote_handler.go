package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// QuoteHandler accepts public quote requests and serves the seller's
// open-requests view.
type QuoteHandler struct {
	quotes core.QuoteService
	logger *zap.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(quotes core.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logger}
}

// Create handles POST /quotes. The endpoint is public: buyers do not need
// an account to request a quote.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req models.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	quote, err := h.quotes.Create(c.Request.Context(), req)
	if err != nil {
		h.respondQuoteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quote)
}

// ListMine handles GET /quotes (seller only).
func (h *QuoteHandler) ListMine(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	quotes, err := h.quotes.ListForSeller(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("quote listing failed", zap.String("sellerId", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list quote requests"})
		return
	}
	c.JSON(http.StatusOK, quotes)
}

// GetByID handles GET /quotes/:id (target seller only).
func (h *QuoteHandler) GetByID(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)

	quote, err := h.quotes.GetByID(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.respondQuoteError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *QuoteHandler) respondQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrQuoteNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Quote request not found"})
	case errors.Is(err, core.ErrNotQuoteRecipient):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
	case errors.Is(err, core.ErrInvalidQuote):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("quote operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong"})
	}
}
