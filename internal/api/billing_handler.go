package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// Webhook payloads above this size are rejected before verification.
const maxWebhookBodyBytes = 65536

// BillingHandler fronts the payment processor's hosted surfaces and
// receives its webhooks.
type BillingHandler struct {
	billing core.BillingService
	logger  *zap.Logger
}

// NewBillingHandler creates a BillingHandler.
func NewBillingHandler(billing core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, logger: logger}
}

// CreateCheckoutSession handles POST /billing/create-checkout-session.
// Sellers get the one-time verification product, buyers the recurring
// subscription.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	role, _ := c.Get(middleware.CtxUserRole)

	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	url, err := h.billing.CreateCheckoutSession(c.Request.Context(), uid, role.(models.Role), core.CheckoutParams{
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		h.respondBillingError(c, err)
		return
	}
	c.JSON(http.StatusOK, RedirectResponse{URL: url})
}

// CreatePortalSession handles POST /billing/create-portal-session. The
// caller must already have a processor customer record.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserID)
	role, _ := c.Get(middleware.CtxUserRole)

	url, err := h.billing.CreatePortalSession(c.Request.Context(), uid, role.(models.Role))
	if err != nil {
		h.respondBillingError(c, err)
		return
	}
	c.JSON(http.StatusOK, RedirectResponse{URL: url})
}

// HandleWebhook handles POST /billing/webhooks/stripe. The signature is
// verified over the raw body bytes; once it checks out, the processor is
// always acknowledged with 200 so it does not retry events whose failures
// are ours to resolve.
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unable to read request body"})
		return
	}

	err = h.billing.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, SuccessResponse{Message: "received"})
	case errors.Is(err, core.ErrWebhookSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid webhook signature"})
	case errors.Is(err, core.ErrMissingClientReference):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing client reference"})
	default:
		h.logger.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Webhook processing failed"})
	}
}

func (h *BillingHandler) respondBillingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrMissingRedirectURLs):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "success_url and cancel_url are required"})
	case errors.Is(err, core.ErrNoStripeCustomer):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No billing account exists yet. Complete checkout first."})
	case errors.Is(err, core.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Profile not found"})
	default:
		h.logger.Error("billing session creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Billing operation failed"})
	}
}
