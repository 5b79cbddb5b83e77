package core

import (
	"context"
	"time"

	"tradebridge-backend/internal/models"
)

// RoleService resolves which role collection, if any, holds a profile for
// an account.
type RoleService interface {
	// Resolve probes the collections once, in priority order
	// seller -> buyer -> admin.
	Resolve(ctx context.Context, uid string) (models.Role, error)
	// ResolveWithRetry re-runs the probe sequence until a role is found or
	// the retry budget is exhausted, to absorb the write/read race right
	// after registration.
	ResolveWithRetry(ctx context.Context, uid string) (models.Role, error)
	// Invalidate drops any cached resolution for the account.
	Invalidate(ctx context.Context, uid string)
}

// RegistrationResult is returned from a successful registration.
type RegistrationResult struct {
	UID  string
	Role models.Role
	// VerifyBy is the deadline after which the unverified account becomes
	// eligible for reaping. Communicated to the client.
	VerifyBy time.Time
}

// RegistrationService creates the account and its role document as one
// server-side operation.
type RegistrationService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*RegistrationResult, error)
	ResendVerification(ctx context.Context, uid string) error
	VerificationStatus(ctx context.Context, uid string) (verified bool, verifyBy time.Time, err error)
}

// CheckoutParams are the caller-supplied redirect URLs for a checkout
// session. Both are required.
type CheckoutParams struct {
	SuccessURL string
	CancelURL  string
}

// BillingService fronts the payment processor.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, uid string, role models.Role, params CheckoutParams) (url string, err error)
	CreatePortalSession(ctx context.Context, uid string, role models.Role) (url string, err error)
	// HandleWebhook verifies the signature over the raw body bytes and
	// dispatches the event. A non-nil error is only returned for requests
	// that must be rejected with a 4xx; internal update failures are logged
	// and swallowed so the processor is always acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// ReapSummary reports one reaper run.
type ReapSummary struct {
	Scanned  int
	Matched  int
	Deleted  int
	Failures int
}

// ReaperService deletes stale unverified accounts and their role documents.
type ReaperService interface {
	Run(ctx context.Context) (*ReapSummary, error)
}

// ProductService manages seller listings.
type ProductService interface {
	Create(ctx context.Context, sellerID string, req models.CreateProductRequest) (*models.Product, error)
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*models.Product, error)
	List(ctx context.Context, limit int, startAfter string) ([]*models.Product, error)
	Update(ctx context.Context, sellerID, productID string, req models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, sellerID, productID string) error
}

// QuoteService manages quote requests and the open-requests view.
type QuoteService interface {
	Create(ctx context.Context, req models.CreateQuoteRequest) (*models.QuoteRequest, error)
	GetByID(ctx context.Context, sellerID, quoteID string) (*models.QuoteRequest, error)
	ListForSeller(ctx context.Context, sellerID string) ([]*models.QuoteRequest, error)
}

// ProfileService reads and updates the caller's role document.
type ProfileService interface {
	Get(ctx context.Context, uid string) (models.Role, interface{}, error)
	Update(ctx context.Context, uid string, req models.UpdateProfileRequest) error
	SaveSeller(ctx context.Context, buyerID, sellerID string) error
	UnsaveSeller(ctx context.Context, buyerID, sellerID string) error
}
