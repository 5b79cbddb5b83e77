package db

import (
	"context"
	"time"

	"tradebridge-backend/internal/models"
)

// SellerRepository defines storage operations for seller role documents.
type SellerRepository interface {
	Create(ctx context.Context, seller *models.SellerProfile) error
	GetByID(ctx context.Context, uid string) (*models.SellerProfile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.SellerProfile, error)
	Exists(ctx context.Context, uid string) (bool, error)
	Delete(ctx context.Context, uid string) error
	UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error
	// ApplyCheckout records the processor customer and marks the seller
	// verified in a single field-level write. Sellers pay a one-time fee,
	// so no subscription identifier is stored.
	ApplyCheckout(ctx context.Context, uid, customerID string, eventAt time.Time) error
	ApplySubscriptionStatus(ctx context.Context, uid, status string, verified bool, eventAt time.Time) error
	AddProductID(ctx context.Context, uid, productID string) error
	RemoveProductID(ctx context.Context, uid, productID string) error
}

// BuyerRepository defines storage operations for buyer role documents.
type BuyerRepository interface {
	Create(ctx context.Context, buyer *models.BuyerProfile) error
	GetByID(ctx context.Context, uid string) (*models.BuyerProfile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.BuyerProfile, error)
	Exists(ctx context.Context, uid string) (bool, error)
	Delete(ctx context.Context, uid string) error
	UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error
	ApplyCheckout(ctx context.Context, uid, customerID, subscriptionID string, eventAt time.Time) error
	ApplySubscriptionStatus(ctx context.Context, uid, status string, verified bool, eventAt time.Time) error
	AddSavedSeller(ctx context.Context, uid, sellerID string) error
	RemoveSavedSeller(ctx context.Context, uid, sellerID string) error
}

// AdminRepository defines storage operations for admin role documents.
// Admins are provisioned out of band; only lookups are needed here.
type AdminRepository interface {
	GetByID(ctx context.Context, uid string) (*models.AdminProfile, error)
	Exists(ctx context.Context, uid string) (bool, error)
}

// ProductRepository defines storage operations for product listings.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (string, error)
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	ListBySellerID(ctx context.Context, sellerID string) ([]*models.Product, error)
	List(ctx context.Context, limit int, startAfter string) ([]*models.Product, error)
	UpdateFields(ctx context.Context, productID string, fields map[string]interface{}) error
	Delete(ctx context.Context, productID string) error
}

// QuoteRepository defines storage operations for quote requests.
// Quote requests are immutable once created.
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.QuoteRequest) error
	GetByID(ctx context.Context, quoteID string) (*models.QuoteRequest, error)
	ListBySellerID(ctx context.Context, sellerID string) ([]*models.QuoteRequest, error)
}
