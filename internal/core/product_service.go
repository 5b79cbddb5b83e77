package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/models"
)

// Product errors.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrNotProductOwner   = errors.New("product belongs to another seller")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidCategory   = errors.New("unknown product category")
	ErrNonPositivePrice  = errors.New("price must be greater than zero")
	ErrSellerNotVerified = errors.New("seller is not verified")
)

type productService struct {
	products db.ProductRepository
	sellers  db.SellerRepository
	logger   *zap.Logger
}

// NewProductService creates the listing service.
func NewProductService(products db.ProductRepository, sellers db.SellerRepository, logger *zap.Logger) ProductService {
	return &productService{products: products, sellers: sellers, logger: logger}
}

// Create adds a listing for a verified seller and appends its ID to the
// seller's ordered productIds.
func (s *productService) Create(ctx context.Context, sellerID string, req models.CreateProductRequest) (*models.Product, error) {
	if req.Price <= 0 {
		return nil, ErrNonPositivePrice
	}
	if !models.ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	seller, err := s.sellers.GetByID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller '%s': %w", sellerID, err)
	}
	if !seller.IsVerified {
		return nil, ErrSellerNotVerified
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SellerID:    sellerID,
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
		Specs:       req.Specs,
	}
	productID, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := s.sellers.AddProductID(ctx, sellerID, productID); err != nil {
		// The listing exists; the back-reference is best effort.
		s.logger.Error("failed to append product to seller",
			zap.String("sellerId", sellerID), zap.String("productId", productID), zap.Error(err))
	}
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListBySeller(ctx context.Context, sellerID string) ([]*models.Product, error) {
	return s.products.ListBySellerID(ctx, sellerID)
}

func (s *productService) List(ctx context.Context, limit int, startAfter string) ([]*models.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.products.List(ctx, limit, startAfter)
}

func (s *productService) Update(ctx context.Context, sellerID, productID string, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, ErrNonPositivePrice
		}
		fields["price"] = *req.Price
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *req.Category)
		}
		fields["category"] = *req.Category
	}
	if req.ImageURLs != nil {
		fields["imageUrls"] = *req.ImageURLs
	}
	if req.Specs != nil {
		fields["specs"] = *req.Specs
	}
	if len(fields) == 0 {
		return product, nil
	}

	if err := s.products.UpdateFields(ctx, productID, fields); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, productID)
}

func (s *productService) Delete(ctx context.Context, sellerID, productID string) error {
	if _, err := s.ownedProduct(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	if err := s.sellers.RemoveProductID(ctx, sellerID, productID); err != nil {
		s.logger.Error("failed to remove product from seller",
			zap.String("sellerId", sellerID), zap.String("productId", productID), zap.Error(err))
	}
	return nil
}

func (s *productService) ownedProduct(ctx context.Context, sellerID, productID string) (*models.Product, error) {
	product, err := s.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, ErrNotProductOwner
	}
	return product, nil
}
