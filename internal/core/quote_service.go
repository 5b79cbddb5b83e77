package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/models"
)

// Quote errors.
var (
	ErrQuoteNotFound     = errors.New("quote request not found")
	ErrNotQuoteRecipient = errors.New("quote request targets another seller")
	ErrInvalidQuote      = errors.New("invalid quote request")
)

type quoteService struct {
	quotes   db.QuoteRepository
	sellers  db.SellerRepository
	products db.ProductRepository
	logger   *zap.Logger
}

// NewQuoteService creates the quote-request service.
func NewQuoteService(quotes db.QuoteRepository, sellers db.SellerRepository, products db.ProductRepository, logger *zap.Logger) QuoteService {
	return &quoteService{quotes: quotes, sellers: sellers, products: products, logger: logger}
}

// Create submits a quote request. Anonymous visitors may submit; the only
// requirements are a real target seller and, when a specific product is
// named, that the product belongs to that seller.
func (s *quoteService) Create(ctx context.Context, req models.CreateQuoteRequest) (*models.QuoteRequest, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidQuote)
	}

	if found, err := s.sellers.Exists(ctx, req.SellerID); err != nil {
		return nil, fmt.Errorf("failed to check seller '%s': %w", req.SellerID, err)
	} else if !found {
		return nil, fmt.Errorf("%w: unknown seller", ErrInvalidQuote)
	}

	if req.ProductID != models.GeneralInquiryProductID {
		product, err := s.products.GetByID(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown product", ErrInvalidQuote)
			}
			return nil, err
		}
		if product.SellerID != req.SellerID {
			return nil, fmt.Errorf("%w: product does not belong to seller", ErrInvalidQuote)
		}
	}

	quote := &models.QuoteRequest{
		ID:         uuid.NewString(),
		BuyerName:  req.BuyerName,
		BuyerEmail: req.BuyerEmail,
		ProductID:  req.ProductID,
		SellerID:   req.SellerID,
		Quantity:   req.Quantity,
		Details:    req.Details,
	}
	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// GetByID returns a quote request to its target seller only.
func (s *quoteService) GetByID(ctx context.Context, sellerID, quoteID string) (*models.QuoteRequest, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrQuoteNotFound, quoteID)
		}
		return nil, err
	}
	if quote.SellerID != sellerID {
		return nil, ErrNotQuoteRecipient
	}
	return quote, nil
}

func (s *quoteService) ListForSeller(ctx context.Context, sellerID string) ([]*models.QuoteRequest, error) {
	return s.quotes.ListBySellerID(ctx, sellerID)
}
