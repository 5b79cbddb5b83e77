package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradebridge-backend/internal/models"
)

const quotesCollection = "quoteRequests"

type firestoreQuoteRepository struct {
	client *firestore.Client
}

// NewFirestoreQuoteRepository creates a Firestore-backed QuoteRepository.
func NewFirestoreQuoteRepository(client *firestore.Client) QuoteRepository {
	return &firestoreQuoteRepository{client: client}
}

// Create writes a quote request under its pre-assigned ID. Quote requests
// are never updated afterwards.
func (r *firestoreQuoteRepository) Create(ctx context.Context, quote *models.QuoteRequest) error {
	if quote.ID == "" {
		return errors.New("quote ID cannot be empty")
	}
	if _, err := r.client.Collection(quotesCollection).Doc(quote.ID).Create(ctx, quote); err != nil {
		return fmt.Errorf("failed to create quote request '%s': %w", quote.ID, err)
	}
	return nil
}

func (r *firestoreQuoteRepository) GetByID(ctx context.Context, quoteID string) (*models.QuoteRequest, error) {
	if quoteID == "" {
		return nil, errors.New("quoteID cannot be empty")
	}
	snap, err := r.client.Collection(quotesCollection).Doc(quoteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("quote request '%s': %w", quoteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quote request '%s': %w", quoteID, err)
	}
	var quote models.QuoteRequest
	if err := snap.DataTo(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote request '%s': %w", quoteID, err)
	}
	quote.ID = snap.Ref.ID
	return &quote, nil
}

func (r *firestoreQuoteRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*models.QuoteRequest, error) {
	if sellerID == "" {
		return nil, errors.New("sellerID cannot be empty")
	}
	iter := r.client.Collection(quotesCollection).
		Where("sellerId", "==", sellerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var quotes []*models.QuoteRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate quote requests for seller '%s': %w", sellerID, err)
		}
		var quote models.QuoteRequest
		if err := doc.DataTo(&quote); err != nil {
			continue
		}
		quote.ID = doc.Ref.ID
		quotes = append(quotes, &quote)
	}
	return quotes, nil
}
