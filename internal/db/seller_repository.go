package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradebridge-backend/internal/models"
)

const sellersCollection = "sellers"

// ErrNotFound is returned when a document does not exist. Absence is a
// normal negative signal for role probing, not a failure.
var ErrNotFound = errors.New("document not found")

type firestoreSellerRepository struct {
	client *firestore.Client
}

// NewFirestoreSellerRepository creates a Firestore-backed SellerRepository.
func NewFirestoreSellerRepository(client *firestore.Client) SellerRepository {
	return &firestoreSellerRepository{client: client}
}

// Create writes a new seller document keyed by the account UID.
func (r *firestoreSellerRepository) Create(ctx context.Context, seller *models.SellerProfile) error {
	if seller.ID == "" {
		return errors.New("seller ID cannot be empty")
	}
	_, err := r.client.Collection(sellersCollection).Doc(seller.ID).Create(ctx, seller)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("seller '%s' already exists: %w", seller.ID, err)
		}
		return fmt.Errorf("failed to create seller '%s': %w", seller.ID, err)
	}
	return nil
}

func (r *firestoreSellerRepository) GetByID(ctx context.Context, uid string) (*models.SellerProfile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty")
	}
	snap, err := r.client.Collection(sellersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("seller '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get seller '%s': %w", uid, err)
	}
	var seller models.SellerProfile
	if err := snap.DataTo(&seller); err != nil {
		return nil, fmt.Errorf("failed to decode seller '%s': %w", uid, err)
	}
	seller.ID = snap.Ref.ID
	return &seller, nil
}

// GetByStripeCustomerID looks up a seller by the stored processor customer
// identifier. This is a query, not a point lookup; zero matches map to
// ErrNotFound.
func (r *firestoreSellerRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.SellerProfile, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty")
	}
	iter := r.client.Collection(sellersCollection).
		Where("stripeCustomerId", "==", customerID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("seller with customer '%s': %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sellers by customer '%s': %w", customerID, err)
	}
	var seller models.SellerProfile
	if err := doc.DataTo(&seller); err != nil {
		return nil, fmt.Errorf("failed to decode seller '%s': %w", doc.Ref.ID, err)
	}
	seller.ID = doc.Ref.ID
	return &seller, nil
}

func (r *firestoreSellerRepository) Exists(ctx context.Context, uid string) (bool, error) {
	_, err := r.client.Collection(sellersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check seller '%s': %w", uid, err)
	}
	return true, nil
}

func (r *firestoreSellerRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.client.Collection(sellersCollection).Doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete seller '%s': %w", uid, err)
	}
	return nil
}

// UpdateFields performs a field-level overwrite of the named fields only.
// Writers never replace whole documents.
func (r *firestoreSellerRepository) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := r.client.Collection(sellersCollection).Doc(uid).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("seller '%s': %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update seller '%s': %w", uid, err)
	}
	return nil
}

func (r *firestoreSellerRepository) ApplyCheckout(ctx context.Context, uid, customerID string, eventAt time.Time) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"isVerified":         true,
		"stripeCustomerId":   customerID,
		"lastBillingEventAt": eventAt,
	})
}

func (r *firestoreSellerRepository) ApplySubscriptionStatus(ctx context.Context, uid, subStatus string, verified bool, eventAt time.Time) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"isVerified":               verified,
		"stripeSubscriptionStatus": subStatus,
		"lastBillingEventAt":       eventAt,
	})
}

func (r *firestoreSellerRepository) AddProductID(ctx context.Context, uid, productID string) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"productIds": firestore.ArrayUnion(productID),
	})
}

func (r *firestoreSellerRepository) RemoveProductID(ctx context.Context, uid, productID string) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"productIds": firestore.ArrayRemove(productID),
	})
}
