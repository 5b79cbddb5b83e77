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

const buyersCollection = "buyers"

type firestoreBuyerRepository struct {
	client *firestore.Client
}

// NewFirestoreBuyerRepository creates a Firestore-backed BuyerRepository.
func NewFirestoreBuyerRepository(client *firestore.Client) BuyerRepository {
	return &firestoreBuyerRepository{client: client}
}

func (r *firestoreBuyerRepository) Create(ctx context.Context, buyer *models.BuyerProfile) error {
	if buyer.ID == "" {
		return errors.New("buyer ID cannot be empty")
	}
	_, err := r.client.Collection(buyersCollection).Doc(buyer.ID).Create(ctx, buyer)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("buyer '%s' already exists: %w", buyer.ID, err)
		}
		return fmt.Errorf("failed to create buyer '%s': %w", buyer.ID, err)
	}
	return nil
}

func (r *firestoreBuyerRepository) GetByID(ctx context.Context, uid string) (*models.BuyerProfile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty")
	}
	snap, err := r.client.Collection(buyersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("buyer '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get buyer '%s': %w", uid, err)
	}
	var buyer models.BuyerProfile
	if err := snap.DataTo(&buyer); err != nil {
		return nil, fmt.Errorf("failed to decode buyer '%s': %w", uid, err)
	}
	buyer.ID = snap.Ref.ID
	return &buyer, nil
}

func (r *firestoreBuyerRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.BuyerProfile, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty")
	}
	iter := r.client.Collection(buyersCollection).
		Where("stripeCustomerId", "==", customerID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("buyer with customer '%s': %w", customerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query buyers by customer '%s': %w", customerID, err)
	}
	var buyer models.BuyerProfile
	if err := doc.DataTo(&buyer); err != nil {
		return nil, fmt.Errorf("failed to decode buyer '%s': %w", doc.Ref.ID, err)
	}
	buyer.ID = doc.Ref.ID
	return &buyer, nil
}

func (r *firestoreBuyerRepository) Exists(ctx context.Context, uid string) (bool, error) {
	_, err := r.client.Collection(buyersCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check buyer '%s': %w", uid, err)
	}
	return true, nil
}

func (r *firestoreBuyerRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.client.Collection(buyersCollection).Doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete buyer '%s': %w", uid, err)
	}
	return nil
}

func (r *firestoreBuyerRepository) UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
	if _, err := r.client.Collection(buyersCollection).Doc(uid).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("buyer '%s': %w", uid, ErrNotFound)
		}
		return fmt.Errorf("failed to update buyer '%s': %w", uid, err)
	}
	return nil
}

func (r *firestoreBuyerRepository) ApplyCheckout(ctx context.Context, uid, customerID, subscriptionID string, eventAt time.Time) error {
	fields := map[string]interface{}{
		"stripeCustomerId":   customerID,
		"lastBillingEventAt": eventAt,
	}
	if subscriptionID != "" {
		fields["stripeSubscriptionId"] = subscriptionID
	}
	return r.UpdateFields(ctx, uid, fields)
}

func (r *firestoreBuyerRepository) ApplySubscriptionStatus(ctx context.Context, uid, subStatus string, verified bool, eventAt time.Time) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"isVerified":               verified,
		"stripeSubscriptionStatus": subStatus,
		"lastBillingEventAt":       eventAt,
	})
}

func (r *firestoreBuyerRepository) AddSavedSeller(ctx context.Context, uid, sellerID string) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"savedSellerIds": firestore.ArrayUnion(sellerID),
	})
}

func (r *firestoreBuyerRepository) RemoveSavedSeller(ctx context.Context, uid, sellerID string) error {
	return r.UpdateFields(ctx, uid, map[string]interface{}{
		"savedSellerIds": firestore.ArrayRemove(sellerID),
	})
}
