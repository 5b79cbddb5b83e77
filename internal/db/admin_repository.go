package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradebridge-backend/internal/models"
)

const adminsCollection = "admins"

type firestoreAdminRepository struct {
	client *firestore.Client
}

// NewFirestoreAdminRepository creates a Firestore-backed AdminRepository.
func NewFirestoreAdminRepository(client *firestore.Client) AdminRepository {
	return &firestoreAdminRepository{client: client}
}

func (r *firestoreAdminRepository) GetByID(ctx context.Context, uid string) (*models.AdminProfile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty")
	}
	snap, err := r.client.Collection(adminsCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("admin '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin '%s': %w", uid, err)
	}
	var admin models.AdminProfile
	if err := snap.DataTo(&admin); err != nil {
		return nil, fmt.Errorf("failed to decode admin '%s': %w", uid, err)
	}
	admin.ID = snap.Ref.ID
	return &admin, nil
}

func (r *firestoreAdminRepository) Exists(ctx context.Context, uid string) (bool, error) {
	_, err := r.client.Collection(adminsCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin '%s': %w", uid, err)
	}
	return true, nil
}
