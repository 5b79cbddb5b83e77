package core

import (
	"context"
	"errors"
	"fmt"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/models"
)

// ErrProfileNotFound is returned when the caller has no role document.
var ErrProfileNotFound = errors.New("profile not found")

type profileService struct {
	sellers db.SellerRepository
	buyers  db.BuyerRepository
	admins  db.AdminRepository
	roles   RoleService
}

// NewProfileService creates the profile read/update service.
func NewProfileService(sellers db.SellerRepository, buyers db.BuyerRepository, admins db.AdminRepository, roles RoleService) ProfileService {
	return &profileService{sellers: sellers, buyers: buyers, admins: admins, roles: roles}
}

// Get resolves the caller's role and returns the matching profile document.
func (s *profileService) Get(ctx context.Context, uid string) (models.Role, interface{}, error) {
	role, err := s.roles.Resolve(ctx, uid)
	if err != nil {
		return models.RoleNone, nil, err
	}
	switch role {
	case models.RoleSeller:
		seller, err := s.sellers.GetByID(ctx, uid)
		return role, seller, err
	case models.RoleBuyer:
		buyer, err := s.buyers.GetByID(ctx, uid)
		return role, buyer, err
	case models.RoleAdmin:
		admin, err := s.admins.GetByID(ctx, uid)
		return role, admin, err
	default:
		return models.RoleNone, nil, ErrProfileNotFound
	}
}

// Update applies the provided mutable fields to the caller's role document.
func (s *profileService) Update(ctx context.Context, uid string, req models.UpdateProfileRequest) error {
	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		fields["displayName"] = *req.DisplayName
	}
	if req.CompanyName != nil {
		fields["companyName"] = *req.CompanyName
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		fields["avatarUrl"] = *req.AvatarURL
	}
	if req.Phone != nil {
		fields["contact.phone"] = *req.Phone
	}
	if req.Website != nil {
		fields["contact.website"] = *req.Website
	}
	if len(fields) == 0 {
		return nil
	}

	role, err := s.roles.Resolve(ctx, uid)
	if err != nil {
		return err
	}
	switch role {
	case models.RoleSeller:
		return s.sellers.UpdateFields(ctx, uid, fields)
	case models.RoleBuyer:
		return s.buyers.UpdateFields(ctx, uid, fields)
	case models.RoleAdmin:
		return fmt.Errorf("%w: admin profiles are managed out of band", ErrProfileNotFound)
	default:
		return ErrProfileNotFound
	}
}

// SaveSeller adds a seller to the buyer's saved set. Idempotent by virtue
// of the underlying array-union write.
func (s *profileService) SaveSeller(ctx context.Context, buyerID, sellerID string) error {
	if found, err := s.sellers.Exists(ctx, sellerID); err != nil {
		return fmt.Errorf("failed to check seller '%s': %w", sellerID, err)
	} else if !found {
		return fmt.Errorf("%w: seller %s", ErrProfileNotFound, sellerID)
	}
	return s.buyers.AddSavedSeller(ctx, buyerID, sellerID)
}

func (s *profileService) UnsaveSeller(ctx context.Context, buyerID, sellerID string) error {
	return s.buyers.RemoveSavedSeller(ctx, buyerID, sellerID)
}
