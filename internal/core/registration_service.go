package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/events"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/models"
)

// Registration errors.
var (
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrInvalidRegistration    = errors.New("invalid registration request")
	ErrAccountNotFound        = errors.New("account not found")
)

// VerificationMailer sends the emailed verification link. Optional; when
// absent the link is only logged.
type VerificationMailer interface {
	SendVerificationEmail(recipient, link string) error
}

type registrationService struct {
	admin     identity.Admin
	sellers   db.SellerRepository
	buyers    db.BuyerRepository
	roles     RoleService
	mailer    VerificationMailer
	publisher events.Publisher
	logger    *zap.Logger

	// verifyWindow is how long an account may stay unverified before the
	// reaper may delete it.
	verifyWindow time.Duration
}

// NewRegistrationService wires the registration flow. mailer may be nil.
func NewRegistrationService(
	admin identity.Admin,
	sellers db.SellerRepository,
	buyers db.BuyerRepository,
	roles RoleService,
	mailer VerificationMailer,
	publisher events.Publisher,
	logger *zap.Logger,
	verifyWindow time.Duration,
) RegistrationService {
	return &registrationService{
		admin:        admin,
		sellers:      sellers,
		buyers:       buyers,
		roles:        roles,
		mailer:       mailer,
		publisher:    publisher,
		logger:       logger,
		verifyWindow: verifyWindow,
	}
}

func validateRegistration(req models.RegisterRequest) error {
	switch {
	case req.Role != models.RoleSeller && req.Role != models.RoleBuyer:
		return fmt.Errorf("%w: role must be seller or buyer", ErrInvalidRegistration)
	case req.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRegistration)
	case len(req.Password) < 8:
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidRegistration)
	case req.Password != req.ConfirmPassword:
		return fmt.Errorf("%w: passwords do not match", ErrInvalidRegistration)
	case !req.AcceptedTerms:
		return fmt.Errorf("%w: terms must be accepted", ErrInvalidRegistration)
	case req.DisplayName == "":
		return fmt.Errorf("%w: display name is required", ErrInvalidRegistration)
	case req.Role == models.RoleSeller && req.CompanyName == "":
		return fmt.Errorf("%w: company name is required for sellers", ErrInvalidRegistration)
	}
	return nil
}

// Register creates the identity-provider account and its role document in a
// single server-side operation. When the document write fails the account
// is deleted again, so no verified-but-roleless account can be left behind.
func (s *registrationService) Register(ctx context.Context, req models.RegisterRequest) (*RegistrationResult, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	acct, err := s.admin.CreateAccount(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		if s.admin.IsEmailAlreadyExists(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.writeRoleDocument(ctx, acct.UID, req); err != nil {
		// Compensating action: roll the account back so the failure is
		// clean instead of leaving an orphan for the reaper.
		if delErr := s.admin.DeleteAccount(ctx, acct.UID); delErr != nil {
			s.logger.Error("registration rollback failed; orphaned account remains until reaped",
				zap.String("uid", acct.UID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to write %s profile: %w", req.Role, err)
	}

	s.roles.Invalidate(ctx, acct.UID)
	s.dispatchVerificationEmail(ctx, req.Email)

	if err := s.publisher.Publish(ctx, events.KeyAccountRegistered, acct.UID, string(req.Role), req.Email); err != nil {
		s.logger.Warn("failed to publish registration event", zap.String("uid", acct.UID), zap.Error(err))
	}

	return &RegistrationResult{
		UID:      acct.UID,
		Role:     req.Role,
		VerifyBy: time.Now().UTC().Add(s.verifyWindow),
	}, nil
}

func (s *registrationService) writeRoleDocument(ctx context.Context, uid string, req models.RegisterRequest) error {
	contact := models.ContactInfo{
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
	}
	if req.Role == models.RoleSeller {
		return s.sellers.Create(ctx, &models.SellerProfile{
			ID:          uid,
			DisplayName: req.DisplayName,
			CompanyName: req.CompanyName,
			Location:    req.Location,
			Contact:     contact,
			ProductIDs:  []string{},
			IsVerified:  false,
		})
	}
	return s.buyers.Create(ctx, &models.BuyerProfile{
		ID:             uid,
		DisplayName:    req.DisplayName,
		CompanyName:    req.CompanyName,
		Location:       req.Location,
		Contact:        contact,
		SavedSellerIDs: []string{},
		IsVerified:     false,
	})
}

func (s *registrationService) dispatchVerificationEmail(ctx context.Context, email string) {
	link, err := s.admin.EmailVerificationLink(ctx, email)
	if err != nil {
		s.logger.Error("failed to generate verification link", zap.String("email", email), zap.Error(err))
		return
	}
	if s.mailer == nil {
		s.logger.Warn("no mailer configured; verification link not emailed", zap.String("email", email))
		return
	}
	if err := s.mailer.SendVerificationEmail(email, link); err != nil {
		s.logger.Error("failed to send verification email", zap.String("email", email), zap.Error(err))
	}
}

// ResendVerification re-sends the verification link. Rate limiting is the
// identity provider's concern, not ours.
func (s *registrationService) ResendVerification(ctx context.Context, uid string) error {
	acct, err := s.admin.GetAccount(ctx, uid)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, uid)
	}
	if acct.EmailVerified {
		return nil
	}
	s.dispatchVerificationEmail(ctx, acct.Email)
	return nil
}

// VerificationStatus re-fetches the account's verification flag. Backs the
// client's fixed-interval poll on the waiting page.
func (s *registrationService) VerificationStatus(ctx context.Context, uid string) (bool, time.Time, error) {
	acct, err := s.admin.GetAccount(ctx, uid)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%w: %s", ErrAccountNotFound, uid)
	}
	return acct.EmailVerified, acct.CreatedAt.Add(s.verifyWindow), nil
}
