package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradebridge-backend/internal/cache"
	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/models"
)

// ErrRoleNotFound is returned when no role document exists for an account
// after the retry budget is exhausted. Fatal to the session: the caller
// must force sign-out.
var ErrRoleNotFound = errors.New("role could not be determined")

const (
	defaultRoleRetries    = 3
	defaultRoleRetryDelay = time.Second
)

type roleService struct {
	sellers db.SellerRepository
	buyers  db.BuyerRepository
	admins  db.AdminRepository
	cache   cache.RoleCache
	logger  *zap.Logger

	retries    int
	retryDelay time.Duration
}

// NewRoleService creates a RoleService with the default retry budget
// (3 attempts, 1s apart).
func NewRoleService(sellers db.SellerRepository, buyers db.BuyerRepository, admins db.AdminRepository, roleCache cache.RoleCache, logger *zap.Logger) RoleService {
	return &roleService{
		sellers:    sellers,
		buyers:     buyers,
		admins:     admins,
		cache:      roleCache,
		logger:     logger,
		retries:    defaultRoleRetries,
		retryDelay: defaultRoleRetryDelay,
	}
}

// NewRoleServiceWithRetry allows tuning the retry budget. Used by tests and
// by callers that are not on the login path.
func NewRoleServiceWithRetry(sellers db.SellerRepository, buyers db.BuyerRepository, admins db.AdminRepository, roleCache cache.RoleCache, logger *zap.Logger, retries int, delay time.Duration) RoleService {
	return &roleService{
		sellers:    sellers,
		buyers:     buyers,
		admins:     admins,
		cache:      roleCache,
		logger:     logger,
		retries:    retries,
		retryDelay: delay,
	}
}

// Resolve probes seller -> buyer -> admin and returns the first hit. The
// order is load-bearing: a malformed dataset with documents in two
// collections resolves to the higher-priority role.
func (s *roleService) Resolve(ctx context.Context, uid string) (models.Role, error) {
	if uid == "" {
		return models.RoleNone, errors.New("uid cannot be empty")
	}

	if role, ok := s.cache.Get(ctx, uid); ok {
		return role, nil
	}

	role, err := s.probe(ctx, uid)
	if err != nil {
		return models.RoleNone, err
	}
	if role != models.RoleNone {
		s.cache.Set(ctx, uid, role)
	}
	return role, nil
}

func (s *roleService) probe(ctx context.Context, uid string) (models.Role, error) {
	probes := []struct {
		role   models.Role
		exists func(context.Context, string) (bool, error)
	}{
		{models.RoleSeller, s.sellers.Exists},
		{models.RoleBuyer, s.buyers.Exists},
		{models.RoleAdmin, s.admins.Exists},
	}
	for _, p := range probes {
		found, err := p.exists(ctx, uid)
		if err != nil {
			return models.RoleNone, fmt.Errorf("role probe (%s) failed for '%s': %w", p.role, uid, err)
		}
		if found {
			return p.role, nil
		}
	}
	return models.RoleNone, nil
}

// ResolveWithRetry re-runs the probe sequence with a fixed inter-attempt
// delay. Immediately after registration the role document write and this
// read may race across request contexts; the retry window absorbs that.
func (s *roleService) ResolveWithRetry(ctx context.Context, uid string) (models.Role, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		role, err := s.Resolve(ctx, uid)
		if err != nil {
			lastErr = err
		} else if role != models.RoleNone {
			return role, nil
		}

		if attempt < s.retries {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return models.RoleNone, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		s.logger.Warn("role resolution exhausted retries with errors",
			zap.String("uid", uid), zap.Error(lastErr))
	}
	return models.RoleNone, ErrRoleNotFound
}

func (s *roleService) Invalidate(ctx context.Context, uid string) {
	s.cache.Invalidate(ctx, uid)
}
