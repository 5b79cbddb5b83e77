package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/events"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/models"
)

const reaperPageSize = 1000

type reaperService struct {
	admin     identity.Admin
	sellers   db.SellerRepository
	buyers    db.BuyerRepository
	roles     RoleService
	publisher events.Publisher
	logger    *zap.Logger

	allowlist map[string]struct{}
	maxAge    time.Duration
	now       func() time.Time
}

// NewReaperService builds the unverified-account reaper. allowlist holds
// administrative emails that are never deleted.
func NewReaperService(
	admin identity.Admin,
	sellers db.SellerRepository,
	buyers db.BuyerRepository,
	roles RoleService,
	publisher events.Publisher,
	logger *zap.Logger,
	allowlist []string,
	maxAge time.Duration,
) ReaperService {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, email := range allowlist {
		allowed[strings.ToLower(email)] = struct{}{}
	}
	return &reaperService{
		admin:     admin,
		sellers:   sellers,
		buyers:    buyers,
		roles:     roles,
		publisher: publisher,
		logger:    logger,
		allowlist: allowed,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Run enumerates all accounts page by page and deletes the ones that are
// unverified past the age threshold and not allow-listed. Deletions within
// a page fan out concurrently; there is no rollback of partial progress.
func (s *reaperService) Run(ctx context.Context) (*ReapSummary, error) {
	summary := &ReapSummary{}
	cutoff := s.now().UTC().Add(-s.maxAge)

	pageToken := ""
	for {
		page, err := s.admin.ListAccounts(ctx, pageToken, reaperPageSize)
		if err != nil {
			return summary, err
		}

		var stale []identity.Account
		for _, acct := range page.Accounts {
			summary.Scanned++
			if s.shouldReap(acct, cutoff) {
				stale = append(stale, acct)
			}
		}
		summary.Matched += len(stale)

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, acct := range stale {
			wg.Add(1)
			go func(acct identity.Account) {
				defer wg.Done()
				if s.reapAccount(ctx, acct) {
					mu.Lock()
					summary.Deleted++
					mu.Unlock()
				} else {
					mu.Lock()
					summary.Failures++
					mu.Unlock()
				}
			}(acct)
		}
		wg.Wait()

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	s.logger.Info("reaper run complete",
		zap.Int("scanned", summary.Scanned),
		zap.Int("matched", summary.Matched),
		zap.Int("deleted", summary.Deleted),
		zap.Int("failures", summary.Failures))
	return summary, nil
}

func (s *reaperService) shouldReap(acct identity.Account, cutoff time.Time) bool {
	if acct.EmailVerified {
		return false
	}
	if _, allowed := s.allowlist[strings.ToLower(acct.Email)]; allowed {
		return false
	}
	return !acct.CreatedAt.IsZero() && acct.CreatedAt.Before(cutoff)
}

// reapAccount deletes the provider account and any same-UID role document
// in the seller and buyer collections. Admin documents are never touched:
// admins are presumed pre-verified or allow-listed. An existence check runs
// before each document delete so genuine failures log distinctly from the
// normal absent case.
func (s *reaperService) reapAccount(ctx context.Context, acct identity.Account) bool {
	if err := s.admin.DeleteAccount(ctx, acct.UID); err != nil {
		s.logger.Error("failed to delete stale account", zap.String("uid", acct.UID), zap.Error(err))
		return false
	}

	s.deleteRoleDoc(ctx, acct.UID, "seller", s.sellers.Exists, s.sellers.Delete)
	s.deleteRoleDoc(ctx, acct.UID, "buyer", s.buyers.Exists, s.buyers.Delete)

	s.roles.Invalidate(ctx, acct.UID)
	if err := s.publisher.Publish(ctx, events.KeyAccountReaped, acct.UID, string(models.RoleNone), acct.Email); err != nil {
		s.logger.Warn("failed to publish reap event", zap.String("uid", acct.UID), zap.Error(err))
	}
	return true
}

func (s *reaperService) deleteRoleDoc(
	ctx context.Context,
	uid, kind string,
	exists func(context.Context, string) (bool, error),
	del func(context.Context, string) error,
) {
	found, err := exists(ctx, uid)
	if err != nil {
		s.logger.Error("reaper existence check failed",
			zap.String("uid", uid), zap.String("collection", kind), zap.Error(err))
		return
	}
	if !found {
		return
	}
	if err := del(ctx, uid); err != nil {
		// The account is already gone; a failure here leaves a permanent
		// orphan document, so it must be visible in the logs.
		s.logger.Error("reaper failed to delete role document",
			zap.String("uid", uid), zap.String("collection", kind), zap.Error(err))
	}
}
