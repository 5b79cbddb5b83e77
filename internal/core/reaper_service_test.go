package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/models"
)

const reapMaxAge = 24 * time.Hour

type reaperFixture struct {
	admin     *fakeIdentityAdmin
	sellers   *fakeSellerRepo
	buyers    *fakeBuyerRepo
	cache     *countingRoleCache
	publisher *recordingPublisher
}

func newReaperFixture() *reaperFixture {
	return &reaperFixture{
		admin:     newFakeIdentityAdmin(),
		sellers:   newFakeSellerRepo(),
		buyers:    newFakeBuyerRepo(),
		cache:     newCountingRoleCache(),
		publisher: &recordingPublisher{},
	}
}

func (f *reaperFixture) service(allowlist []string) core.ReaperService {
	roles := core.NewRoleServiceWithRetry(f.sellers, f.buyers, newFakeAdminRepo(), f.cache, zap.NewNop(), 1, 0)
	return core.NewReaperService(f.admin, f.sellers, f.buyers, roles, f.publisher, zap.NewNop(), allowlist, reapMaxAge)
}

func TestReaperDeletesOnlyStaleUnverifiedAccounts(t *testing.T) {
	f := newReaperFixture()
	now := time.Now().UTC()
	f.admin.addAccount("stale", "stale@example.com", false, now.Add(-48*time.Hour))
	f.admin.addAccount("fresh", "fresh@example.com", false, now.Add(-time.Hour))
	f.admin.addAccount("verified", "verified@example.com", true, now.Add(-72*time.Hour))
	f.sellers.sellers["stale"] = &models.SellerProfile{ID: "stale"}

	summary, err := f.service(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scanned != 3 || summary.Matched != 1 || summary.Deleted != 1 || summary.Failures != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	if _, ok := f.admin.accounts["stale"]; ok {
		t.Fatal("stale account survived")
	}
	if _, ok := f.admin.accounts["fresh"]; !ok {
		t.Fatal("fresh account was deleted")
	}
	if _, ok := f.admin.accounts["verified"]; !ok {
		t.Fatal("verified account was deleted")
	}
	if _, ok := f.sellers.sellers["stale"]; ok {
		t.Fatal("stale seller document survived")
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "stale" {
		t.Fatalf("cache invalidations = %v", f.cache.invalidated)
	}
}

func TestReaperHonorsAllowlist(t *testing.T) {
	f := newReaperFixture()
	now := time.Now().UTC()
	f.admin.addAccount("svc", "Service-Account@Example.com", false, now.Add(-30*24*time.Hour))

	// Allow-list matching is case-insensitive.
	summary, err := f.service([]string{"service-account@example.com"}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Matched != 0 {
		t.Fatalf("allow-listed account matched: %+v", summary)
	}
	if _, ok := f.admin.accounts["svc"]; !ok {
		t.Fatal("allow-listed account was deleted")
	}
}

func TestReaperRemovesBuyerDocumentToo(t *testing.T) {
	f := newReaperFixture()
	f.admin.addAccount("b1", "b1@example.com", false, time.Now().UTC().Add(-48*time.Hour))
	f.buyers.buyers["b1"] = &models.BuyerProfile{ID: "b1"}

	if _, err := f.service(nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := f.buyers.buyers["b1"]; ok {
		t.Fatal("buyer document survived")
	}
}

func TestReaperAccountWithoutRoleDocument(t *testing.T) {
	f := newReaperFixture()
	f.admin.addAccount("bare", "bare@example.com", false, time.Now().UTC().Add(-48*time.Hour))

	summary, err := f.service(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Deleted != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	// No document existed, so nothing may have been deleted from the
	// role collections.
	if len(f.sellers.deleted) != 0 || len(f.buyers.deleted) != 0 {
		t.Fatalf("role deletes = %v / %v", f.sellers.deleted, f.buyers.deleted)
	}
}

func TestReaperCountsFailuresAndContinues(t *testing.T) {
	f := newReaperFixture()
	now := time.Now().UTC()
	f.admin.addAccount("ok", "ok@example.com", false, now.Add(-48*time.Hour))
	f.admin.addAccount("broken", "broken@example.com", false, now.Add(-48*time.Hour))
	f.admin.deleteErrFor["broken"] = errors.New("permission denied")

	summary, err := f.service(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Matched != 2 || summary.Deleted != 1 || summary.Failures != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, ok := f.admin.accounts["ok"]; ok {
		t.Fatal("healthy deletion did not happen")
	}
}

func TestReaperPaginatesThroughAllAccounts(t *testing.T) {
	f := newReaperFixture()
	f.admin.pageSize = 1
	now := time.Now().UTC()
	f.admin.addAccount("s1", "s1@example.com", false, now.Add(-48*time.Hour))
	f.admin.addAccount("s2", "s2@example.com", false, now.Add(-48*time.Hour))
	f.admin.addAccount("s3", "s3@example.com", true, now.Add(-48*time.Hour))

	summary, err := f.service(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scanned != 3 || summary.Deleted != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}
