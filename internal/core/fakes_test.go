package core_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/models"
)

// In-memory stand-ins for the Firestore repositories and the identity
// provider. Shared across the service tests in this package.

type fakeSellerRepo struct {
	mu      sync.Mutex
	sellers map[string]*models.SellerProfile

	createErr error
	existsErr error
	// existsMisses makes the first N Exists calls report not-found even
	// when the document is present, to simulate the read racing a write.
	existsMisses int
	existsCalls  int
	deleted      []string
	lastFields   map[string]interface{}
}

func newFakeSellerRepo() *fakeSellerRepo {
	return &fakeSellerRepo{sellers: map[string]*models.SellerProfile{}}
}

func (f *fakeSellerRepo) Create(_ context.Context, seller *models.SellerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *seller
	f.sellers[seller.ID] = &cp
	return nil
}

func (f *fakeSellerRepo) GetByID(_ context.Context, uid string) (*models.SellerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seller, ok := f.sellers[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *seller
	return &cp, nil
}

func (f *fakeSellerRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*models.SellerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seller := range f.sellers {
		if seller.StripeCustomerID == customerID {
			cp := *seller
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeSellerRepo) Exists(_ context.Context, uid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.existsMisses > 0 {
		f.existsMisses--
		return false, nil
	}
	_, ok := f.sellers[uid]
	return ok, nil
}

func (f *fakeSellerRepo) Delete(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sellers, uid)
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeSellerRepo) UpdateFields(_ context.Context, uid string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sellers[uid]; !ok {
		return db.ErrNotFound
	}
	f.lastFields = fields
	return nil
}

func (f *fakeSellerRepo) ApplyCheckout(_ context.Context, uid, customerID string, eventAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seller, ok := f.sellers[uid]
	if !ok {
		return db.ErrNotFound
	}
	seller.IsVerified = true
	seller.StripeCustomerID = customerID
	seller.LastBillingEventAt = eventAt
	return nil
}

func (f *fakeSellerRepo) ApplySubscriptionStatus(_ context.Context, uid, status string, verified bool, eventAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seller, ok := f.sellers[uid]
	if !ok {
		return db.ErrNotFound
	}
	seller.SubscriptionStatus = status
	seller.IsVerified = verified
	seller.LastBillingEventAt = eventAt
	return nil
}

func (f *fakeSellerRepo) AddProductID(_ context.Context, uid, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seller, ok := f.sellers[uid]
	if !ok {
		return db.ErrNotFound
	}
	seller.ProductIDs = append(seller.ProductIDs, productID)
	return nil
}

func (f *fakeSellerRepo) RemoveProductID(_ context.Context, uid, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	seller, ok := f.sellers[uid]
	if !ok {
		return db.ErrNotFound
	}
	out := seller.ProductIDs[:0]
	for _, id := range seller.ProductIDs {
		if id != productID {
			out = append(out, id)
		}
	}
	seller.ProductIDs = out
	return nil
}

type fakeBuyerRepo struct {
	mu     sync.Mutex
	buyers map[string]*models.BuyerProfile

	createErr error
	deleted   []string
	saved     map[string][]string
}

func newFakeBuyerRepo() *fakeBuyerRepo {
	return &fakeBuyerRepo{buyers: map[string]*models.BuyerProfile{}, saved: map[string][]string{}}
}

func (f *fakeBuyerRepo) Create(_ context.Context, buyer *models.BuyerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *buyer
	f.buyers[buyer.ID] = &cp
	return nil
}

func (f *fakeBuyerRepo) GetByID(_ context.Context, uid string) (*models.BuyerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buyer, ok := f.buyers[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *buyer
	return &cp, nil
}

func (f *fakeBuyerRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*models.BuyerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, buyer := range f.buyers {
		if buyer.StripeCustomerID == customerID {
			cp := *buyer
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeBuyerRepo) Exists(_ context.Context, uid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buyers[uid]
	return ok, nil
}

func (f *fakeBuyerRepo) Delete(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.buyers, uid)
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeBuyerRepo) UpdateFields(_ context.Context, uid string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buyers[uid]; !ok {
		return db.ErrNotFound
	}
	return nil
}

func (f *fakeBuyerRepo) ApplyCheckout(_ context.Context, uid, customerID, subscriptionID string, eventAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buyer, ok := f.buyers[uid]
	if !ok {
		return db.ErrNotFound
	}
	buyer.StripeCustomerID = customerID
	buyer.StripeSubscriptionID = subscriptionID
	buyer.LastBillingEventAt = eventAt
	return nil
}

func (f *fakeBuyerRepo) ApplySubscriptionStatus(_ context.Context, uid, status string, verified bool, eventAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buyer, ok := f.buyers[uid]
	if !ok {
		return db.ErrNotFound
	}
	buyer.SubscriptionStatus = status
	buyer.IsVerified = verified
	buyer.LastBillingEventAt = eventAt
	return nil
}

func (f *fakeBuyerRepo) AddSavedSeller(_ context.Context, uid, sellerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[uid] = append(f.saved[uid], sellerID)
	return nil
}

func (f *fakeBuyerRepo) RemoveSavedSeller(_ context.Context, uid, sellerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.saved[uid][:0]
	for _, id := range f.saved[uid] {
		if id != sellerID {
			out = append(out, id)
		}
	}
	f.saved[uid] = out
	return nil
}

type fakeAdminRepo struct {
	admins map[string]*models.AdminProfile
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{admins: map[string]*models.AdminProfile{}}
}

func (f *fakeAdminRepo) GetByID(_ context.Context, uid string) (*models.AdminProfile, error) {
	admin, ok := f.admins[uid]
	if !ok {
		return nil, db.ErrNotFound
	}
	return admin, nil
}

func (f *fakeAdminRepo) Exists(_ context.Context, uid string) (bool, error) {
	_, ok := f.admins[uid]
	return ok, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*models.Product
	nextID   int

	lastListLimit int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*models.Product{}}
}

func (f *fakeProductRepo) Create(_ context.Context, product *models.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("prod-%d", f.nextID)
	cp := *product
	cp.ID = id
	f.products[id] = &cp
	product.ID = id
	return id, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *product
	return &cp, nil
}

func (f *fakeProductRepo) ListBySellerID(_ context.Context, sellerID string) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Product
	for _, product := range f.products {
		if product.SellerID == sellerID {
			cp := *product
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProductRepo) List(_ context.Context, limit int, startAfter string) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListLimit = limit
	var out []*models.Product
	for _, product := range f.products {
		cp := *product
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProductRepo) UpdateFields(_ context.Context, productID string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return db.ErrNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			product.Name = value.(string)
		case "description":
			product.Description = value.(string)
		case "price":
			product.Price = value.(float64)
		case "category":
			product.Category = value.(models.ProductCategory)
		case "imageUrls":
			product.ImageURLs = value.([]string)
		case "specs":
			product.Specs = value.(models.ProductSpecs)
		}
	}
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, productID)
	return nil
}

type fakeQuoteRepo struct {
	mu     sync.Mutex
	quotes map[string]*models.QuoteRequest
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: map[string]*models.QuoteRequest{}}
}

func (f *fakeQuoteRepo) Create(_ context.Context, quote *models.QuoteRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *quote
	f.quotes[quote.ID] = &cp
	return nil
}

func (f *fakeQuoteRepo) GetByID(_ context.Context, quoteID string) (*models.QuoteRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[quoteID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *quote
	return &cp, nil
}

func (f *fakeQuoteRepo) ListBySellerID(_ context.Context, sellerID string) ([]*models.QuoteRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.QuoteRequest
	for _, quote := range f.quotes {
		if quote.SellerID == sellerID {
			cp := *quote
			out = append(out, &cp)
		}
	}
	return out, nil
}

// errEmailExists is what the fake identity provider wraps duplicate-email
// failures in.
var errEmailExists = errors.New("email already exists")

type fakeIdentityAdmin struct {
	mu       sync.Mutex
	accounts map[string]*identity.Account
	nextUID  int

	// pageSize overrides the caller's page size so pagination paths can be
	// exercised with small datasets.
	pageSize     int
	createErr    error
	linkErr      error
	deleteErrFor map[string]error
	deleted      []string

	// listSnapshot freezes the listing order for one pagination pass, so
	// deletions between pages cannot shift the index-based page tokens.
	listSnapshot []identity.Account
}

func newFakeIdentityAdmin() *fakeIdentityAdmin {
	return &fakeIdentityAdmin{accounts: map[string]*identity.Account{}, deleteErrFor: map[string]error{}}
}

func (f *fakeIdentityAdmin) addAccount(uid, email string, verified bool, createdAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[uid] = &identity.Account{UID: uid, Email: email, EmailVerified: verified, CreatedAt: createdAt}
}

func (f *fakeIdentityAdmin) CreateAccount(_ context.Context, email, password, displayName string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, acct := range f.accounts {
		if acct.Email == email {
			return nil, errEmailExists
		}
	}
	f.nextUID++
	acct := &identity.Account{
		UID:       fmt.Sprintf("uid-%d", f.nextUID),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	f.accounts[acct.UID] = acct
	return acct, nil
}

func (f *fakeIdentityAdmin) GetAccount(_ context.Context, uid string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[uid]
	if !ok {
		return nil, errors.New("no such account")
	}
	cp := *acct
	return &cp, nil
}

func (f *fakeIdentityAdmin) DeleteAccount(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.deleteErrFor[uid]; ok {
		return err
	}
	delete(f.accounts, uid)
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeIdentityAdmin) ListAccounts(_ context.Context, pageToken string, pageSize int) (*identity.AccountPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageSize > 0 {
		pageSize = f.pageSize
	}

	if pageToken == "" {
		uids := make([]string, 0, len(f.accounts))
		for uid := range f.accounts {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		f.listSnapshot = f.listSnapshot[:0]
		for _, uid := range uids {
			f.listSnapshot = append(f.listSnapshot, *f.accounts[uid])
		}
	}

	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := start + pageSize
	if end > len(f.listSnapshot) {
		end = len(f.listSnapshot)
	}

	page := &identity.AccountPage{Accounts: f.listSnapshot[start:end]}
	if end < len(f.listSnapshot) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeIdentityAdmin) EmailVerificationLink(_ context.Context, email string) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "https://app.example.com/auth/action?mode=verifyEmail&oobCode=code-" + email, nil
}

func (f *fakeIdentityAdmin) IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, errEmailExists)
}

type countingRoleCache struct {
	mu          sync.Mutex
	roles       map[string]models.Role
	sets        int
	invalidated []string
}

func newCountingRoleCache() *countingRoleCache {
	return &countingRoleCache{roles: map[string]models.Role{}}
}

func (c *countingRoleCache) Get(_ context.Context, uid string) (models.Role, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	role, ok := c.roles[uid]
	return role, ok
}

func (c *countingRoleCache) Set(_ context.Context, uid string, role models.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[uid] = role
	c.sets++
}

func (c *countingRoleCache) Invalidate(_ context.Context, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.roles, uid)
	c.invalidated = append(c.invalidated, uid)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	key string
	uid string
}

func (p *recordingPublisher) Publish(_ context.Context, key, uid, role, detail string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: key, uid: uid})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.key
	}
	return out
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []string
	links []string
}

func (m *recordingMailer) SendVerificationEmail(recipient, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipient)
	m.links = append(m.links, link)
	return nil
}
