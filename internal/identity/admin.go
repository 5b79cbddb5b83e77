// Package identity wraps the two faces of the identity provider: the Admin
// SDK surface used server-side (account management, token verification,
// listing) and the end-user REST surface (password sign-in, action codes),
// which the Admin SDK deliberately does not expose.
package identity

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// Account is the provider-owned credential record, reduced to the fields
// the application reads.
type Account struct {
	UID           string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// AccountPage is one page of a paginated account listing.
type AccountPage struct {
	Accounts      []Account
	NextPageToken string
}

// Admin is the server-side account management surface. It is an interface so
// the reaper and registration flows can be tested without the live provider.
type Admin interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*Account, error)
	GetAccount(ctx context.Context, uid string) (*Account, error)
	DeleteAccount(ctx context.Context, uid string) error
	ListAccounts(ctx context.Context, pageToken string, pageSize int) (*AccountPage, error)
	EmailVerificationLink(ctx context.Context, email string) (string, error)
	IsEmailAlreadyExists(err error) bool
}

type firebaseAdmin struct {
	client *auth.Client
}

// NewFirebaseAdmin wraps a Firebase Auth client as an Admin.
func NewFirebaseAdmin(client *auth.Client) Admin {
	return &firebaseAdmin{client: client}
}

func (a *firebaseAdmin) CreateAccount(ctx context.Context, email, password, displayName string) (*Account, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName).
		EmailVerified(false)
	record, err := a.client.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	return accountFromRecord(record), nil
}

func (a *firebaseAdmin) GetAccount(ctx context.Context, uid string) (*Account, error) {
	record, err := a.client.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get account '%s': %w", uid, err)
	}
	return accountFromRecord(record), nil
}

func (a *firebaseAdmin) DeleteAccount(ctx context.Context, uid string) error {
	if err := a.client.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete account '%s': %w", uid, err)
	}
	return nil
}

// ListAccounts returns one page of accounts, following the provider's
// continuation token. pageSize is capped by the provider at 1000.
func (a *firebaseAdmin) ListAccounts(ctx context.Context, pageToken string, pageSize int) (*AccountPage, error) {
	it := a.client.Users(ctx, pageToken)
	pager := iterator.NewPager(it, pageSize, pageToken)

	var records []*auth.ExportedUserRecord
	nextToken, err := pager.NextPage(&records)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	page := &AccountPage{NextPageToken: nextToken}
	for _, record := range records {
		page.Accounts = append(page.Accounts, *accountFromRecord(record.UserRecord))
	}
	return page, nil
}

func (a *firebaseAdmin) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := a.client.EmailVerificationLink(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification link: %w", err)
	}
	return link, nil
}

func (a *firebaseAdmin) IsEmailAlreadyExists(err error) bool {
	return auth.IsEmailAlreadyExists(err)
}

func accountFromRecord(record *auth.UserRecord) *Account {
	acct := &Account{
		UID:           record.UID,
		Email:         record.Email,
		EmailVerified: record.EmailVerified,
	}
	if record.UserMetadata != nil {
		acct.CreatedAt = time.UnixMilli(record.UserMetadata.CreationTimestamp).UTC()
	}
	return acct
}
