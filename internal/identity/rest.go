package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// Errors surfaced by the end-user credential surface. Action-code errors are
// terminal for that code: the same code is never retried.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrCodeExpired        = errors.New("action code has expired")
	ErrCodeInvalid        = errors.New("action code is invalid or already used")
	ErrEmailNotFound      = errors.New("email not found")
)

// SignInResult is the outcome of a successful password sign-in.
type SignInResult struct {
	UID     string
	Email   string
	IDToken string
}

// Tokens is the end-user REST surface of the identity provider. Implemented
// over the Identity Toolkit HTTP API keyed by the project's web API key.
type Tokens interface {
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	ConfirmEmailVerification(ctx context.Context, oobCode string) error
	VerifyResetCode(ctx context.Context, oobCode string) (email string, err error)
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
	SendPasswordReset(ctx context.Context, email string) error
}

type restClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewRESTClient builds a Tokens client for the given web API key.
func NewRESTClient(apiKey string) Tokens {
	return &restClient{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type toolkitError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *restClient) post(ctx context.Context, action string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", action, err)
	}
	url := fmt.Sprintf("%s/accounts:%s?key=%s", c.endpoint, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider %s call failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var terr toolkitError
		if err := json.NewDecoder(resp.Body).Decode(&terr); err != nil {
			return fmt.Errorf("identity provider %s returned status %d", action, resp.StatusCode)
		}
		return classifyToolkitError(terr.Error.Message)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", action, err)
		}
	}
	return nil
}

// classifyToolkitError maps the provider's string codes onto the package's
// sentinel errors. Unknown codes pass through with the raw code attached.
func classifyToolkitError(code string) error {
	switch {
	case strings.HasPrefix(code, "EXPIRED_OOB_CODE"):
		return ErrCodeExpired
	case strings.HasPrefix(code, "INVALID_OOB_CODE"):
		return ErrCodeInvalid
	case strings.HasPrefix(code, "EMAIL_NOT_FOUND"):
		return ErrEmailNotFound
	case strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"):
		return ErrInvalidCredentials
	case strings.HasPrefix(code, "USER_DISABLED"):
		return ErrAccountDisabled
	default:
		return fmt.Errorf("identity provider error: %s", code)
	}
}

func (c *restClient) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	var out struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
		IDToken string `json:"idToken"`
	}
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	if err := c.post(ctx, "signInWithPassword", body, &out); err != nil {
		// The provider reports unknown emails distinctly, but a login
		// surface must not: collapse it into the credentials error.
		if errors.Is(err, ErrEmailNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &SignInResult{UID: out.LocalID, Email: out.Email, IDToken: out.IDToken}, nil
}

// ConfirmEmailVerification applies an emailed verification code.
func (c *restClient) ConfirmEmailVerification(ctx context.Context, oobCode string) error {
	return c.post(ctx, "update", map[string]string{"oobCode": oobCode}, nil)
}

// VerifyResetCode checks a password-reset code without consuming it and
// returns the email it was issued for.
func (c *restClient) VerifyResetCode(ctx context.Context, oobCode string) (string, error) {
	var out struct {
		Email string `json:"email"`
	}
	if err := c.post(ctx, "resetPassword", map[string]string{"oobCode": oobCode}, &out); err != nil {
		return "", err
	}
	return out.Email, nil
}

// ConfirmPasswordReset consumes a reset code and sets the new password.
func (c *restClient) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return c.post(ctx, "resetPassword", map[string]string{
		"oobCode":     oobCode,
		"newPassword": newPassword,
	}, nil)
}

// SendPasswordReset asks the provider to email a reset link. Callers must
// not surface ErrEmailNotFound to users (account enumeration).
func (c *restClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "sendOobCode", map[string]string{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}
