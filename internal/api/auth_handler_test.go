package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/api"
	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRegistration struct {
	registerFn func(models.RegisterRequest) (*core.RegistrationResult, error)
}

func (f *fakeRegistration) Register(_ context.Context, req models.RegisterRequest) (*core.RegistrationResult, error) {
	return f.registerFn(req)
}
func (f *fakeRegistration) ResendVerification(context.Context, string) error { return nil }
func (f *fakeRegistration) VerificationStatus(context.Context, string) (bool, time.Time, error) {
	return false, time.Time{}, nil
}

type fakeRoles struct {
	role models.Role
	err  error
}

func (f *fakeRoles) Resolve(context.Context, string) (models.Role, error) {
	return f.role, f.err
}
func (f *fakeRoles) ResolveWithRetry(context.Context, string) (models.Role, error) {
	if f.err != nil {
		return models.RoleNone, f.err
	}
	return f.role, nil
}
func (f *fakeRoles) Invalidate(context.Context, string) {}

type fakeTokens struct {
	signInErr  error
	confirmErr error
	resetErr   error
	sendErr    error
}

func (f *fakeTokens) SignInWithPassword(_ context.Context, email, _ string) (*identity.SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &identity.SignInResult{UID: "u1", Email: email, IDToken: "id-token"}, nil
}
func (f *fakeTokens) ConfirmEmailVerification(context.Context, string) error { return f.confirmErr }
func (f *fakeTokens) VerifyResetCode(context.Context, string) (string, error) {
	return "someone@example.com", f.resetErr
}
func (f *fakeTokens) ConfirmPasswordReset(context.Context, string, string) error { return f.resetErr }
func (f *fakeTokens) SendPasswordReset(context.Context, string) error            { return f.sendErr }

func authRouter(reg core.RegistrationService, roles core.RoleService, tokens identity.Tokens) *gin.Engine {
	h := api.NewAuthHandler(reg, roles, tokens, zap.NewNop())
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/admin-login", h.AdminLogin)
	r.POST("/auth/action", h.HandleActionCode)
	r.POST("/auth/password-reset", h.RequestPasswordReset)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const registerBody = `{
	"role": "buyer",
	"email": "dana@example.com",
	"password": "s3cret-pw",
	"confirmPassword": "s3cret-pw",
	"acceptedTerms": true,
	"displayName": "Dana"
}`

func TestRegisterReturnsCreated(t *testing.T) {
	reg := &fakeRegistration{registerFn: func(req models.RegisterRequest) (*core.RegistrationResult, error) {
		return &core.RegistrationResult{UID: "u1", Role: req.Role, VerifyBy: time.Now().Add(24 * time.Hour)}, nil
	}}
	r := authRouter(reg, &fakeRoles{}, &fakeTokens{})

	w := post(r, "/auth/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"role":"buyer"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	reg := &fakeRegistration{registerFn: func(models.RegisterRequest) (*core.RegistrationResult, error) {
		return nil, core.ErrEmailAlreadyRegistered
	}}
	r := authRouter(reg, &fakeRoles{}, &fakeTokens{})

	if w := post(r, "/auth/register", registerBody); w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestRegisterMalformedPayload(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})
	if w := post(r, "/auth/register", `{"email": "not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{role: models.RoleBuyer}, &fakeTokens{})

	w := post(r, "/auth/login", `{"email":"dana@example.com","password":"s3cret-pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"redirect":"/buyer/dashboard"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestLoginWithoutRoleForcesSignOut(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{err: core.ErrRoleNotFound}, &fakeTokens{})

	w := post(r, "/auth/login", `{"email":"dana@example.com","password":"s3cret-pw"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{signInErr: identity.ErrInvalidCredentials})

	w := post(r, "/auth/login", `{"email":"dana@example.com","password":"wrong-pass"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAdminLoginRejectsOtherRoles(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{role: models.RoleSeller}, &fakeTokens{})

	w := post(r, "/auth/admin-login", `{"email":"vendor@example.com","password":"s3cret-pw"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	// The rejection must not reveal which role was found.
	if strings.Contains(w.Body.String(), "seller") {
		t.Fatalf("body leaks role: %s", w.Body.String())
	}
}

func TestAdminLoginAcceptsAdmin(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{role: models.RoleAdmin}, &fakeTokens{})

	w := post(r, "/auth/admin-login", `{"email":"root@example.com","password":"s3cret-pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"redirect":"/admin/dashboard"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestActionCodeRequiresModeAndCode(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})

	for _, body := range []string{`{}`, `{"mode":"verifyEmail"}`, `{"oobCode":"abc"}`} {
		if w := post(r, "/auth/action", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestActionCodeUnsupportedMode(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})
	if w := post(r, "/auth/action", `{"mode":"recoverEmail","oobCode":"abc"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestActionCodeExpired(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{confirmErr: identity.ErrCodeExpired})

	w := post(r, "/auth/action", `{"mode":"verifyEmail","oobCode":"old-code"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "expired") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestActionCodeVerifyEmailSucceeds(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})
	if w := post(r, "/auth/action", `{"mode":"verifyEmail","oobCode":"good-code"}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestActionCodeResetPasswordTooShort(t *testing.T) {
	r := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})
	w := post(r, "/auth/action", `{"mode":"resetPassword","oobCode":"c","newPassword":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPasswordResetNeverRevealsAccountExistence(t *testing.T) {
	known := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{})
	unknown := authRouter(&fakeRegistration{}, &fakeRoles{}, &fakeTokens{sendErr: identity.ErrEmailNotFound})

	wKnown := post(known, "/auth/password-reset", `{"email":"dana@example.com"}`)
	wUnknown := post(unknown, "/auth/password-reset", `{"email":"nobody@example.com"}`)

	if wKnown.Code != http.StatusOK || wUnknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d / %d, want 200 / 200", wKnown.Code, wUnknown.Code)
	}
	if wKnown.Body.String() != wUnknown.Body.String() {
		t.Fatalf("responses differ:\n%s\n%s", wKnown.Body.String(), wUnknown.Body.String())
	}
}
