package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/api"
	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

type fakeBilling struct {
	checkoutURL string
	checkoutErr error
	portalURL   string
	portalErr   error
	webhookErr  error

	webhookPayloads [][]byte
}

func (f *fakeBilling) CreateCheckoutSession(_ context.Context, _ string, _ models.Role, p core.CheckoutParams) (string, error) {
	if p.SuccessURL == "" || p.CancelURL == "" {
		return "", core.ErrMissingRedirectURLs
	}
	return f.checkoutURL, f.checkoutErr
}

func (f *fakeBilling) CreatePortalSession(context.Context, string, models.Role) (string, error) {
	return f.portalURL, f.portalErr
}

func (f *fakeBilling) HandleWebhook(_ context.Context, payload []byte, _ string) error {
	f.webhookPayloads = append(f.webhookPayloads, payload)
	return f.webhookErr
}

// asRole stands in for the auth middleware on authenticated billing routes.
func asRole(uid string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, uid)
		c.Set(middleware.CtxUserRole, role)
	}
}

func billingRouter(billing core.BillingService, role models.Role) *gin.Engine {
	h := api.NewBillingHandler(billing, zap.NewNop())
	r := gin.New()
	r.POST("/billing/create-checkout-session", asRole("u1", role), h.CreateCheckoutSession)
	r.POST("/billing/create-portal-session", asRole("u1", role), h.CreatePortalSession)
	r.POST("/billing/webhooks/stripe", h.HandleWebhook)
	return r
}

func TestCheckoutSessionReturnsRedirectURL(t *testing.T) {
	billing := &fakeBilling{checkoutURL: "https://checkout.stripe.com/c/pay/cs_1"}
	r := billingRouter(billing, models.RoleSeller)

	w := post(r, "/billing/create-checkout-session", `{"success_url":"https://app/ok","cancel_url":"https://app/cancel"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "checkout.stripe.com") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestCheckoutSessionRequiresBothURLs(t *testing.T) {
	r := billingRouter(&fakeBilling{}, models.RoleSeller)

	w := post(r, "/billing/create-checkout-session", `{"success_url":"https://app/ok"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "cancel_url") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestPortalSessionWithoutCustomer(t *testing.T) {
	r := billingRouter(&fakeBilling{portalErr: core.ErrNoStripeCustomer}, models.RoleBuyer)

	w := post(r, "/billing/create-portal-session", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPortalSessionWithoutProfile(t *testing.T) {
	r := billingRouter(&fakeBilling{portalErr: core.ErrProfileNotFound}, models.RoleBuyer)

	w := post(r, "/billing/create-portal-session", `{}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestWebhookBadSignatureIsRejected(t *testing.T) {
	billing := &fakeBilling{webhookErr: core.ErrWebhookSignature}
	r := billingRouter(billing, models.RoleNone)

	req := httptest.NewRequest(http.MethodPost, "/billing/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhookAcknowledgesVerifiedEvents(t *testing.T) {
	billing := &fakeBilling{}
	r := billingRouter(billing, models.RoleNone)

	body := `{"id":"evt_1","type":"customer.subscription.updated"}`
	req := httptest.NewRequest(http.MethodPost, "/billing/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	// The raw bytes must reach the service untouched for signature
	// verification.
	if len(billing.webhookPayloads) != 1 || string(billing.webhookPayloads[0]) != body {
		t.Fatalf("payloads = %q", billing.webhookPayloads)
	}
}
