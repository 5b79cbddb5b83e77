package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/events"
	"tradebridge-backend/internal/models"
)

// Billing errors.
var (
	ErrWebhookSignature       = errors.New("webhook signature verification failed")
	ErrMissingClientReference = errors.New("checkout event carries no client reference")
	ErrMissingRedirectURLs    = errors.New("success_url and cancel_url are required")
	ErrNoStripeCustomer       = errors.New("no payment customer on record")
	ErrStripeClient           = errors.New("payment provider error")
)

// BillingConfig carries the processor configuration for the service.
type BillingConfig struct {
	SecretKey     string
	WebhookSecret string
	SellerPriceID string
	BuyerPriceID  string
	PortalReturn  string
}

type billingService struct {
	cfg       BillingConfig
	sellers   db.SellerRepository
	buyers    db.BuyerRepository
	roles     RoleService
	publisher events.Publisher
	logger    *zap.Logger
}

// NewBillingService configures the Stripe client and returns the service.
func NewBillingService(cfg BillingConfig, sellers db.SellerRepository, buyers db.BuyerRepository, roles RoleService, publisher events.Publisher, logger *zap.Logger) BillingService {
	stripe.Key = cfg.SecretKey
	return &billingService{
		cfg:       cfg,
		sellers:   sellers,
		buyers:    buyers,
		roles:     roles,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateCheckoutSession creates a processor checkout session tagged with the
// caller's UID as the client reference. Sellers pay a one-time verification
// fee; buyers start a recurring subscription.
func (s *billingService) CreateCheckoutSession(ctx context.Context, uid string, role models.Role, p CheckoutParams) (string, error) {
	if p.SuccessURL == "" || p.CancelURL == "" {
		return "", ErrMissingRedirectURLs
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(uid),
	}
	params.Context = ctx

	switch role {
	case models.RoleSeller:
		seller, err := s.sellers.GetByID(ctx, uid)
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: seller %s", ErrProfileNotFound, uid)
		} else if err != nil {
			return "", fmt.Errorf("failed to load seller '%s': %w", uid, err)
		}
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.cfg.SellerPriceID),
			Quantity: stripe.Int64(1),
		}}
		if seller.StripeCustomerID != "" {
			params.Customer = stripe.String(seller.StripeCustomerID)
		} else {
			params.CustomerEmail = stripe.String(seller.Contact.Email)
		}
	case models.RoleBuyer:
		buyer, err := s.buyers.GetByID(ctx, uid)
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: buyer %s", ErrProfileNotFound, uid)
		} else if err != nil {
			return "", fmt.Errorf("failed to load buyer '%s': %w", uid, err)
		}
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.cfg.BuyerPriceID),
			Quantity: stripe.Int64(1),
		}}
		if buyer.StripeCustomerID != "" {
			params.Customer = stripe.String(buyer.StripeCustomerID)
		} else {
			params.CustomerEmail = stripe.String(buyer.Contact.Email)
		}
	default:
		return "", fmt.Errorf("%w: role %q cannot start checkout", ErrStripeClient, role)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("%w: checkout session has no URL", ErrStripeClient)
	}
	return sess.URL, nil
}

// CreatePortalSession returns a billing-portal redirect for an account that
// already has a processor customer on record.
func (s *billingService) CreatePortalSession(ctx context.Context, uid string, role models.Role) (string, error) {
	var customerID string
	switch role {
	case models.RoleSeller:
		seller, err := s.sellers.GetByID(ctx, uid)
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: seller %s", ErrProfileNotFound, uid)
		} else if err != nil {
			return "", fmt.Errorf("failed to load seller '%s': %w", uid, err)
		}
		customerID = seller.StripeCustomerID
	case models.RoleBuyer:
		buyer, err := s.buyers.GetByID(ctx, uid)
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: buyer %s", ErrProfileNotFound, uid)
		} else if err != nil {
			return "", fmt.Errorf("failed to load buyer '%s': %w", uid, err)
		}
		customerID = buyer.StripeCustomerID
	default:
		return "", ErrNoStripeCustomer
	}
	if customerID == "" {
		return "", ErrNoStripeCustomer
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.cfg.PortalReturn),
	}
	params.Context = ctx
	ps, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeClient, err)
	}
	return ps.URL, nil
}

// HandleWebhook verifies the processor's signature against the raw request
// bytes and dispatches the event. Signature and client-reference failures
// are the only errors returned; everything after verification is logged and
// swallowed so the endpoint can acknowledge with 200 and defeat the
// processor's retry loop (redelivery is handled by idempotent overwrites).
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, &event)
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		s.handleSubscriptionChanged(ctx, &event)
		return nil
	default:
		// Acknowledged, unprocessed.
		s.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		s.logger.Error("failed to decode checkout session event", zap.String("event", event.ID), zap.Error(err))
		return nil
	}

	uid := sess.ClientReferenceID
	if uid == "" {
		// Checkout sessions are always created with the account UID as the
		// client reference; its absence means the processor integration is
		// misconfigured, not that a retry would help.
		return ErrMissingClientReference
	}

	var customerID, subscriptionID string
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	eventAt := time.Unix(event.Created, 0).UTC()

	role, err := s.roles.Resolve(ctx, uid)
	if err != nil {
		s.logger.Error("checkout completed: role resolution failed", zap.String("uid", uid), zap.Error(err))
		return nil
	}

	switch role {
	case models.RoleSeller:
		if err := s.sellers.ApplyCheckout(ctx, uid, customerID, eventAt); err != nil {
			s.logger.Error("checkout completed: seller update failed", zap.String("uid", uid), zap.Error(err))
			return nil
		}
		if err := s.publisher.Publish(ctx, events.KeySellerVerified, uid, string(role), customerID); err != nil {
			s.logger.Warn("failed to publish seller verified event", zap.String("uid", uid), zap.Error(err))
		}
	case models.RoleBuyer:
		// Buyer verification follows the subscription lifecycle; checkout
		// only records the processor identifiers.
		if err := s.buyers.ApplyCheckout(ctx, uid, customerID, subscriptionID, eventAt); err != nil {
			s.logger.Error("checkout completed: buyer update failed", zap.String("uid", uid), zap.Error(err))
		}
	default:
		s.logger.Warn("checkout completed for unknown account", zap.String("uid", uid))
	}
	return nil
}

// handleSubscriptionChanged recomputes verification as a pure function of
// the latest subscription status: verified iff status == "active". This is
// what gives cancelled subscriptions their grace period.
func (s *billingService) handleSubscriptionChanged(ctx context.Context, event *stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		s.logger.Error("failed to decode subscription event", zap.String("event", event.ID), zap.Error(err))
		return
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		s.logger.Warn("subscription event without customer", zap.String("event", event.ID))
		return
	}

	customerID := sub.Customer.ID
	subStatus := string(sub.Status)
	if event.Type == stripe.EventTypeCustomerSubscriptionDeleted {
		subStatus = "canceled"
	}
	verified := subStatus == models.SubscriptionStatusActive
	eventAt := time.Unix(event.Created, 0).UTC()

	if buyer, err := s.buyers.GetByStripeCustomerID(ctx, customerID); err == nil {
		if skipStale(buyer.LastBillingEventAt, eventAt) {
			s.logger.Info("skipping stale subscription event",
				zap.String("uid", buyer.ID), zap.Time("eventAt", eventAt))
			return
		}
		if err := s.buyers.ApplySubscriptionStatus(ctx, buyer.ID, subStatus, verified, eventAt); err != nil {
			s.logger.Error("subscription update failed", zap.String("uid", buyer.ID), zap.Error(err))
			return
		}
		s.publishSubscriptionUpdated(ctx, buyer.ID, models.RoleBuyer, subStatus)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("buyer lookup by customer failed", zap.String("customer", customerID), zap.Error(err))
		return
	}

	if seller, err := s.sellers.GetByStripeCustomerID(ctx, customerID); err == nil {
		if skipStale(seller.LastBillingEventAt, eventAt) {
			s.logger.Info("skipping stale subscription event",
				zap.String("uid", seller.ID), zap.Time("eventAt", eventAt))
			return
		}
		if err := s.sellers.ApplySubscriptionStatus(ctx, seller.ID, subStatus, verified, eventAt); err != nil {
			s.logger.Error("subscription update failed", zap.String("uid", seller.ID), zap.Error(err))
			return
		}
		s.publishSubscriptionUpdated(ctx, seller.ID, models.RoleSeller, subStatus)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("seller lookup by customer failed", zap.String("customer", customerID), zap.Error(err))
		return
	}

	// No matching profile: log and skip, no retry.
	s.logger.Warn("subscription event for unknown customer", zap.String("customer", customerID))
}

// skipStale implements the monotonic-write guard: an event older than the
// last applied one must not regress the document.
func skipStale(lastApplied, eventAt time.Time) bool {
	return !lastApplied.IsZero() && eventAt.Before(lastApplied)
}

func (s *billingService) publishSubscriptionUpdated(ctx context.Context, uid string, role models.Role, subStatus string) {
	if err := s.publisher.Publish(ctx, events.KeySubscriptionUpdated, uid, string(role), subStatus); err != nil {
		s.logger.Warn("failed to publish subscription event", zap.String("uid", uid), zap.Error(err))
	}
}
