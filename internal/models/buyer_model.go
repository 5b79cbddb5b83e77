package models

import "time"

// BuyerProfile is a buyer's role document, keyed by the account UID.
// Buyer verification follows the recurring subscription: it is recomputed
// from the latest subscription status on every billing event.
type BuyerProfile struct {
	ID                   string      `json:"id" firestore:"-"`
	DisplayName          string      `json:"displayName" firestore:"displayName"`
	CompanyName          string      `json:"companyName,omitempty" firestore:"companyName,omitempty"`
	Location             string      `json:"location,omitempty" firestore:"location,omitempty"`
	Bio                  string      `json:"bio,omitempty" firestore:"bio,omitempty"`
	AvatarURL            string      `json:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	Contact              ContactInfo `json:"contact" firestore:"contact"`
	SavedSellerIDs       []string    `json:"savedSellerIds" firestore:"savedSellerIds"`
	IsVerified           bool        `json:"isVerified" firestore:"isVerified"`
	StripeCustomerID     string      `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string      `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	SubscriptionStatus   string      `json:"stripeSubscriptionStatus,omitempty" firestore:"stripeSubscriptionStatus,omitempty"`
	LastBillingEventAt   time.Time   `json:"lastBillingEventAt,omitempty" firestore:"lastBillingEventAt,omitempty"`
	MemberSince          time.Time   `json:"memberSince" firestore:"memberSince,serverTimestamp"`
	UpdatedAt            time.Time   `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// SubscriptionStatusActive is the only processor status that grants
// verification. Cancellation keeps verification until the processor
// actually flips the status away from active.
const SubscriptionStatusActive = "active"
