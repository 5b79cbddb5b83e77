package models

import "time"

// ContactInfo is the public contact block shared by seller and buyer profiles.
type ContactInfo struct {
	Email   string `json:"email" firestore:"email"`
	Phone   string `json:"phone,omitempty" firestore:"phone,omitempty"`
	Website string `json:"website,omitempty" firestore:"website,omitempty"`
}

// SellerProfile is a seller's role document. The document ID is the
// Firebase Auth UID of the owning account.
type SellerProfile struct {
	ID                 string      `json:"id" firestore:"-"`
	DisplayName        string      `json:"displayName" firestore:"displayName"`
	CompanyName        string      `json:"companyName" firestore:"companyName"`
	Location           string      `json:"location,omitempty" firestore:"location,omitempty"`
	Bio                string      `json:"bio,omitempty" firestore:"bio,omitempty"`
	AvatarURL          string      `json:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	Contact            ContactInfo `json:"contact" firestore:"contact"`
	ProductIDs         []string    `json:"productIds" firestore:"productIds"`
	IsVerified         bool        `json:"isVerified" firestore:"isVerified"`
	StripeCustomerID   string      `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	SubscriptionStatus string      `json:"stripeSubscriptionStatus,omitempty" firestore:"stripeSubscriptionStatus,omitempty"`
	// LastBillingEventAt guards against out-of-order webhook delivery:
	// billing updates carrying an older event timestamp are skipped.
	LastBillingEventAt time.Time `json:"lastBillingEventAt,omitempty" firestore:"lastBillingEventAt,omitempty"`
	MemberSince        time.Time `json:"memberSince" firestore:"memberSince,serverTimestamp"`
	UpdatedAt          time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
