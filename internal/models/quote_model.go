package models

import "time"

// GeneralInquiryProductID is the sentinel product ID for quote requests that
// target a seller rather than a specific listing.
const GeneralInquiryProductID = "general"

// QuoteRequest is an immutable request-for-quote submitted by a buyer or an
// anonymous visitor. There is no update or delete lifecycle.
type QuoteRequest struct {
	ID         string    `json:"id" firestore:"-"`
	BuyerName  string    `json:"buyerName" firestore:"buyerName"`
	BuyerEmail string    `json:"buyerEmail" firestore:"buyerEmail"`
	ProductID  string    `json:"productId" firestore:"productId"`
	SellerID   string    `json:"sellerId" firestore:"sellerId"`
	Quantity   int       `json:"quantity" firestore:"quantity"`
	Details    string    `json:"details,omitempty" firestore:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
}
