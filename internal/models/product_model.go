package models

import "time"

// ProductCategory is the closed set of listing categories.
type ProductCategory string

const (
	CategoryRawMaterials ProductCategory = "raw-materials"
	CategoryComponents   ProductCategory = "components"
	CategoryFinished     ProductCategory = "finished-goods"
	CategoryPackaging    ProductCategory = "packaging"
	CategoryEquipment    ProductCategory = "equipment"
)

// ValidCategory reports whether c is a known product category.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryRawMaterials, CategoryComponents, CategoryFinished, CategoryPackaging, CategoryEquipment:
		return true
	}
	return false
}

// ProductSpecs is the free-form specification block attached to a listing.
type ProductSpecs struct {
	Type    string `json:"type,omitempty" firestore:"type,omitempty"`
	Length  string `json:"length,omitempty" firestore:"length,omitempty"`
	Color   string `json:"color,omitempty" firestore:"color,omitempty"`
	Texture string `json:"texture,omitempty" firestore:"texture,omitempty"`
	Origin  string `json:"origin,omitempty" firestore:"origin,omitempty"`
}

// Product is a marketplace listing owned by a seller via SellerID.
type Product struct {
	ID          string          `json:"id" firestore:"-"`
	Name        string          `json:"name" firestore:"name"`
	Description string          `json:"description" firestore:"description"`
	Price       float64         `json:"price" firestore:"price"`
	SellerID    string          `json:"sellerId" firestore:"sellerId"`
	Category    ProductCategory `json:"category" firestore:"category"`
	ImageURLs   []string        `json:"imageUrls" firestore:"imageUrls"`
	Specs       ProductSpecs    `json:"specs" firestore:"specs"`
	CreatedAt   time.Time       `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time       `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
