package models

// RegisterRequest is the payload for the single server-side registration
// endpoint. Account creation and the role document write happen in one
// request so there is no client-side hand-off state to lose.
type RegisterRequest struct {
	Role            Role   `json:"role" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	AcceptedTerms   bool   `json:"acceptedTerms"`
	DisplayName     string `json:"displayName" binding:"required"`
	CompanyName     string `json:"companyName,omitempty"`
	Location        string `json:"location,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Website         string `json:"website,omitempty"`
}

// LoginRequest carries email/password credentials for the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ActionCodeRequest is the payload for the emailed-link handler. Mode is the
// link's discriminator ("verifyEmail" or "resetPassword") and OobCode the
// opaque one-time code. NewPassword is only read for resetPassword.
type ActionCodeRequest struct {
	Mode        string `json:"mode"`
	OobCode     string `json:"oobCode"`
	NewPassword string `json:"newPassword,omitempty"`
}

// PasswordResetRequest asks for a reset email. The response never reveals
// whether the address has an account.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest updates the mutable profile fields. Pointers
// distinguish "clear this field" from "not provided".
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
	Location    *string `json:"location,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// CreateProductRequest is the payload for creating a listing.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       float64         `json:"price" binding:"required"`
	Category    ProductCategory `json:"category" binding:"required"`
	ImageURLs   []string        `json:"imageUrls,omitempty"`
	Specs       ProductSpecs    `json:"specs,omitempty"`
}

// UpdateProductRequest updates a listing; absent fields are left untouched.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *float64         `json:"price,omitempty"`
	Category    *ProductCategory `json:"category,omitempty"`
	ImageURLs   *[]string        `json:"imageUrls,omitempty"`
	Specs       *ProductSpecs    `json:"specs,omitempty"`
}

// CreateQuoteRequest submits a request-for-quote. ProductID may be the
// general-inquiry sentinel.
type CreateQuoteRequest struct {
	BuyerName  string `json:"buyerName" binding:"required"`
	BuyerEmail string `json:"buyerEmail" binding:"required,email"`
	ProductID  string `json:"productId" binding:"required"`
	SellerID   string `json:"sellerId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Details    string `json:"details,omitempty"`
}
