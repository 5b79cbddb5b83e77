package api

import "time"

// ErrorResponse is the generic error envelope for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the generic success envelope for simple operations.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RegisterResponse reports a successful registration and the verification
// deadline the client must surface to the user.
type RegisterResponse struct {
	UID      string    `json:"uid"`
	Role     string    `json:"role"`
	VerifyBy time.Time `json:"verifyBy"`
	Message  string    `json:"message"`
}

// LoginResponse carries the session token and the role-derived destination.
type LoginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Redirect string `json:"redirect"`
}

// VerificationStatusResponse backs the waiting page's poll loop.
type VerificationStatusResponse struct {
	Verified bool      `json:"verified"`
	VerifyBy time.Time `json:"verifyBy"`
	Redirect string    `json:"redirect,omitempty"`
}

// CheckoutSessionRequest asks for a processor checkout redirect.
type CheckoutSessionRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// RedirectResponse wraps a processor-hosted URL the client must follow.
type RedirectResponse struct {
	URL string `json:"url"`
}

// ProfileResponse wraps a role document with its resolved role.
type ProfileResponse struct {
	Role    string      `json:"role"`
	Profile interface{} `json:"profile"`
}
