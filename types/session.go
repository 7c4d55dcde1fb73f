package types

import "time"

// Session is the currently authenticated identity.
// There is a single current session; it has no expiry and no refresh.
type Session struct {
	// User is the authenticated user at login time.
	User User `json:"user"`

	// Token is the bearer token issued at login.
	Token string `json:"token,omitempty"`

	// CreatedAt is the login time.
	CreatedAt time.Time `json:"created_at"`
}
