// Package auth provides authentication using the Firebase Admin SDK.
// The verified UID is the owner identity for all profile operations.
package auth

import (
	"context"
)

// Claims represents the decoded JWT claims from Firebase Auth
type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// TokenVerifier verifies Firebase ID tokens
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Claims, error)
}
