// Package profile implements the digital business card profile:
// the entity, its Firestore persistence, and the upsert/resolve
// service that keeps usernames unique and derived assets current.
package profile

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/qrvisit/qrvisit/internal/template"
)

// Error definitions
var (
	// ErrUnauthenticated is returned when no owner identity is supplied
	ErrUnauthenticated = errors.New("owner identity required")

	// ErrInvalidUsername is returned when a username violates the format rules
	ErrInvalidUsername = errors.New("username must be 3-20 lowercase letters, digits, or underscores")

	// ErrInvalidFullName is returned when a profile is created without a name
	ErrInvalidFullName = errors.New("full name is required")

	// ErrInvalidTemplate is returned when an unknown template is supplied
	ErrInvalidTemplate = errors.New("unknown profile template")

	// ErrInvalidLink is returned when a social link URL is malformed
	ErrInvalidLink = errors.New("invalid social link")

	// ErrUsernameTaken is returned when the requested username belongs to another profile
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrAvatarUpload is returned when the avatar image could not be stored
	ErrAvatarUpload = errors.New("avatar upload failed")

	// ErrNotFound is returned when a profile is not found
	ErrNotFound = errors.New("profile not found")
)

// usernamePattern is the allowed username format after normalization
var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// Profile represents one user's public business card stored in Firestore.
// The document is keyed by the owner's UID; exactly one profile exists
// per owner.
type Profile struct {
	OwnerID        string            `firestore:"-" json:"ownerId"`
	Username       string            `firestore:"username" json:"username"`
	FullName       string            `firestore:"fullName" json:"fullName"`
	Bio            string            `firestore:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL      string            `firestore:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	QRCodeURL      string            `firestore:"qrCodeUrl,omitempty" json:"qrCodeUrl,omitempty"`
	Template       template.Type     `firestore:"template" json:"template"`
	Contact        *ContactInfo      `firestore:"contact,omitempty" json:"contact,omitempty"`
	Links          map[string]string `firestore:"links,omitempty" json:"links,omitempty"`
	PremiumSocials map[string]string `firestore:"premiumSocials,omitempty" json:"premiumSocials,omitempty"`
	Services       []ServiceItem     `firestore:"services,omitempty" json:"services,omitempty"`
	IsPremium      bool              `firestore:"isPremium" json:"isPremium"`

	// Billing pointers, managed by the billing webhook handler
	StripeCustomerID string `firestore:"stripeCustomerId,omitempty" json:"-"`
	SubscriptionID   string `firestore:"subscriptionId,omitempty" json:"-"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// ContactInfo holds optional contact details shown on the public page
type ContactInfo struct {
	Email   string `firestore:"email,omitempty" json:"email,omitempty"`
	Phone   string `firestore:"phone,omitempty" json:"phone,omitempty"`
	Address string `firestore:"address,omitempty" json:"address,omitempty"`
}

// Empty reports whether no contact field is set
func (c *ContactInfo) Empty() bool {
	return c == nil || (c.Email == "" && c.Phone == "" && c.Address == "")
}

// ServiceItem is one entry of the profile's services list
type ServiceItem struct {
	Title       string `firestore:"title" json:"title"`
	Description string `firestore:"description,omitempty" json:"description,omitempty"`
}

// NormalizeUsername canonicalizes a username candidate: trim and lowercase.
// Normalization is idempotent.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidUsername reports whether a normalized username satisfies the
// format rules (3-20 chars, lowercase alphanumerics and underscore)
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Copy creates a deep copy of the Profile to prevent mutation
func (p Profile) Copy() Profile {
	copied := p

	if p.Contact != nil {
		contact := *p.Contact
		copied.Contact = &contact
	}
	if p.Links != nil {
		copied.Links = make(map[string]string, len(p.Links))
		for k, v := range p.Links {
			copied.Links[k] = v
		}
	}
	if p.PremiumSocials != nil {
		copied.PremiumSocials = make(map[string]string, len(p.PremiumSocials))
		for k, v := range p.PremiumSocials {
			copied.PremiumSocials[k] = v
		}
	}
	if p.Services != nil {
		copied.Services = make([]ServiceItem, len(p.Services))
		copy(copied.Services, p.Services)
	}

	return copied
}
