package profile

import (
	"context"
)

// Repository defines the interface for profile storage operations.
// The store is the authority for username uniqueness: Create and
// Update fail with ErrUsernameTaken when the requested handle is
// reserved by another owner, regardless of any earlier availability
// check.
type Repository interface {
	// Create creates the profile for its owner, atomically reserving
	// the username.
	//
	// Returns:
	//   - ErrUsernameTaken if the username is reserved by another owner
	//   - Error if the Firestore operation fails
	Create(ctx context.Context, p Profile) error

	// Get retrieves a profile by owner UID.
	//
	// Returns:
	//   - Pointer to the profile (nil if not found)
	//   - Error if the Firestore operation fails (nil for not found)
	Get(ctx context.Context, ownerID string) (*Profile, error)

	// GetByUsername retrieves a profile by its normalized username.
	//
	// Returns:
	//   - Pointer to the profile (nil if not found)
	//   - Error if the Firestore operation fails (nil for not found)
	GetByUsername(ctx context.Context, username string) (*Profile, error)

	// GetByStripeCustomerID retrieves a profile by Stripe customer ID.
	//
	// Returns:
	//   - Pointer to the profile (nil if not found)
	//   - Error if the Firestore operation fails (nil for not found)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error)

	// IsUsernameAvailable reports whether a normalized username is free.
	// A reservation held by excludeOwnerID does not count as taken.
	IsUsernameAvailable(ctx context.Context, username string, excludeOwnerID string) (bool, error)

	// Update merges the set fields into the owner's profile and removes
	// the clear fields from the document. When set contains a new
	// username, the reservation is moved atomically and the old handle
	// becomes free.
	//
	// Returns:
	//   - ErrNotFound if the profile does not exist
	//   - ErrUsernameTaken if the new username is reserved by another owner
	//   - Error if the Firestore operation fails
	Update(ctx context.Context, ownerID string, set map[string]any, clear []string) error

	// SetPremium updates the premium flag and billing pointers.
	//
	// Returns:
	//   - ErrNotFound if the profile does not exist
	//   - Error if the Firestore operation fails
	SetPremium(ctx context.Context, ownerID string, premium bool, customerID, subscriptionID string) error

	// Delete removes the profile document and frees its username
	// reservation.
	//
	// Returns:
	//   - ErrNotFound if the profile does not exist
	//   - Error if the Firestore operation fails
	Delete(ctx context.Context, ownerID string) error
}
