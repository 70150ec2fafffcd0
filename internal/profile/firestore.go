package profile

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qrvisit/qrvisit/internal/template"
)

const (
	// collectionName is the Firestore collection for profile documents,
	// keyed by owner UID
	collectionName = "users"

	// reservationCollection holds one reservation document per taken
	// username, keyed by the normalized username. Writing it inside the
	// same transaction as the profile write is what makes usernames
	// globally unique under concurrent claims.
	reservationCollection = "usernames"
)

// FirestoreRepository implements Repository using Firestore
type FirestoreRepository struct {
	client *firestore.Client
}

// Ensure FirestoreRepository implements Repository interface
var _ Repository = (*FirestoreRepository)(nil)

// NewFirestoreRepository creates a new FirestoreRepository
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{
		client: client,
	}
}

// Create creates the profile document and its username reservation in
// one transaction
//
// Parameters:
//   - ctx: Context for cancellation control
//   - p: Profile to create; Username must already be normalized
//
// Returns:
//   - ErrUsernameTaken if another owner holds the username
//   - Error if the Firestore operation fails
func (r *FirestoreRepository) Create(ctx context.Context, p Profile) error {
	profileRef := r.client.Collection(collectionName).Doc(p.OwnerID)
	reservationRef := r.client.Collection(reservationCollection).Doc(p.Username)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		reservation, err := tx.Get(reservationRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read username reservation: %w", err)
		}
		if reservation != nil && reservation.Exists() {
			if holder, _ := reservation.DataAt("uid"); holder != p.OwnerID {
				return ErrUsernameTaken
			}
		}

		if err := tx.Set(reservationRef, reservationData(p.OwnerID)); err != nil {
			return fmt.Errorf("failed to reserve username: %w", err)
		}
		if err := tx.Set(profileRef, profileToMap(p)); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

// Get retrieves a profile by owner UID
//
// Parameters:
//   - ctx: Context for cancellation control
//   - ownerID: Owner UID to retrieve
//
// Returns:
//   - Pointer to the profile (nil if not found)
//   - Error if the Firestore operation fails (nil for not found)
func (r *FirestoreRepository) Get(ctx context.Context, ownerID string) (*Profile, error) {
	doc, err := r.client.Collection(collectionName).Doc(ownerID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p := documentToProfile(doc)
	return &p, nil
}

// GetByUsername retrieves a profile by its normalized username
//
// Parameters:
//   - ctx: Context for cancellation control
//   - username: Normalized username to search for
//
// Returns:
//   - Pointer to the profile (nil if not found)
//   - Error if the Firestore operation fails (nil for not found)
func (r *FirestoreRepository) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	docs, err := r.client.Collection(collectionName).
		Where("username", "==", username).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by username: %w", err)
	}

	if len(docs) == 0 {
		return nil, nil
	}

	p := documentToProfile(docs[0])
	return &p, nil
}

// GetByStripeCustomerID retrieves a profile by Stripe customer ID
//
// Parameters:
//   - ctx: Context for cancellation control
//   - customerID: Stripe customer ID to search for
//
// Returns:
//   - Pointer to the profile (nil if not found)
//   - Error if the Firestore operation fails (nil for not found)
func (r *FirestoreRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error) {
	docs, err := r.client.Collection(collectionName).
		Where("stripeCustomerId", "==", customerID).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query profile by Stripe customer ID: %w", err)
	}

	if len(docs) == 0 {
		return nil, nil
	}

	p := documentToProfile(docs[0])
	return &p, nil
}

// IsUsernameAvailable reports whether a normalized username is free.
// The reservation document, not the profile collection, is consulted,
// so the answer matches what Create and Update will enforce.
func (r *FirestoreRepository) IsUsernameAvailable(ctx context.Context, username string, excludeOwnerID string) (bool, error) {
	doc, err := r.client.Collection(reservationCollection).Doc(username).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return true, nil
		}
		return false, fmt.Errorf("failed to check username availability: %w", err)
	}

	holder, _ := doc.DataAt("uid")
	if excludeOwnerID != "" && holder == excludeOwnerID {
		return true, nil
	}
	return false, nil
}

// Update merges set fields into the profile and deletes clear fields,
// moving the username reservation when the username changes
//
// Parameters:
//   - ctx: Context for cancellation control
//   - ownerID: Owner UID of the profile to update
//   - set: Field values to merge; "username" must be normalized
//   - clear: Field names to remove from the document
//
// Returns:
//   - ErrNotFound if the profile does not exist
//   - ErrUsernameTaken if the new username is held by another owner
//   - Error if the Firestore operation fails
func (r *FirestoreRepository) Update(ctx context.Context, ownerID string, set map[string]any, clear []string) error {
	profileRef := r.client.Collection(collectionName).Doc(ownerID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(profileRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}
		current := documentToProfile(doc)

		newUsername, _ := set["username"].(string)
		renaming := newUsername != "" && newUsername != current.Username

		if renaming {
			newRef := r.client.Collection(reservationCollection).Doc(newUsername)
			reservation, err := tx.Get(newRef)
			if err != nil && status.Code(err) != codes.NotFound {
				return fmt.Errorf("failed to read username reservation: %w", err)
			}
			if reservation != nil && reservation.Exists() {
				if holder, _ := reservation.DataAt("uid"); holder != ownerID {
					return ErrUsernameTaken
				}
			}

			if current.Username != "" {
				oldRef := r.client.Collection(reservationCollection).Doc(current.Username)
				if err := tx.Delete(oldRef); err != nil {
					return fmt.Errorf("failed to release username: %w", err)
				}
			}
			if err := tx.Set(newRef, reservationData(ownerID)); err != nil {
				return fmt.Errorf("failed to reserve username: %w", err)
			}
		}

		updates := make([]firestore.Update, 0, len(set)+len(clear)+1)
		for field, value := range set {
			updates = append(updates, firestore.Update{Path: field, Value: value})
		}
		for _, field := range clear {
			updates = append(updates, firestore.Update{Path: field, Value: firestore.Delete})
		}
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})

		if err := tx.Update(profileRef, updates); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
}

// SetPremium updates the premium flag and billing pointers
//
// Parameters:
//   - ctx: Context for cancellation control
//   - ownerID: Owner UID of the profile to update
//   - premium: New premium state
//   - customerID: Stripe customer ID (kept when empty)
//   - subscriptionID: Stripe subscription ID (cleared when empty)
//
// Returns:
//   - ErrNotFound if the profile does not exist
//   - Error if the Firestore operation fails
func (r *FirestoreRepository) SetPremium(ctx context.Context, ownerID string, premium bool, customerID, subscriptionID string) error {
	profileRef := r.client.Collection(collectionName).Doc(ownerID)

	_, err := profileRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check profile existence: %w", err)
	}

	updates := []firestore.Update{
		{Path: "isPremium", Value: premium},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if customerID != "" {
		updates = append(updates, firestore.Update{Path: "stripeCustomerId", Value: customerID})
	}
	if subscriptionID != "" {
		updates = append(updates, firestore.Update{Path: "subscriptionId", Value: subscriptionID})
	} else {
		updates = append(updates, firestore.Update{Path: "subscriptionId", Value: firestore.Delete})
	}

	if _, err := profileRef.Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update premium state: %w", err)
	}
	return nil
}

// Delete removes the profile document and its username reservation in
// one transaction
//
// Parameters:
//   - ctx: Context for cancellation control
//   - ownerID: Owner UID of the profile to delete
//
// Returns:
//   - ErrNotFound if the profile does not exist
//   - Error if the Firestore operation fails
func (r *FirestoreRepository) Delete(ctx context.Context, ownerID string) error {
	profileRef := r.client.Collection(collectionName).Doc(ownerID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(profileRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get profile: %w", err)
		}
		current := documentToProfile(doc)

		if current.Username != "" {
			reservationRef := r.client.Collection(reservationCollection).Doc(current.Username)
			if err := tx.Delete(reservationRef); err != nil {
				return fmt.Errorf("failed to release username: %w", err)
			}
		}
		if err := tx.Delete(profileRef); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		return nil
	})
}

// reservationData builds a username reservation document
func reservationData(ownerID string) map[string]any {
	return map[string]any{
		"uid":        ownerID,
		"reservedAt": time.Now().UTC(),
	}
}

// profileToMap converts a Profile to a map for Firestore storage.
// Empty optional fields are omitted so documents stay compact.
func profileToMap(p Profile) map[string]any {
	data := map[string]any{
		"username":  p.Username,
		"fullName":  p.FullName,
		"template":  string(p.Template),
		"isPremium": p.IsPremium,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}

	if p.Bio != "" {
		data["bio"] = p.Bio
	}
	if p.AvatarURL != "" {
		data["avatarUrl"] = p.AvatarURL
	}
	if p.QRCodeURL != "" {
		data["qrCodeUrl"] = p.QRCodeURL
	}
	if !p.Contact.Empty() {
		data["contact"] = contactToMap(*p.Contact)
	}
	if len(p.Links) > 0 {
		data["links"] = stringMapToAny(p.Links)
	}
	if len(p.PremiumSocials) > 0 {
		data["premiumSocials"] = stringMapToAny(p.PremiumSocials)
	}
	if len(p.Services) > 0 {
		services := make([]map[string]any, len(p.Services))
		for i, s := range p.Services {
			services[i] = serviceToMap(s)
		}
		data["services"] = services
	}
	if p.StripeCustomerID != "" {
		data["stripeCustomerId"] = p.StripeCustomerID
	}
	if p.SubscriptionID != "" {
		data["subscriptionId"] = p.SubscriptionID
	}

	return data
}

// contactToMap converts a ContactInfo to a map for Firestore storage
func contactToMap(c ContactInfo) map[string]any {
	data := map[string]any{}
	if c.Email != "" {
		data["email"] = c.Email
	}
	if c.Phone != "" {
		data["phone"] = c.Phone
	}
	if c.Address != "" {
		data["address"] = c.Address
	}
	return data
}

// serviceToMap converts a ServiceItem to a map for Firestore storage
func serviceToMap(s ServiceItem) map[string]any {
	data := map[string]any{
		"title": s.Title,
	}
	if s.Description != "" {
		data["description"] = s.Description
	}
	return data
}

// stringMapToAny widens a string map for Firestore storage
func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// documentToProfile converts a Firestore document to a Profile
func documentToProfile(doc *firestore.DocumentSnapshot) Profile {
	data := doc.Data()

	p := Profile{
		OwnerID: doc.Ref.ID,
	}

	if username, ok := data["username"].(string); ok {
		p.Username = username
	}
	if fullName, ok := data["fullName"].(string); ok {
		p.FullName = fullName
	}
	if bio, ok := data["bio"].(string); ok {
		p.Bio = bio
	}
	if avatarURL, ok := data["avatarUrl"].(string); ok {
		p.AvatarURL = avatarURL
	}
	if qrCodeURL, ok := data["qrCodeUrl"].(string); ok {
		p.QRCodeURL = qrCodeURL
	}
	if tmpl, ok := data["template"].(string); ok {
		p.Template = template.Normalize(template.Type(tmpl))
	} else {
		p.Template = template.Default
	}
	if contact, ok := data["contact"].(map[string]any); ok {
		p.Contact = mapToContact(contact)
	}
	if links, ok := data["links"].(map[string]any); ok {
		p.Links = anyMapToString(links)
	}
	if socials, ok := data["premiumSocials"].(map[string]any); ok {
		p.PremiumSocials = anyMapToString(socials)
	}
	if services, ok := data["services"].([]any); ok {
		p.Services = make([]ServiceItem, 0, len(services))
		for _, s := range services {
			if serviceMap, ok := s.(map[string]any); ok {
				p.Services = append(p.Services, mapToService(serviceMap))
			}
		}
	}
	if isPremium, ok := data["isPremium"].(bool); ok {
		p.IsPremium = isPremium
	}
	if customerID, ok := data["stripeCustomerId"].(string); ok {
		p.StripeCustomerID = customerID
	}
	if subscriptionID, ok := data["subscriptionId"].(string); ok {
		p.SubscriptionID = subscriptionID
	}
	if createdAt, ok := data["createdAt"].(time.Time); ok {
		p.CreatedAt = createdAt
	}
	if updatedAt, ok := data["updatedAt"].(time.Time); ok {
		p.UpdatedAt = updatedAt
	}

	return p
}

// mapToContact converts a map to a ContactInfo
func mapToContact(data map[string]any) *ContactInfo {
	c := &ContactInfo{}
	if email, ok := data["email"].(string); ok {
		c.Email = email
	}
	if phone, ok := data["phone"].(string); ok {
		c.Phone = phone
	}
	if address, ok := data["address"].(string); ok {
		c.Address = address
	}
	return c
}

// mapToService converts a map to a ServiceItem
func mapToService(data map[string]any) ServiceItem {
	s := ServiceItem{}
	if title, ok := data["title"].(string); ok {
		s.Title = title
	}
	if description, ok := data["description"].(string); ok {
		s.Description = description
	}
	return s
}

// anyMapToString narrows a Firestore map to string values, skipping
// entries of the wrong type
func anyMapToString(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
