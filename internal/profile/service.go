package profile

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/qrvisit/qrvisit/internal/links"
	"github.com/qrvisit/qrvisit/internal/qr"
	"github.com/qrvisit/qrvisit/internal/storage"
	"github.com/qrvisit/qrvisit/internal/template"
)

// Form is the profile form submitted by an owner. Nil pointer or nil
// map/slice fields were omitted by the client and leave the stored
// value untouched; present-but-empty values clear the stored field.
type Form struct {
	Username       string            `json:"username"`
	FullName       string            `json:"fullName"`
	Bio            *string           `json:"bio,omitempty"`
	Template       string            `json:"template,omitempty"`
	Contact        *ContactInfo      `json:"contact,omitempty"`
	Links          map[string]string `json:"links,omitempty"`
	PremiumSocials map[string]string `json:"premiumSocials,omitempty"`
	Services       []ServiceItem     `json:"services,omitempty"`
	Avatar         *AvatarUpload     `json:"avatar,omitempty"`
}

// AvatarUpload is a raw avatar image payload
type AvatarUpload struct {
	Data        []byte `json:"data"`
	ContentType string `json:"contentType"`
}

// Service orchestrates profile writes and reads: username uniqueness,
// avatar and QR asset generation, and the public read path.
// All collaborators are injected; Service holds no global state.
type Service struct {
	repo     Repository
	uploader storage.Uploader
	encoder  qr.Encoder
	baseURL  string
}

// NewService creates a profile service
//
// Parameters:
//   - repo: Profile repository
//   - uploader: Object storage for avatar and QR assets
//   - encoder: QR code encoder
//   - baseURL: Public origin of profile pages (no trailing slash needed)
func NewService(repo Repository, uploader storage.Uploader, encoder qr.Encoder, baseURL string) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		encoder:  encoder,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// PublicURL returns the canonical public profile URL for a username.
// This exact string is what gets encoded into the QR image.
func (s *Service) PublicURL(username string) string {
	return s.baseURL + "/u/" + username
}

// Upsert creates or updates the owner's profile.
//
// The username is normalized and format-checked, availability is
// pre-checked before any side effect, the avatar (if supplied) is
// uploaded, and the QR code is regenerated whenever the public URL
// changes. The persisted document is re-read and returned so the
// caller observes server-computed fields.
//
// Returns:
//   - ErrUnauthenticated if ownerID is empty
//   - ErrInvalidUsername, ErrInvalidFullName, ErrInvalidTemplate,
//     ErrInvalidLink on malformed input (checked before any side effect)
//   - ErrUsernameTaken if another owner holds the username
//   - ErrAvatarUpload if the avatar could not be stored
//   - Error if a store operation fails
func (s *Service) Upsert(ctx context.Context, ownerID string, form Form) (*Profile, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	username := NormalizeUsername(form.Username)
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}

	existing, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	creating := existing == nil

	fullName := strings.TrimSpace(form.FullName)
	if creating && fullName == "" {
		return nil, ErrInvalidFullName
	}

	if form.Template != "" && !template.Valid(template.Type(form.Template)) {
		return nil, ErrInvalidTemplate
	}

	coreLinks := links.NormalizeCore(form.Links)
	if err := links.ValidateCore(coreLinks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	premiumSocials := links.NormalizePremium(form.PremiumSocials)

	// Availability pre-check keeps the common conflict from causing any
	// side effect; the repository remains the authority under races.
	available, err := s.repo.IsUsernameAvailable(ctx, username, ownerID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrUsernameTaken
	}

	var avatarURL string
	if form.Avatar != nil && len(form.Avatar.Data) > 0 {
		avatarURL, err = s.uploadAvatar(ctx, ownerID, form.Avatar)
		if err != nil {
			return nil, err
		}
	}

	// The QR image must decode to the current public URL, so it is
	// (re)generated on create and on every username change. Failure is
	// absorbed: a profile without a QR image beats a blocked upsert.
	needQR := creating || username != existing.Username
	var qrCodeURL string
	var qrOK bool
	if needQR {
		qrCodeURL, qrOK = s.refreshQRCode(ctx, ownerID, username)
	}

	if creating {
		now := time.Now().UTC()
		p := Profile{
			OwnerID:        ownerID,
			Username:       username,
			FullName:       fullName,
			Template:       template.Default,
			AvatarURL:      avatarURL,
			QRCodeURL:      qrCodeURL,
			Contact:        nil,
			Links:          coreLinks,
			PremiumSocials: premiumSocials,
			IsPremium:      false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if form.Bio != nil {
			p.Bio = strings.TrimSpace(*form.Bio)
		}
		if form.Template != "" {
			p.Template = template.Type(form.Template)
		}
		if contact := normalizeContact(form.Contact); contact != nil {
			p.Contact = contact
		}
		if services := normalizeServices(form.Services); services != nil {
			p.Services = services
		}

		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
	} else {
		set, clear := buildUpdate(form, username, fullName, coreLinks, premiumSocials)
		if avatarURL != "" {
			set["avatarUrl"] = avatarURL
		}
		if needQR {
			if qrOK {
				set["qrCodeUrl"] = qrCodeURL
			} else {
				// A stale image would decode to the old URL; drop it.
				clear = append(clear, "qrCodeUrl")
			}
		}

		if err := s.repo.Update(ctx, ownerID, set, clear); err != nil {
			return nil, err
		}
	}

	return s.repo.Get(ctx, ownerID)
}

// IsUsernameAvailable reports whether a username can be claimed.
// A malformed candidate is reported unavailable rather than rejected.
// excludeOwnerID lets an owner keep or re-case their own handle.
func (s *Service) IsUsernameAvailable(ctx context.Context, username string, excludeOwnerID string) (bool, error) {
	normalized := NormalizeUsername(username)
	if !ValidUsername(normalized) {
		return false, nil
	}
	return s.repo.IsUsernameAvailable(ctx, normalized, excludeOwnerID)
}

// GetPublicProfile resolves a profile by username for public rendering.
// A miss is a nil profile, not an error.
func (s *Service) GetPublicProfile(ctx context.Context, username string) (*Profile, error) {
	normalized := NormalizeUsername(username)
	if normalized == "" {
		return nil, nil
	}
	return s.repo.GetByUsername(ctx, normalized)
}

// Get retrieves the owner's own profile (nil if none exists yet)
func (s *Service) Get(ctx context.Context, ownerID string) (*Profile, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.Get(ctx, ownerID)
}

// RegenerateQRCode re-renders and re-uploads the QR image for the
// owner's current username and persists the new URL. Unlike the upsert
// fallback, an explicit regeneration request fails loudly.
//
// Returns:
//   - The new QR code URL
//   - ErrNotFound if the owner has no profile
//   - Error if encoding, upload, or the store write fails
func (s *Service) RegenerateQRCode(ctx context.Context, ownerID string) (string, error) {
	if ownerID == "" {
		return "", ErrUnauthenticated
	}

	p, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrNotFound
	}

	image, err := s.encoder.Encode(s.PublicURL(p.Username), qr.DefaultSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	url, err := s.uploader.Upload(ctx, image, qrPath(ownerID), "image/png")
	if err != nil {
		return "", fmt.Errorf("failed to upload QR code: %w", err)
	}

	if err := s.repo.Update(ctx, ownerID, map[string]any{"qrCodeUrl": url}, nil); err != nil {
		return "", err
	}
	return url, nil
}

// Delete removes the owner's profile and frees the username, then
// best-effort removes the stored avatar and QR assets.
//
// Returns:
//   - ErrNotFound if the owner has no profile
//   - Error if the store delete fails
func (s *Service) Delete(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	if err := s.repo.Delete(ctx, ownerID); err != nil {
		return err
	}

	if err := s.uploader.Remove(ctx, qrPath(ownerID), avatarPath(ownerID)); err != nil {
		log.Printf("failed to remove assets for %s: %v", ownerID, err)
	}
	return nil
}

// uploadAvatar stores the avatar under the per-owner path, overwriting
// any previous avatar. The path carries no extension so a format
// switch replaces the old object instead of orphaning it; the stored
// content type tells browsers how to render it.
func (s *Service) uploadAvatar(ctx context.Context, ownerID string, avatar *AvatarUpload) (string, error) {
	url, err := s.uploader.Upload(ctx, avatar.Data, avatarPath(ownerID), avatar.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAvatarUpload, err)
	}
	return url, nil
}

// refreshQRCode renders and uploads the QR image for a username.
// This is the named fallback path of the upsert: failure is reported,
// logged, and absorbed by the caller.
func (s *Service) refreshQRCode(ctx context.Context, ownerID, username string) (string, bool) {
	image, err := s.encoder.Encode(s.PublicURL(username), qr.DefaultSize)
	if err != nil {
		log.Printf("failed to encode QR code for %s: %v", username, err)
		return "", false
	}
	url, err := s.uploader.Upload(ctx, image, qrPath(ownerID), "image/png")
	if err != nil {
		log.Printf("failed to upload QR code for %s: %v", username, err)
		return "", false
	}
	return url, true
}

// qrPath is the per-owner storage path of the QR image
func qrPath(ownerID string) string {
	return "qr/" + ownerID + ".png"
}

// avatarPath is the per-owner storage path of the avatar image
func avatarPath(ownerID string) string {
	return "avatars/" + ownerID
}

// buildUpdate translates a form into merge and clear field sets.
// Omitted fields appear in neither set, so sparse updates never blank
// previously stored values.
func buildUpdate(form Form, username, fullName string, coreLinks, premiumSocials map[string]string) (map[string]any, []string) {
	set := map[string]any{
		"username": username,
	}
	var clear []string

	if fullName != "" {
		set["fullName"] = fullName
	}
	if form.Bio != nil {
		if bio := strings.TrimSpace(*form.Bio); bio != "" {
			set["bio"] = bio
		} else {
			clear = append(clear, "bio")
		}
	}
	if form.Template != "" {
		set["template"] = form.Template
	}
	if form.Contact != nil {
		if contact := normalizeContact(form.Contact); contact != nil {
			set["contact"] = contactToMap(*contact)
		} else {
			clear = append(clear, "contact")
		}
	}
	if form.Links != nil {
		if coreLinks != nil {
			set["links"] = stringMapToAny(coreLinks)
		} else {
			clear = append(clear, "links")
		}
	}
	if form.PremiumSocials != nil {
		if premiumSocials != nil {
			set["premiumSocials"] = stringMapToAny(premiumSocials)
		} else {
			clear = append(clear, "premiumSocials")
		}
	}
	if form.Services != nil {
		if services := normalizeServices(form.Services); services != nil {
			maps := make([]map[string]any, len(services))
			for i, svc := range services {
				maps[i] = serviceToMap(svc)
			}
			set["services"] = maps
		} else {
			clear = append(clear, "services")
		}
	}

	return set, clear
}

// normalizeContact trims contact fields and drops the struct entirely
// when nothing meaningful remains
func normalizeContact(c *ContactInfo) *ContactInfo {
	if c == nil {
		return nil
	}
	normalized := &ContactInfo{
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
	if normalized.Empty() {
		return nil
	}
	return normalized
}

// normalizeServices trims service entries and drops items without a
// title, preserving order
func normalizeServices(items []ServiceItem) []ServiceItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]ServiceItem, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		out = append(out, ServiceItem{
			Title:       title,
			Description: strings.TrimSpace(item.Description),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
