package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/qrvisit/qrvisit/internal/auth"
	"github.com/qrvisit/qrvisit/internal/profile"
	"github.com/qrvisit/qrvisit/internal/template"
)

// ProfileResponse represents the response for profile endpoints
type ProfileResponse struct {
	Username       string                `json:"username"`
	FullName       string                `json:"fullName"`
	Bio            string                `json:"bio,omitempty"`
	AvatarURL      string                `json:"avatarUrl,omitempty"`
	QRCodeURL      string                `json:"qrCodeUrl,omitempty"`
	Template       template.Type         `json:"template"`
	Contact        *profile.ContactInfo  `json:"contact,omitempty"`
	Links          map[string]string     `json:"links,omitempty"`
	PremiumSocials map[string]string     `json:"premiumSocials,omitempty"`
	Services       []profile.ServiceItem `json:"services,omitempty"`
	IsPremium      bool                  `json:"isPremium"`
	PublicURL      string                `json:"publicUrl"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// AvailabilityResponse represents the response for the username
// availability endpoint
type AvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// QRCodeResponse represents the response for QR code regeneration
type QRCodeResponse struct {
	QRCodeURL string `json:"qrCodeUrl"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProfileService defines the profile operations the handlers need
type ProfileService interface {
	Upsert(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error)
	Get(ctx context.Context, ownerID string) (*profile.Profile, error)
	GetPublicProfile(ctx context.Context, username string) (*profile.Profile, error)
	IsUsernameAvailable(ctx context.Context, username string, excludeOwnerID string) (bool, error)
	RegenerateQRCode(ctx context.Context, ownerID string) (string, error)
	Delete(ctx context.Context, ownerID string) error
	PublicURL(username string) string
}

// ProfileHandler contains the HTTP handlers for profile endpoints
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GetProfile handles GET /api/profile
// Returns the authenticated owner's profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	p, err := h.service.Get(r.Context(), claims.UID)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}

	writeJSON(w, h.toResponse(p), http.StatusOK)
}

// UpsertProfile handles PUT /api/profile
// Creates the owner's profile on first submission and merges
// subsequent submissions into it
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	var form profile.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Upsert(r.Context(), claims.UID, form)
	if err != nil {
		writeProfileError(w, err)
		return
	}

	writeJSON(w, h.toResponse(p), http.StatusOK)
}

// DeleteProfile handles DELETE /api/profile
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	if err := h.service.Delete(r.Context(), claims.UID); err != nil {
		writeProfileError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UsernameAvailable handles GET /api/profile/username-available?username=
// The owner's current username is excluded, so re-submitting it reads
// as available
func (h *ProfileHandler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, "username query parameter is required", http.StatusBadRequest)
		return
	}

	available, err := h.service.IsUsernameAvailable(r.Context(), username, claims.UID)
	if err != nil {
		writeError(w, "failed to check username", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AvailabilityResponse{
		Username:  profile.NormalizeUsername(username),
		Available: available,
	}, http.StatusOK)
}

// RegenerateQRCode handles POST /api/profile/qrcode
func (h *ProfileHandler) RegenerateQRCode(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	url, err := h.service.RegenerateQRCode(r.Context(), claims.UID)
	if err != nil {
		writeProfileError(w, err)
		return
	}

	writeJSON(w, QRCodeResponse{QRCodeURL: url}, http.StatusOK)
}

// PublicProfile handles GET /api/u/{username}
// This route is public; a miss is a plain 404
func (h *ProfileHandler) PublicProfile(w http.ResponseWriter, r *http.Request, username string) {
	p, err := h.service.GetPublicProfile(r.Context(), username)
	if err != nil {
		writeError(w, "failed to resolve profile", http.StatusInternalServerError)
		return
	}
	if p == nil {
		writeError(w, "profile not found", http.StatusNotFound)
		return
	}

	writeJSON(w, h.toResponse(p), http.StatusOK)
}

// toResponse shapes a profile for the wire
func (h *ProfileHandler) toResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		Username:       p.Username,
		FullName:       p.FullName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		QRCodeURL:      p.QRCodeURL,
		Template:       p.Template,
		Contact:        p.Contact,
		Links:          p.Links,
		PremiumSocials: p.PremiumSocials,
		Services:       p.Services,
		IsPremium:      p.IsPremium,
		PublicURL:      h.service.PublicURL(p.Username),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// writeProfileError maps profile domain errors to HTTP statuses
func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrUnauthenticated):
		writeError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, profile.ErrInvalidUsername),
		errors.Is(err, profile.ErrInvalidFullName),
		errors.Is(err, profile.ErrInvalidTemplate),
		errors.Is(err, profile.ErrInvalidLink):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, profile.ErrUsernameTaken):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, profile.ErrAvatarUpload):
		writeError(w, "failed to store avatar", http.StatusBadGateway)
	default:
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Already wrote headers, can only log
		return
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
