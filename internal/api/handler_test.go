package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qrvisit/qrvisit/internal/auth"
	"github.com/qrvisit/qrvisit/internal/profile"
	"github.com/qrvisit/qrvisit/internal/template"
)

// mockProfileService implements ProfileService with function fields
type mockProfileService struct {
	upsertFunc     func(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error)
	getFunc        func(ctx context.Context, ownerID string) (*profile.Profile, error)
	getPublicFunc  func(ctx context.Context, username string) (*profile.Profile, error)
	availableFunc  func(ctx context.Context, username string, excludeOwnerID string) (bool, error)
	regenerateFunc func(ctx context.Context, ownerID string) (string, error)
	deleteFunc     func(ctx context.Context, ownerID string) error
}

func (m *mockProfileService) Upsert(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error) {
	return m.upsertFunc(ctx, ownerID, form)
}

func (m *mockProfileService) Get(ctx context.Context, ownerID string) (*profile.Profile, error) {
	return m.getFunc(ctx, ownerID)
}

func (m *mockProfileService) GetPublicProfile(ctx context.Context, username string) (*profile.Profile, error) {
	return m.getPublicFunc(ctx, username)
}

func (m *mockProfileService) IsUsernameAvailable(ctx context.Context, username string, excludeOwnerID string) (bool, error) {
	return m.availableFunc(ctx, username, excludeOwnerID)
}

func (m *mockProfileService) RegenerateQRCode(ctx context.Context, ownerID string) (string, error) {
	return m.regenerateFunc(ctx, ownerID)
}

func (m *mockProfileService) Delete(ctx context.Context, ownerID string) error {
	return m.deleteFunc(ctx, ownerID)
}

func (m *mockProfileService) PublicURL(username string) string {
	return "https://qrvisit.example.com/u/" + username
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := auth.WithClaims(req.Context(), &auth.Claims{UID: "uid-1", Email: "john@example.com"})
	return req.WithContext(ctx)
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		OwnerID:   "uid-1",
		Username:  "johndoe",
		FullName:  "John Doe",
		Template:  template.Classic,
		QRCodeURL: "https://storage.googleapis.com/bucket/qr/uid-1.png",
	}
}

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("returns the owner's profile", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			getFunc: func(ctx context.Context, ownerID string) (*profile.Profile, error) {
				if ownerID != "uid-1" {
					t.Errorf("ownerID = %q, want uid-1", ownerID)
				}
				return testProfile(), nil
			},
		})

		w := httptest.NewRecorder()
		h.GetProfile(w, authedRequest(http.MethodGet, "/api/profile", ""))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp ProfileResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Username != "johndoe" {
			t.Errorf("username = %q", resp.Username)
		}
		if resp.PublicURL != "https://qrvisit.example.com/u/johndoe" {
			t.Errorf("publicUrl = %q", resp.PublicURL)
		}
	})

	t.Run("404 when no profile exists yet", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			getFunc: func(ctx context.Context, ownerID string) (*profile.Profile, error) {
				return nil, nil
			},
		})

		w := httptest.NewRecorder()
		h.GetProfile(w, authedRequest(http.MethodGet, "/api/profile", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestProfileHandler_UpsertProfile(t *testing.T) {
	t.Run("passes the decoded form through", func(t *testing.T) {
		var gotForm profile.Form
		h := NewProfileHandler(&mockProfileService{
			upsertFunc: func(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error) {
				gotForm = form
				return testProfile(), nil
			},
		})

		body := `{"username":"johndoe","fullName":"John Doe","bio":"Engineer"}`
		w := httptest.NewRecorder()
		h.UpsertProfile(w, authedRequest(http.MethodPut, "/api/profile", body))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}
		if gotForm.Username != "johndoe" || gotForm.FullName != "John Doe" {
			t.Errorf("form = %+v", gotForm)
		}
		if gotForm.Bio == nil || *gotForm.Bio != "Engineer" {
			t.Errorf("bio = %v", gotForm.Bio)
		}
	})

	t.Run("decodes base64 avatar payload", func(t *testing.T) {
		var gotForm profile.Form
		h := NewProfileHandler(&mockProfileService{
			upsertFunc: func(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error) {
				gotForm = form
				return testProfile(), nil
			},
		})

		// "aGVsbG8=" is base64 for "hello"
		body := `{"username":"johndoe","avatar":{"data":"aGVsbG8=","contentType":"image/png"}}`
		w := httptest.NewRecorder()
		h.UpsertProfile(w, authedRequest(http.MethodPut, "/api/profile", body))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotForm.Avatar == nil || string(gotForm.Avatar.Data) != "hello" {
			t.Errorf("avatar = %+v", gotForm.Avatar)
		}
		if gotForm.Avatar.ContentType != "image/png" {
			t.Errorf("content type = %q", gotForm.Avatar.ContentType)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			upsertFunc: func(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error) {
				t.Error("service should not be called")
				return nil, nil
			},
		})

		w := httptest.NewRecorder()
		h.UpsertProfile(w, authedRequest(http.MethodPut, "/api/profile", "{not json"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("maps domain errors to statuses", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{profile.ErrInvalidUsername, http.StatusBadRequest},
			{profile.ErrInvalidFullName, http.StatusBadRequest},
			{profile.ErrInvalidTemplate, http.StatusBadRequest},
			{profile.ErrInvalidLink, http.StatusBadRequest},
			{profile.ErrUsernameTaken, http.StatusConflict},
			{profile.ErrUnauthenticated, http.StatusUnauthorized},
			{profile.ErrAvatarUpload, http.StatusBadGateway},
			{errors.New("firestore exploded"), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			h := NewProfileHandler(&mockProfileService{
				upsertFunc: func(ctx context.Context, ownerID string, form profile.Form) (*profile.Profile, error) {
					return nil, tc.err
				},
			})

			w := httptest.NewRecorder()
			h.UpsertProfile(w, authedRequest(http.MethodPut, "/api/profile", `{"username":"johndoe"}`))

			if w.Code != tc.status {
				t.Errorf("error %v: status = %d, want %d", tc.err, w.Code, tc.status)
			}
		}
	})
}

func TestProfileHandler_DeleteProfile(t *testing.T) {
	t.Run("204 on success", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			deleteFunc: func(ctx context.Context, ownerID string) error {
				return nil
			},
		})

		w := httptest.NewRecorder()
		h.DeleteProfile(w, authedRequest(http.MethodDelete, "/api/profile", ""))

		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
	})

	t.Run("404 when no profile exists", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			deleteFunc: func(ctx context.Context, ownerID string) error {
				return profile.ErrNotFound
			},
		})

		w := httptest.NewRecorder()
		h.DeleteProfile(w, authedRequest(http.MethodDelete, "/api/profile", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestProfileHandler_UsernameAvailable(t *testing.T) {
	t.Run("excludes the caller's own claim", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			availableFunc: func(ctx context.Context, username string, excludeOwnerID string) (bool, error) {
				if excludeOwnerID != "uid-1" {
					t.Errorf("excludeOwnerID = %q, want uid-1", excludeOwnerID)
				}
				return true, nil
			},
		})

		w := httptest.NewRecorder()
		h.UsernameAvailable(w, authedRequest(http.MethodGet, "/api/profile/username-available?username=JohnDoe", ""))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp AvailabilityResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Available {
			t.Error("expected available")
		}
		if resp.Username != "johndoe" {
			t.Errorf("username = %q, want normalized johndoe", resp.Username)
		}
	})

	t.Run("requires the username parameter", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{})

		w := httptest.NewRecorder()
		h.UsernameAvailable(w, authedRequest(http.MethodGet, "/api/profile/username-available", ""))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestProfileHandler_RegenerateQRCode(t *testing.T) {
	t.Run("returns the new URL", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			regenerateFunc: func(ctx context.Context, ownerID string) (string, error) {
				return "https://storage.googleapis.com/bucket/qr/uid-1.png", nil
			},
		})

		w := httptest.NewRecorder()
		h.RegenerateQRCode(w, authedRequest(http.MethodPost, "/api/profile/qrcode", ""))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp QRCodeResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.QRCodeURL == "" {
			t.Error("expected qrCodeUrl in response")
		}
	})

	t.Run("404 when no profile exists", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			regenerateFunc: func(ctx context.Context, ownerID string) (string, error) {
				return "", profile.ErrNotFound
			},
		})

		w := httptest.NewRecorder()
		h.RegenerateQRCode(w, authedRequest(http.MethodPost, "/api/profile/qrcode", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestProfileHandler_PublicProfile(t *testing.T) {
	t.Run("resolves without authentication", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			getPublicFunc: func(ctx context.Context, username string) (*profile.Profile, error) {
				if username != "johndoe" {
					t.Errorf("username = %q", username)
				}
				return testProfile(), nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/u/johndoe", nil)
		w := httptest.NewRecorder()
		h.PublicProfile(w, req, "johndoe")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("404 on miss", func(t *testing.T) {
		h := NewProfileHandler(&mockProfileService{
			getPublicFunc: func(ctx context.Context, username string) (*profile.Profile, error) {
				return nil, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/u/nobody", nil)
		w := httptest.NewRecorder()
		h.PublicProfile(w, req, "nobody")

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}
