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

// staticVerifier accepts exactly one token
type staticVerifier struct {
	token  string
	claims *auth.Claims
}

func (v *staticVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Claims, error) {
	if idToken != v.token {
		return nil, errors.New("invalid token")
	}
	return v.claims, nil
}

func newTestRouter(svc ProfileService, verifier auth.TokenVerifier) http.Handler {
	return NewRouter(RouterConfig{
		ProfileService: svc,
		TokenVerifier:  verifier,
	})
}

func resolvingService() *mockProfileService {
	return &mockProfileService{
		getFunc: func(ctx context.Context, ownerID string) (*profile.Profile, error) {
			return testProfile(), nil
		},
		getPublicFunc: func(ctx context.Context, username string) (*profile.Profile, error) {
			if username == "johndoe" {
				return testProfile(), nil
			}
			return nil, nil
		},
	}
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(resolvingService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_Templates(t *testing.T) {
	router := newTestRouter(resolvingService(), &staticVerifier{})

	t.Run("lists layouts without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var descriptors []template.Descriptor
		if err := json.NewDecoder(w.Body).Decode(&descriptors); err != nil {
			t.Fatal(err)
		}
		if len(descriptors) != 3 {
			t.Fatalf("descriptors = %d, want 3", len(descriptors))
		}
		if descriptors[0].ID != template.Classic {
			t.Errorf("first layout = %q, want classic", descriptors[0].ID)
		}
		for _, d := range descriptors {
			if d.Name == "" || d.Description == "" {
				t.Errorf("descriptor %q missing name or description", d.ID)
			}
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/templates", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})
}

func TestRouter_PublicProfile(t *testing.T) {
	router := newTestRouter(resolvingService(), &staticVerifier{})

	t.Run("no token needed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/u/johndoe", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("missing username segment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/u/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("nested path rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/u/johndoe/extra", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/u/johndoe", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", w.Code)
		}
	})
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	verifier := &staticVerifier{
		token:  "valid-token",
		claims: &auth.Claims{UID: "uid-1", Email: "john@example.com"},
	}
	router := newTestRouter(resolvingService(), verifier)

	t.Run("rejects missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("accepts valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("subroutes are also protected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile/username-available?username=x", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRouter_TestMode(t *testing.T) {
	// nil verifier runs with a static dev identity
	router := newTestRouter(resolvingService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without auth in test mode", w.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(resolvingService(), &staticVerifier{})

	req := httptest.NewRequest(http.MethodOptions, "/api/u/johndoe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS headers on preflight")
	}
}
