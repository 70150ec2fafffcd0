package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qrvisit/qrvisit/internal/billing"
	"github.com/qrvisit/qrvisit/internal/config"
	"github.com/qrvisit/qrvisit/internal/profile"
)

// mockBillingRepo implements BillingProfileRepository
type mockBillingRepo struct {
	profiles map[string]*profile.Profile
	premium  []string // ownerIDs whose premium flag was touched
}

func (m *mockBillingRepo) Get(ctx context.Context, ownerID string) (*profile.Profile, error) {
	return m.profiles[ownerID], nil
}

func (m *mockBillingRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*profile.Profile, error) {
	for _, p := range m.profiles {
		if p.StripeCustomerID == customerID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockBillingRepo) SetPremium(ctx context.Context, ownerID string, premium bool, customerID, subscriptionID string) error {
	m.premium = append(m.premium, ownerID)
	if p, ok := m.profiles[ownerID]; ok {
		p.IsPremium = premium
		if customerID != "" {
			p.StripeCustomerID = customerID
		}
		p.SubscriptionID = subscriptionID
	}
	return nil
}

func newTestBillingHandler(repo *mockBillingRepo) *BillingHandler {
	return NewBillingHandler(billing.NewClient("sk_test_123"), repo, &config.BillingConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test",
		PriceID:       "price_123",
		SuccessURL:    "https://example.com/ok",
		CancelURL:     "https://example.com/cancel",
	})
}

func TestBillingHandler_CreateCheckoutSession(t *testing.T) {
	t.Run("404 without a profile", func(t *testing.T) {
		h := newTestBillingHandler(&mockBillingRepo{profiles: map[string]*profile.Profile{}})

		w := httptest.NewRecorder()
		h.CreateCheckoutSession(w, authedRequest(http.MethodPost, "/api/billing/checkout", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("400 when already premium", func(t *testing.T) {
		repo := &mockBillingRepo{profiles: map[string]*profile.Profile{
			"uid-1": {OwnerID: "uid-1", Username: "johndoe", IsPremium: true},
		}}
		h := newTestBillingHandler(repo)

		w := httptest.NewRecorder()
		h.CreateCheckoutSession(w, authedRequest(http.MethodPost, "/api/billing/checkout", ""))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if len(repo.premium) != 0 {
			t.Error("premium state should not be touched")
		}
	})
}

func TestBillingHandler_CreatePortalSession(t *testing.T) {
	t.Run("404 without a profile", func(t *testing.T) {
		h := newTestBillingHandler(&mockBillingRepo{profiles: map[string]*profile.Profile{}})

		w := httptest.NewRecorder()
		h.CreatePortalSession(w, authedRequest(http.MethodPost, "/api/billing/portal", ""))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("400 without a billing account", func(t *testing.T) {
		repo := &mockBillingRepo{profiles: map[string]*profile.Profile{
			"uid-1": {OwnerID: "uid-1", Username: "johndoe"},
		}}
		h := newTestBillingHandler(repo)

		w := httptest.NewRecorder()
		h.CreatePortalSession(w, authedRequest(http.MethodPost, "/api/billing/portal", ""))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestBillingHandler_StripeWebhook(t *testing.T) {
	t.Run("400 without signature header", func(t *testing.T) {
		h := newTestBillingHandler(&mockBillingRepo{profiles: map[string]*profile.Profile{}})

		req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(`{"type":"test"}`))
		w := httptest.NewRecorder()
		h.StripeWebhook(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("400 with invalid signature", func(t *testing.T) {
		h := newTestBillingHandler(&mockBillingRepo{profiles: map[string]*profile.Profile{}})

		req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(`{"type":"test"}`))
		req.Header.Set("Stripe-Signature", "t=123,v1=bogus")
		w := httptest.NewRecorder()
		h.StripeWebhook(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
