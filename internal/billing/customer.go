package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/customer"

	"github.com/qrvisit/qrvisit/internal/profile"
)

// GetOrCreateCustomer retrieves the profile's Stripe customer ID or
// creates a new Stripe customer for it
//
// Parameters:
//   - ctx: Context for cancellation control
//   - p: Profile to get or create a Stripe customer for
//   - email: Billing email taken from the authenticated identity
//
// Returns:
//   - Stripe customer ID
//   - Error if the Stripe API call fails
func (c *Client) GetOrCreateCustomer(ctx context.Context, p *profile.Profile, email string) (string, error) {
	if p.StripeCustomerID != "" {
		return p.StripeCustomerID, nil
	}

	params := buildCustomerParams(p, email)
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create Stripe customer: %w", err)
	}

	return cust.ID, nil
}

// buildCustomerParams creates Stripe customer parameters from a profile
func buildCustomerParams(p *profile.Profile, email string) *stripe.CustomerParams {
	return &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(p.FullName),
		Metadata: map[string]string{
			"owner_id": p.OwnerID,
			"username": p.Username,
		},
	}
}
