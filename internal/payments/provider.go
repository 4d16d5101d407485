package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinebook/internal/bookings"
	"cinebook/internal/shared/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Provider creates hosted checkout sessions for unpaid bookings.
type Provider struct {
	api  *client.API
	repo bookings.Repository
	cfg  *config.PaymentsConfig
}

var _ bookings.PaymentInitiator = (*Provider)(nil)

func NewProvider(cfg *config.PaymentsConfig, repo bookings.Repository) *Provider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Provider{api: api, repo: repo, cfg: cfg}
}

// CreateSession opens a checkout session for the booking. The booking id
// travels in the payment intent metadata so the webhook can route the
// confirmation back.
func (p *Provider) CreateSession(ctx context.Context, booking *bookings.Booking) (string, error) {
	name := p.lineItemName(ctx, booking)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.cfg.SuccessURL),
		CancelURL:  stripe.String(p.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
					UnitAmount: stripe.Int64(int64(booking.Amount * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		// Checkout enforces a 30 minute floor, so the session outlives the
		// seat hold; an expired booking's session just pays into nothing,
		// which the confirmation handler ignores.
		ExpiresAt: stripe.Int64(time.Now().Add(30 * time.Minute).Unix()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"booking_id": booking.ID.String(),
			},
		},
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

func (p *Provider) lineItemName(ctx context.Context, booking *bookings.Booking) string {
	loaded, err := p.repo.GetByID(ctx, booking.ID)
	if err == nil && loaded.Show != nil && loaded.Show.Movie != nil {
		return fmt.Sprintf("%s (seats %s)", loaded.Show.Movie.Title, strings.Join(booking.Seats, ", "))
	}
	return fmt.Sprintf("Movie tickets (seats %s)", strings.Join(booking.Seats, ", "))
}
