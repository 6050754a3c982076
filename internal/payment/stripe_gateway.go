package payment

import (
	"context"
	"fmt"

	"velora-be/internal/logger"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

type stripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}
	if webhookSecret == "" {
		logger.L().Warn("Stripe webhook secret is empty")
	}

	stripe.Key = secretKey

	return &stripeGateway{webhookSecret: webhookSecret}
}

// CreateCheckoutSession opens a hosted Stripe Checkout session for the
// given order. Line amounts are provided by the caller; the provider's
// amount_total becomes authoritative once the session completes.
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (*CheckoutSessionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateCheckoutSession"),
		zap.String("order_id", p.OrderID),
		zap.String("reference", p.Reference),
	)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.Items))
	for _, item := range p.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.Reference),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("order_id", p.OrderID)
	params.AddMetadata("reference", p.Reference)

	s, err := session.New(params)
	if err != nil {
		log.Error("failed to create checkout session", zap.Error(err))
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	log.Info("checkout session created",
		zap.String("session_id", s.ID),
	)

	return &CheckoutSessionResult{
		SessionID: s.ID,
		URL:       s.URL,
	}, nil
}

// VerifyEvent checks the Stripe-Signature header against the raw body
// and returns the parsed event. Callers must pass the body exactly as
// received; any re-serialization breaks the signature.
func (g *stripeGateway) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
}
