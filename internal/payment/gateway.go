package payment

import (
	"context"

	"github.com/stripe/stripe-go/v81"
)

// Gateway abstracts the payment provider so services and tests never
// talk to Stripe directly.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSessionResult, error)
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}
