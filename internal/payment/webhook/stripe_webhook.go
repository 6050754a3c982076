package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"velora-be/internal/logger"
	"velora-be/internal/metrics"
	"velora-be/internal/order"
	"velora-be/internal/payment"

	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

const provider = "STRIPE"

// Metrics tracks webhook deliveries by outcome.
type Metrics struct {
	Received   metrics.Counter
	Duplicates metrics.Counter
	Rejected   metrics.Counter
	Reconciled metrics.Counter
}

type Handler struct {
	orderSvc order.Service
	gateway  payment.Gateway
	repo     payment.Repository
	metrics  *Metrics
}

func NewStripeWebhookHandler(
	orderSvc order.Service,
	gateway payment.Gateway,
	repo payment.Repository,
	m *Metrics,
) *Handler {
	if m == nil {
		m = &Metrics{}
	}
	return &Handler{
		orderSvc: orderSvc,
		gateway:  gateway,
		repo:     repo,
		metrics:  m,
	}
}

// checkoutSession is the subset of the event object the reconciler
// needs. Decoded from event.Data.Raw, never from a re-parsed body.
// AmountTotal is a pointer so an absent field and a genuine zero total
// stay distinguishable.
type checkoutSession struct {
	ID          string `json:"id"`
	AmountTotal *int64 `json:"amount_total"`
	Currency    string `json:"currency"`
}

// HandleStripeWebhook verifies, records and reconciles one Stripe
// event delivery. The body must reach ConstructEvent byte for byte as
// Stripe sent it, so this route is mounted without body-parsing
// middleware.
//
// Response contract: 400 only for an unverifiable signature, 500 only
// for unrecoverable processing errors, 200 for everything else so
// Stripe stops redelivering.
func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("handler", "stripe_webhook"))

	h.metrics.Received.Inc()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", zap.Error(err))
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	event, err := h.gateway.VerifyEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.metrics.Rejected.Inc()
		log.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	var session checkoutSession
	if len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Error("failed to decode event object", zap.Error(err))
			http.Error(w, "processing failed", http.StatusInternalServerError)
			return
		}
	}

	webhookID, alreadyProcessed, err := h.repo.SavePaymentWebhook(
		r.Context(), provider, event.ID, string(event.Type), session.ID, json.RawMessage(body),
	)
	if err != nil {
		log.Error("failed to record webhook", zap.Error(err))
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}
	// Short-circuit only when a prior delivery finished processing.
	// A redelivery after a processing error runs reconciliation again,
	// which the conditional order update keeps idempotent.
	if alreadyProcessed {
		h.metrics.Duplicates.Inc()
		log.Info("duplicate webhook delivery, already processed")
		w.WriteHeader(http.StatusOK)
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = h.orderSvc.ReconcilePaid(r.Context(), session.ID, amountTotal(&session))
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		err = h.orderSvc.ReconcileFailed(r.Context(), session.ID)
	default:
		log.Debug("unhandled event type, acknowledged")
		_ = h.repo.MarkWebhookProcessed(r.Context(), webhookID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err != nil {
		log.Error("failed to reconcile order", zap.Error(err))
		_ = h.repo.MarkWebhookFailed(r.Context(), webhookID, err.Error())
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	h.metrics.Reconciled.Inc()
	_ = h.repo.MarkWebhookProcessed(r.Context(), webhookID)
	w.WriteHeader(http.StatusOK)
}

// amountTotal converts the session's minor-unit total to currency
// units. Nil means Stripe omitted the field and the locally computed
// amount stands; a present zero is authoritative.
func amountTotal(s *checkoutSession) *float64 {
	if s.AmountTotal == nil {
		return nil
	}
	v := float64(*s.AmountTotal) / 100
	return &v
}
