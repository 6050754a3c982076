package payment

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, secret string, at time.Time) string {
	t.Helper()
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func TestStripeGateway_VerifyEvent(t *testing.T) {
	gw := NewStripeGateway("sk_test_dummy", testWebhookSecret)

	payload := []byte(`{"id":"evt_123","api_version":"2025-02-24.acacia","type":"checkout.session.completed","data":{"object":{"id":"cs_test_abc"}}}`)

	t.Run("ValidSignature", func(t *testing.T) {
		header := signedHeader(t, payload, testWebhookSecret, time.Now())

		event, err := gw.VerifyEvent(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_123", event.ID)
		assert.Equal(t, "checkout.session.completed", string(event.Type))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		header := signedHeader(t, payload, "whsec_other_secret", time.Now())

		_, err := gw.VerifyEvent(payload, header)
		assert.Error(t, err)
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		header := signedHeader(t, payload, testWebhookSecret, time.Now())
		tampered := []byte(`{"id":"evt_999","type":"checkout.session.completed","data":{"object":{"id":"cs_test_abc"}}}`)

		_, err := gw.VerifyEvent(tampered, header)
		assert.Error(t, err)
	})

	t.Run("StaleTimestamp", func(t *testing.T) {
		header := signedHeader(t, payload, testWebhookSecret, time.Now().Add(-time.Hour))

		_, err := gw.VerifyEvent(payload, header)
		assert.Error(t, err)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		_, err := gw.VerifyEvent(payload, "")
		assert.Error(t, err)
	})
}
