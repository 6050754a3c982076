package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"velora-be/internal/logger"
	"velora-be/internal/order"

	"go.uber.org/zap"
)

const brevoBaseURL = "https://api.brevo.com"

// Sender delivers transactional email through the Brevo HTTP API. It
// implements order.ConfirmationSender.
type Sender struct {
	apiKey     string
	senderMail string
	senderName string
	baseURL    string
	httpClient *http.Client
}

func NewSender(apiKey, senderMail, senderName string) *Sender {
	if apiKey == "" {
		logger.L().Warn("Brevo API key is empty")
	}

	return &Sender{
		apiKey:     apiKey,
		senderMail: senderMail,
		senderName: senderName,
		baseURL:    brevoBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type party struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	HTMLContent string  `json:"htmlContent"`
}

// SendOrderConfirmation mails the paid-order summary to the customer
// email snapshotted on the order. Runs as a best-effort task; the
// caller logs and swallows any error.
func (s *Sender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "email"),
		zap.String("order_id", o.ID.String()),
		zap.String("reference", o.Reference),
	)

	if o.Customer == "" {
		log.Warn("order has no customer email, skipping confirmation")
		return nil
	}

	body := sendRequest{
		Sender:      party{Email: s.senderMail, Name: s.senderName},
		To:          []party{{Email: o.Customer}},
		Subject:     fmt.Sprintf("Order %s confirmed", o.Reference),
		HTMLContent: confirmationHTML(o),
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/smtp/email", bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error("Brevo request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read brevo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Brevo returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBytes),
		)
		return fmt.Errorf("brevo error: %s", string(respBytes))
	}

	log.Info("order confirmation sent", zap.String("to", o.Customer))
	return nil
}

func confirmationHTML(o *order.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Thanks for your order!</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been paid.</p>", o.Reference)

	b.WriteString("<ul>")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "<li>%s x %d @ %.2f %s</li>",
			item.ProductName, item.Quantity, item.UnitPrice, strings.ToUpper(o.Currency))
	}
	b.WriteString("</ul>")

	fmt.Fprintf(&b, "<p>Total: <strong>%.2f %s</strong></p>", o.Amount, strings.ToUpper(o.Currency))

	return b.String()
}
