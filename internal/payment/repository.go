package payment

import (
	"context"
	"database/sql"
	"encoding/json"

	"velora-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	SavePaymentWebhook(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		externalID string,
		payload json.RawMessage,
	) (webhookID int64, alreadyProcessed bool, err error)

	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// SavePaymentWebhook records a received provider event exactly once
// per (provider, event_id) and reports whether an earlier delivery of
// the same event already finished processing. Redeliveries of an event
// whose prior attempt failed come back with alreadyProcessed false so
// the caller can reconcile again.
func (r *repository) SavePaymentWebhook(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	externalID string,
	payload json.RawMessage,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET received_at = now()
	RETURNING id, processed_at IS NOT NULL;
	`

	var id int64
	var alreadyProcessed bool
	err := r.db.QueryRowContext(ctx, q,
		provider,
		eventID,
		eventType,
		externalID,
		payload,
	).Scan(&id, &alreadyProcessed)

	if err != nil {
		logger.FromCtx(ctx).Error("failed to save payment webhook",
			zap.String("layer", "repository"),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return 0, false, err
	}

	return id, alreadyProcessed, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
