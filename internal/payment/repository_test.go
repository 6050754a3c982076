package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SavePaymentWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	payload := json.RawMessage(`{"id":"evt_123"}`)

	t.Run("FirstDelivery", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WithArgs("STRIPE", "evt_123", "checkout.session.completed", "cs_test_abc", []byte(payload)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(42), false))

		id, processed, err := repo.SavePaymentWebhook(
			context.Background(),
			"STRIPE", "evt_123", "checkout.session.completed", "cs_test_abc", payload,
		)
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(42), id)
	})

	t.Run("RedeliveryOfProcessedEvent", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(42), true))

		id, processed, err := repo.SavePaymentWebhook(
			context.Background(),
			"STRIPE", "evt_123", "checkout.session.completed", "cs_test_abc", payload,
		)
		require.NoError(t, err)
		assert.True(t, processed)
		assert.Equal(t, int64(42), id)
	})

	t.Run("RedeliveryOfFailedEvent", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(int64(42), false))

		id, processed, err := repo.SavePaymentWebhook(
			context.Background(),
			"STRIPE", "evt_123", "checkout.session.completed", "cs_test_abc", payload,
		)
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(42), id)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO payment_webhooks").
			WillReturnError(errors.New("db error"))

		_, _, err := repo.SavePaymentWebhook(
			context.Background(),
			"STRIPE", "evt_456", "checkout.session.expired", "cs_test_def", payload,
		)
		assert.Error(t, err)
	})
}

func TestRepository_MarkWebhookProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("UPDATE payment_webhooks").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkWebhookProcessed(context.Background(), 42)
	assert.NoError(t, err)
}

func TestRepository_MarkWebhookFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("UPDATE payment_webhooks").
		WithArgs(int64(42), "order lookup failed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkWebhookFailed(context.Background(), 42, "order lookup failed")
	assert.NoError(t, err)
}
