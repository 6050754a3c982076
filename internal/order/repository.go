package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"velora-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, o *Order) error
	SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error

	MarkPaidBySessionID(ctx context.Context, sessionID string, amount *float64) (*Order, error)
	MarkFailedBySessionID(ctx context.Context, sessionID string) (*Order, error)
	MarkFailedByID(ctx context.Context, orderID uuid.UUID) error

	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	GetByUser(ctx context.Context, userID uint) ([]Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)

	UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, reference, user_id, customer, amount, currency,
	stripe_session_id, payment_status, status, created_at, updated_at
`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Reference,
		&o.UserID,
		&o.Customer,
		&o.Amount,
		&o.Currency,
		&o.StripeSessionID,
		&o.PaymentStatus,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrderTx inserts the order and its item snapshots in one
// transaction. The order must be fully durable before any call to the
// payment provider is made.
func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_id", o.ID.String()),
		zap.String("reference", o.Reference),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, reference, user_id, customer,
			amount, currency, payment_status, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		o.ID,
		o.Reference,
		o.UserID,
		o.Customer,
		o.Amount,
		o.Currency,
		o.PaymentStatus,
		o.Status,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, product_name,
				quantity, unit_price
			) VALUES ($1, $2, $3, $4, $5)
		`,
			o.ID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
		)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Uint("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("order created", zap.Int("items", len(o.Items)))
	return nil
}

func (r *repository) SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET stripe_session_id = $1, updated_at = NOW()
		WHERE id = $2
	`, sessionID, orderID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// MarkPaidBySessionID flips a PENDING order to PAID in one conditional
// update. Concurrent deliveries of the same event race on the WHERE
// clause; exactly one caller gets the updated row back, everyone else
// gets nil. When the provider reports an amount it overwrites the
// locally computed one.
func (r *repository) MarkPaidBySessionID(ctx context.Context, sessionID string, amount *float64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET payment_status = 'PAID',
		    amount = COALESCE($2, amount),
		    updated_at = NOW()
		WHERE stripe_session_id = $1
		  AND payment_status = 'PENDING'
		RETURNING `+orderColumns+`
	`, sessionID, amount)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order marked paid",
		zap.String("order_id", o.ID.String()),
		zap.String("reference", o.Reference),
		zap.Float64("amount", o.Amount),
	)
	return o, nil
}

func (r *repository) MarkFailedBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET payment_status = 'FAILED', updated_at = NOW()
		WHERE stripe_session_id = $1
		  AND payment_status = 'PENDING'
		RETURNING `+orderColumns+`
	`, sessionID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// MarkFailedByID closes out an order whose checkout session could not
// be created. Conditional on PENDING like the webhook paths.
func (r *repository) MarkFailedByID(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'FAILED', updated_at = NOW()
		WHERE id = $1
		  AND payment_status = 'PENDING'
	`, orderID)
	return err
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE stripe_session_id = $1
	`, sessionID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.GetOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) GetByUser(ctx context.Context, userID uint) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByUser"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("orders fetched",
		zap.Int("rows", len(orders)),
		zap.Duration("duration", time.Since(start)),
	)

	return orders, nil
}

func (r *repository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *repository) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
