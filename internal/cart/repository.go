package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"velora-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetCartItems(ctx context.Context, userID uint) ([]CartItem, error)
	GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*CartItem, error)
	CreateCartItem(ctx context.Context, params AddToCartParams) (*CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, userID, productID uint, quantity int) error
	RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error
	ClearCart(ctx context.Context, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetCartItems returns the user's cart rows resolved against the live
// catalog. Prices always come from the products table, never from the
// cart row itself.
func (r *repository) GetCartItems(ctx context.Context, userID uint) ([]CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCartItems"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.user_id,
			c.product_id,
			c.quantity,
			c.created_at,
			c.updated_at,

			p.name,
			p.price,
			p.offer_price,
			p.images,
			p.in_stock
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		log.Error("query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,

			&item.Product.Name,
			&item.Product.Price,
			&item.Product.OfferPrice,
			pq.Array(&item.Product.Images),
			&item.Product.InStock,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		item.Product.ID = item.ProductID
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	log.Debug("cart rows fetched",
		zap.Int("rows", len(items)),
		zap.Duration("duration", time.Since(start)),
	)

	return items, nil
}

func (r *repository) GetCartItemByUserAndProduct(ctx context.Context, userID, productID uint) (*CartItem, error) {
	var item CartItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) CreateCartItem(ctx context.Context, params AddToCartParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCartItem"),
		zap.Uint("user_id", params.UserID),
		zap.Uint("product_id", params.ProductID),
	)

	var item CartItem
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`,
		params.UserID, params.ProductID, params.Quantity,
	).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, err
	}

	log.Info("cart item created", zap.Uint("cart_item_id", item.ID))
	return &item, nil
}

func (r *repository) UpdateCartItemQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
	`, quantity, userID, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM carts
		WHERE user_id = $1 AND product_id = $2
	`, params.UserID, params.ProductID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// ClearCart empties the user's cart. An already-empty cart is not an
// error: clearing runs as a best-effort side effect after payment.
func (r *repository) ClearCart(ctx context.Context, userID uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
