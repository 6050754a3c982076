package product

import (
	"context"
	"database/sql"
	"errors"

	"velora-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, offer_price, images, in_stock, created_at
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price,
			&p.OfferPrice, pq.Array(&p.Images), &p.InStock, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, offer_price, images, in_stock, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price,
		&p.OfferPrice, pq.Array(&p.Images), &p.InStock, &p.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetByIDs resolves a batch of catalog rows for checkout price lookup.
func (r *repository) GetByIDs(ctx context.Context, ids []uint) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByIDs"),
		zap.Int("id_count", len(ids)),
	)

	if len(ids) == 0 {
		return nil, nil
	}

	int64IDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		int64IDs = append(int64IDs, int64(id))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, offer_price, images, in_stock, created_at
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(int64IDs))
	if err != nil {
		log.Error("failed to query products by ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price,
			&p.OfferPrice, pq.Array(&p.Images), &p.InStock, &p.CreatedAt,
		); err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, offer_price, images, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		p.Name, p.Description, p.Price, p.OfferPrice, pq.Array(p.Images), p.InStock,
	).Scan(&p.ID, &p.CreatedAt)
	return p, err
}
