package cart

import (
	"time"

	"velora-be/internal/product"
)

type CartItem struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product product.Product `json:"product"`
}

type AddToCartParams struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

type UpdateCartParams struct {
	UserID    uint
	ProductID uint
	Quantity  int
}

type RemoveFromCartParams struct {
	UserID    uint
	ProductID uint
}
