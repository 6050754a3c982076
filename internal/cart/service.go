package cart

import (
	"context"

	"velora-be/internal/product"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, params AddToCartParams) (*CartItem, error)
	GetCart(ctx context.Context, userID uint) ([]CartItem, error)
	UpdateQuantity(ctx context.Context, params UpdateCartParams) error
	RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error
	ClearCart(ctx context.Context, userID uint) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

func (s *service) AddToCart(ctx context.Context, params AddToCartParams) (*CartItem, error) {
	if params.UserID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetByID(ctx, params.ProductID)
	if err != nil {
		if err == product.ErrNotFound {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !p.InStock {
		return nil, ErrOutOfStock
	}

	existing, err := s.repo.GetCartItemByUserAndProduct(ctx, params.UserID, params.ProductID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.repo.CreateCartItem(ctx, params)
	}

	finalQty := existing.Quantity + params.Quantity
	if err := s.repo.UpdateCartItemQuantity(ctx, params.UserID, params.ProductID, finalQty); err != nil {
		return nil, err
	}
	existing.Quantity = finalQty
	return existing, nil
}

func (s *service) GetCart(ctx context.Context, userID uint) ([]CartItem, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.GetCartItems(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, params UpdateCartParams) error {
	if params.UserID == 0 {
		return ErrUserNotAuthenticated
	}
	if params.ProductID == 0 {
		return ErrProductNotFound
	}

	if params.Quantity <= 0 {
		// zero or negative quantity removes the item
		return s.repo.RemoveFromCart(ctx, RemoveFromCartParams{
			UserID:    params.UserID,
			ProductID: params.ProductID,
		})
	}

	return s.repo.UpdateCartItemQuantity(ctx, params.UserID, params.ProductID, params.Quantity)
}

func (s *service) RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error {
	if params.UserID == 0 {
		return ErrUserNotAuthenticated
	}
	if params.ProductID == 0 {
		return ErrProductNotFound
	}
	return s.repo.RemoveFromCart(ctx, params)
}

func (s *service) ClearCart(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUserNotAuthenticated
	}
	return s.repo.ClearCart(ctx, userID)
}
