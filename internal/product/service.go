package product

import (
	"context"
	"errors"
)

type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id uint) (*Product, error)
	Create(ctx context.Context, p Product) (Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) Get(ctx context.Context, id uint) (*Product, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, p Product) (Product, error) {
	if p.Name == "" {
		return Product{}, errors.New("product name is required")
	}
	if p.Price <= 0 {
		return Product{}, errors.New("product price must be positive")
	}
	return s.repo.Create(ctx, p)
}
