package order

import "errors"

var (
	// -- Authentication/Authorization --
	ErrUserNotAuthenticated = errors.New("user not authenticated")

	// -- Validation & Input --
	ErrCartEmpty       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("invalid item quantity")
	ErrInvalidStatus   = errors.New("invalid order status")

	// -- Resource State --
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)
