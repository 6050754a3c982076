package main

import (
	"net/http"

	"velora-be/internal/cart"
	"velora-be/internal/config"
	"velora-be/internal/db"
	"velora-be/internal/dispatch"
	"velora-be/internal/email"
	"velora-be/internal/logger"
	"velora-be/internal/middleware"
	"velora-be/internal/order"
	"velora-be/internal/payment"
	"velora-be/internal/payment/webhook"
	"velora-be/internal/product"
	"velora-be/internal/user"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	dispatcher := dispatch.NewRunner()
	defer dispatcher.Wait()

	// Repositories
	userRepo := user.NewRepository(database)
	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	// External adapters
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	sender := email.NewSender(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName)

	// Services
	userSvc := user.NewService(userRepo)
	productSvc := product.NewService(productRepo)
	cartSvc := cart.NewService(cartRepo, productRepo)
	orderSvc := order.NewService(
		orderRepo, productRepo, cartSvc, gateway, sender,
		dispatcher, cfg.FrontendURL,
	)

	// Handlers
	userHandler := user.NewHandler(userSvc)
	productHandler := product.NewHandler(productSvc)
	cartHandler := cart.NewHandler(cartSvc)
	orderHandler := order.NewHandler(orderSvc)
	webhookHandler := webhook.NewStripeWebhookHandler(orderSvc, gateway, paymentRepo, &webhook.Metrics{})

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/auth/login", userHandler.Login)

	// Catalog
	mux.HandleFunc("GET /api/products", productHandler.List)
	mux.HandleFunc("GET /api/products/{id}", productHandler.Get)
	mux.HandleFunc("POST /api/admin/products", middleware.RequireAdmin(productHandler.Create))

	// Cart
	mux.HandleFunc("GET /api/cart", middleware.RequireAuth(cartHandler.Get))
	mux.HandleFunc("POST /api/cart", middleware.RequireAuth(cartHandler.AddItem))
	mux.HandleFunc("PUT /api/cart", middleware.RequireAuth(cartHandler.UpdateItem))
	mux.HandleFunc("DELETE /api/cart/{productID}", middleware.RequireAuth(cartHandler.RemoveItem))

	// Checkout and orders
	mux.HandleFunc("POST /api/checkout", middleware.RequireAuth(orderHandler.Checkout))
	mux.HandleFunc("GET /api/orders", middleware.RequireAuth(orderHandler.List))
	mux.HandleFunc("GET /api/orders/session/{sessionID}", orderHandler.GetBySession)
	mux.HandleFunc("PATCH /api/admin/orders/{orderID}/status", middleware.RequireAdmin(orderHandler.UpdateStatus))

	// Stripe calls this route directly. The body must stay untouched for
	// signature verification, so nothing between here and the handler
	// may read or rewrite it.
	mux.HandleFunc("POST /webhook/stripe", webhookHandler.HandleStripeWebhook)

	// Auth runs before the limiter so authenticated traffic is bucketed
	// per user rather than per source IP.
	handler := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.CORS(
				middleware.AuthMiddleware(
					middleware.RateLimitMiddleware(mux),
				),
			),
		),
	)

	addr := ":" + cfg.AppPort
	logger.L().Info("server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
