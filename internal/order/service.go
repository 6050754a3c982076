package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"velora-be/internal/cart"
	"velora-be/internal/dispatch"
	"velora-be/internal/logger"
	"velora-be/internal/payment"
	"velora-be/internal/product"
	"velora-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCurrency applies to every checkout session. Multi-currency
// pricing would need per-product currency columns first.
const DefaultCurrency = "usd"

// ConfirmationSender delivers the post-payment confirmation email.
// Implemented by the email package; kept narrow so tests can count
// deliveries.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

type Service interface {
	Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)

	ReconcilePaid(ctx context.Context, sessionID string, amountTotal *float64) error
	ReconcileFailed(ctx context.Context, sessionID string) error

	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	ListByUser(ctx context.Context, userID uint) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
	cartSvc     cart.Service
	gateway     payment.Gateway
	sender      ConfirmationSender
	dispatcher  *dispatch.Runner
	frontendURL string
}

func NewService(
	repo Repository,
	productRepo product.Repository,
	cartSvc cart.Service,
	gateway payment.Gateway,
	sender ConfirmationSender,
	dispatcher *dispatch.Runner,
	frontendURL string,
) Service {
	return &service{
		repo:        repo,
		productRepo: productRepo,
		cartSvc:     cartSvc,
		gateway:     gateway,
		sender:      sender,
		dispatcher:  dispatcher,
		frontendURL: frontendURL,
	}
}

// Checkout snapshots the requested items at current catalog prices,
// persists a PENDING order, then opens a Stripe Checkout session for
// it. The order row exists before Stripe is ever contacted, so a crash
// mid-checkout leaves an auditable PENDING order rather than a paid
// session with no local record.
func (s *service) Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", params.UserID),
	)

	if params.UserID == 0 {
		return nil, ErrUserNotAuthenticated
	}

	inputs, err := s.resolveItems(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, in.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	userID := params.UserID
	o := &Order{
		ID:            uuid.New(),
		Reference:     utils.GenerateOrderReference(),
		UserID:        &userID,
		Customer:      params.Email,
		Currency:      DefaultCurrency,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
	}

	var total float64
	checkoutItems := make([]payment.CheckoutItem, 0, len(inputs))
	for _, in := range inputs {
		p, ok := byID[in.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}

		unitPrice := p.UnitPrice()
		total += unitPrice * float64(in.Quantity)

		o.Items = append(o.Items, OrderItem{
			OrderID:     o.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
		})
		checkoutItems = append(checkoutItems, payment.CheckoutItem{
			Name:       p.Name,
			UnitAmount: toMinorUnits(unitPrice),
			Quantity:   int64(in.Quantity),
		})
	}
	o.Amount = math.Round(total*100) / 100

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionParams{
		OrderID:       o.ID.String(),
		Reference:     o.Reference,
		CustomerEmail: params.Email,
		Currency:      o.Currency,
		Items:         checkoutItems,
		SuccessURL:    s.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.frontendURL + "/checkout/cancel",
	})
	if err != nil {
		log.Error("checkout session creation failed",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		// Close the order out so it does not linger as PENDING
		s.dispatcher.Go(ctx, "order.mark_failed", func(taskCtx context.Context) error {
			return s.repo.MarkFailedByID(taskCtx, o.ID)
		})
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.repo.SetStripeSession(ctx, o.ID, session.SessionID); err != nil {
		log.Error("failed to persist session id",
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", session.SessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("persist session id: %w", err)
	}

	log.Info("checkout session opened",
		zap.String("order_id", o.ID.String()),
		zap.String("reference", o.Reference),
		zap.String("session_id", session.SessionID),
		zap.Float64("amount", o.Amount),
	)

	return &CheckoutResult{
		OrderID:   o.ID,
		Reference: o.Reference,
		SessionID: session.SessionID,
		URL:       session.URL,
	}, nil
}

// resolveItems prefers explicit request items and falls back to the
// persisted cart when none were sent.
func (s *service) resolveItems(ctx context.Context, params CheckoutParams) ([]CheckoutItemInput, error) {
	if len(params.Items) > 0 {
		return params.Items, nil
	}

	cartItems, err := s.cartSvc.GetCart(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, cart.ErrUserNotAuthenticated) {
			return nil, ErrUserNotAuthenticated
		}
		return nil, err
	}

	inputs := make([]CheckoutItemInput, 0, len(cartItems))
	for _, ci := range cartItems {
		inputs = append(inputs, CheckoutItemInput{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
		})
	}
	return inputs, nil
}

// ReconcilePaid transitions the order for sessionID to PAID. The
// conditional update makes redelivered and concurrent events no-ops;
// side effects run only for the delivery that actually flipped the row.
func (s *service) ReconcilePaid(ctx context.Context, sessionID string, amountTotal *float64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReconcilePaid"),
		zap.String("session_id", sessionID),
	)

	o, err := s.repo.MarkPaidBySessionID(ctx, sessionID, amountTotal)
	if err != nil {
		return err
	}
	if o == nil {
		// Unknown session or already reconciled. Acknowledge so the
		// provider stops retrying.
		log.Info("no pending order for session, nothing to reconcile")
		return nil
	}

	items, err := s.repo.GetOrderItems(ctx, o.ID)
	if err != nil {
		log.Error("failed to load order items for confirmation", zap.Error(err))
	} else {
		o.Items = items
	}

	if o.UserID != nil {
		userID := *o.UserID
		s.dispatcher.Go(ctx, "cart.clear", func(taskCtx context.Context) error {
			return s.cartSvc.ClearCart(taskCtx, userID)
		})
	}

	s.dispatcher.Go(ctx, "email.order_confirmation", func(taskCtx context.Context) error {
		return s.sender.SendOrderConfirmation(taskCtx, o)
	})

	return nil
}

func (s *service) ReconcileFailed(ctx context.Context, sessionID string) error {
	o, err := s.repo.MarkFailedBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if o != nil {
		logger.FromCtx(ctx).Info("order marked failed",
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", sessionID),
		)
	}
	return nil
}

func (s *service) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	if sessionID == "" {
		return nil, ErrOrderNotFound
	}
	return s.repo.GetBySessionID(ctx, sessionID)
}

func (s *service) ListByUser(ctx context.Context, userID uint) ([]Order, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.GetByUser(ctx, userID)
}

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusShipped:   true,
	StatusDelivered: true,
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	return s.repo.UpdateFulfillmentStatus(ctx, orderID, status)
}

// toMinorUnits converts a currency-unit price into integer cents for
// the provider. Rounding happens per unit, matching what the line item
// snapshot stores.
func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
