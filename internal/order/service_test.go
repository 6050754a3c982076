package order

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"velora-be/internal/cart"
	"velora-be/internal/dispatch"
	"velora-be/internal/payment"
	"velora-be/internal/product"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

func (m *MockRepository) MarkPaidBySessionID(ctx context.Context, sessionID string, amount *float64) (*Order, error) {
	args := m.Called(ctx, sessionID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkFailedBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkFailedByID(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockRepository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByUser(ctx context.Context, userID uint) ([]Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uint) ([]product.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p product.Product) (product.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(product.Product), args.Error(1)
}

type MockCartService struct {
	mock.Mock
	clearCount atomic.Int64
}

func (m *MockCartService) AddToCart(ctx context.Context, params cart.AddToCartParams) (*cart.CartItem, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.CartItem), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, userID uint) ([]cart.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.CartItem), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, params cart.UpdateCartParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockCartService) RemoveFromCart(ctx context.Context, params cart.RemoveFromCartParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockCartService) ClearCart(ctx context.Context, userID uint) error {
	m.clearCount.Add(1)
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params payment.CheckoutSessionParams) (*payment.CheckoutSessionResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSessionResult), args.Error(1)
}

func (m *MockGateway) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	args := m.Called(payload, sigHeader)
	return args.Get(0).(stripe.Event), args.Error(1)
}

type MockSender struct {
	mock.Mock
	sendCount atomic.Int64
}

func (m *MockSender) SendOrderConfirmation(ctx context.Context, o *Order) error {
	m.sendCount.Add(1)
	args := m.Called(ctx, o)
	return args.Error(0)
}

type serviceFixture struct {
	repo        *MockRepository
	productRepo *MockProductRepository
	cartSvc     *MockCartService
	gateway     *MockGateway
	sender      *MockSender
	dispatcher  *dispatch.Runner
	svc         Service
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:        new(MockRepository),
		productRepo: new(MockProductRepository),
		cartSvc:     new(MockCartService),
		gateway:     new(MockGateway),
		sender:      new(MockSender),
		dispatcher:  dispatch.NewRunner(),
	}
	f.svc = NewService(
		f.repo, f.productRepo, f.cartSvc, f.gateway, f.sender,
		f.dispatcher, "https://shop.example.com",
	)
	return f
}

func desk() product.Product {
	return product.Product{ID: 10, Name: "Walnut Desk", Price: 249.99, InStock: true}
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesPendingOrderWithSessionID", func(t *testing.T) {
		f := newServiceFixture()

		var created *Order
		f.productRepo.On("GetByIDs", ctx, []uint{10}).Return([]product.Product{desk()}, nil)
		f.repo.On("CreateOrderTx", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*Order)
			}).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.AnythingOfType("payment.CheckoutSessionParams")).
			Return(&payment.CheckoutSessionResult{SessionID: "cs_test_abc", URL: "https://stripe.test/pay"}, nil)
		f.repo.On("SetStripeSession", ctx, mock.AnythingOfType("uuid.UUID"), "cs_test_abc").Return(nil)

		result, err := f.svc.Checkout(ctx, CheckoutParams{
			UserID: 1,
			Email:  "buyer@example.com",
			Items:  []CheckoutItemInput{{ProductID: 10, Quantity: 2}},
		})
		require.NoError(t, err)

		assert.Equal(t, "cs_test_abc", result.SessionID)
		assert.NotEmpty(t, result.Reference)

		require.NotNil(t, created)
		assert.Equal(t, PaymentPending, created.PaymentStatus)
		assert.Equal(t, 499.98, created.Amount)
		require.Len(t, created.Items, 1)
		assert.Equal(t, 249.99, created.Items[0].UnitPrice)

		gatewayParams := f.gateway.Calls[0].Arguments.Get(1).(payment.CheckoutSessionParams)
		require.Len(t, gatewayParams.Items, 1)
		assert.Equal(t, int64(24999), gatewayParams.Items[0].UnitAmount)
		assert.Equal(t, created.ID.String(), gatewayParams.OrderID)

		f.repo.AssertNumberOfCalls(t, "CreateOrderTx", 1)
	})

	t.Run("OfferPriceWins", func(t *testing.T) {
		f := newServiceFixture()

		offer := 199.99
		p := desk()
		p.OfferPrice = &offer

		var created *Order
		f.productRepo.On("GetByIDs", ctx, []uint{10}).Return([]product.Product{p}, nil)
		f.repo.On("CreateOrderTx", ctx, mock.Anything).
			Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(&payment.CheckoutSessionResult{SessionID: "cs_test_abc", URL: "u"}, nil)
		f.repo.On("SetStripeSession", ctx, mock.Anything, "cs_test_abc").Return(nil)

		_, err := f.svc.Checkout(ctx, CheckoutParams{
			UserID: 1,
			Items:  []CheckoutItemInput{{ProductID: 10, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, 199.99, created.Items[0].UnitPrice)
	})

	t.Run("FallsBackToPersistedCart", func(t *testing.T) {
		f := newServiceFixture()

		f.cartSvc.On("GetCart", ctx, uint(1)).Return([]cart.CartItem{
			{UserID: 1, ProductID: 10, Quantity: 3},
		}, nil)
		f.productRepo.On("GetByIDs", ctx, []uint{10}).Return([]product.Product{desk()}, nil)
		f.repo.On("CreateOrderTx", ctx, mock.Anything).Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(&payment.CheckoutSessionResult{SessionID: "cs_test_abc", URL: "u"}, nil)
		f.repo.On("SetStripeSession", ctx, mock.Anything, "cs_test_abc").Return(nil)

		result, err := f.svc.Checkout(ctx, CheckoutParams{UserID: 1})
		require.NoError(t, err)
		assert.Equal(t, "cs_test_abc", result.SessionID)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := newServiceFixture()

		f.cartSvc.On("GetCart", ctx, uint(1)).Return([]cart.CartItem{}, nil)

		_, err := f.svc.Checkout(ctx, CheckoutParams{UserID: 1})
		assert.ErrorIs(t, err, ErrCartEmpty)
		f.repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		f := newServiceFixture()

		f.productRepo.On("GetByIDs", ctx, []uint{99}).Return([]product.Product{}, nil)

		_, err := f.svc.Checkout(ctx, CheckoutParams{
			UserID: 1,
			Items:  []CheckoutItemInput{{ProductID: 99, Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrProductNotFound)
		f.repo.AssertNotCalled(t, "CreateOrderTx", mock.Anything, mock.Anything)
	})

	t.Run("ProviderFailureMarksOrderFailed", func(t *testing.T) {
		f := newServiceFixture()

		var created *Order
		f.productRepo.On("GetByIDs", ctx, []uint{10}).Return([]product.Product{desk()}, nil)
		f.repo.On("CreateOrderTx", ctx, mock.Anything).
			Run(func(args mock.Arguments) { created = args.Get(1).(*Order) }).
			Return(nil)
		f.gateway.On("CreateCheckoutSession", ctx, mock.Anything).
			Return(nil, errors.New("stripe unavailable"))
		f.repo.On("MarkFailedByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

		_, err := f.svc.Checkout(ctx, CheckoutParams{
			UserID: 1,
			Items:  []CheckoutItemInput{{ProductID: 10, Quantity: 1}},
		})
		require.Error(t, err)

		f.dispatcher.Wait()
		f.repo.AssertCalled(t, "MarkFailedByID", mock.Anything, created.ID)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.Checkout(ctx, CheckoutParams{UserID: 0})
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)
	})
}

func TestService_ReconcilePaid(t *testing.T) {
	ctx := context.Background()

	t.Run("TransitionFiresSideEffectsOnce", func(t *testing.T) {
		f := newServiceFixture()

		o := &Order{ID: uuid.New(), Reference: "ORD-X", PaymentStatus: PaymentPaid}
		userID := uint(1)
		o.UserID = &userID

		amount := 500.00
		f.repo.On("MarkPaidBySessionID", ctx, "cs_test_abc", &amount).Return(o, nil)
		f.repo.On("GetOrderItems", ctx, o.ID).Return([]OrderItem{
			{OrderID: o.ID, ProductID: 10, ProductName: "Walnut Desk", Quantity: 2, UnitPrice: 249.99},
		}, nil)
		f.cartSvc.On("ClearCart", mock.Anything, uint(1)).Return(nil)
		f.sender.On("SendOrderConfirmation", mock.Anything, o).Return(nil)

		err := f.svc.ReconcilePaid(ctx, "cs_test_abc", &amount)
		require.NoError(t, err)

		f.dispatcher.Wait()
		assert.Equal(t, int64(1), f.cartSvc.clearCount.Load())
		assert.Equal(t, int64(1), f.sender.sendCount.Load())
	})

	t.Run("DuplicateDeliveryIsANoOp", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.On("MarkPaidBySessionID", ctx, "cs_test_abc", (*float64)(nil)).Return(nil, nil)

		err := f.svc.ReconcilePaid(ctx, "cs_test_abc", nil)
		require.NoError(t, err)

		f.dispatcher.Wait()
		assert.Equal(t, int64(0), f.cartSvc.clearCount.Load())
		assert.Equal(t, int64(0), f.sender.sendCount.Load())
	})

	t.Run("UnknownSessionIsAcknowledged", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.On("MarkPaidBySessionID", ctx, "cs_unknown", (*float64)(nil)).Return(nil, nil)

		err := f.svc.ReconcilePaid(ctx, "cs_unknown", nil)
		assert.NoError(t, err)
	})

	t.Run("SideEffectFailureDoesNotSurface", func(t *testing.T) {
		f := newServiceFixture()

		o := &Order{ID: uuid.New(), Reference: "ORD-X", PaymentStatus: PaymentPaid}
		userID := uint(1)
		o.UserID = &userID

		f.repo.On("MarkPaidBySessionID", ctx, "cs_test_abc", (*float64)(nil)).Return(o, nil)
		f.repo.On("GetOrderItems", ctx, o.ID).Return([]OrderItem{}, nil)
		f.cartSvc.On("ClearCart", mock.Anything, uint(1)).Return(errors.New("db down"))
		f.sender.On("SendOrderConfirmation", mock.Anything, o).Return(errors.New("smtp down"))

		err := f.svc.ReconcilePaid(ctx, "cs_test_abc", nil)
		assert.NoError(t, err)
		f.dispatcher.Wait()
	})
}

func TestService_ReconcileFailed(t *testing.T) {
	ctx := context.Background()

	f := newServiceFixture()

	o := &Order{ID: uuid.New(), PaymentStatus: PaymentFailed}
	f.repo.On("MarkFailedBySessionID", ctx, "cs_test_abc").Return(o, nil)

	err := f.svc.ReconcileFailed(ctx, "cs_test_abc")
	assert.NoError(t, err)

	f.dispatcher.Wait()
	assert.Equal(t, int64(0), f.cartSvc.clearCount.Load())
	assert.Equal(t, int64(0), f.sender.sendCount.Load())
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture()
		orderID := uuid.New()

		f.repo.On("UpdateFulfillmentStatus", ctx, orderID, StatusShipped).Return(nil)

		err := f.svc.UpdateStatus(ctx, orderID, StatusShipped)
		assert.NoError(t, err)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		f := newServiceFixture()

		err := f.svc.UpdateStatus(ctx, uuid.New(), Status("CANCELLED"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
		f.repo.AssertNotCalled(t, "UpdateFulfillmentStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ListByUser(t *testing.T) {
	ctx := context.Background()

	f := newServiceFixture()
	f.repo.On("GetByUser", ctx, uint(1)).Return([]Order{{ID: uuid.New()}}, nil)

	orders, err := f.svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = f.svc.ListByUser(ctx, 0)
	assert.ErrorIs(t, err, ErrUserNotAuthenticated)
}
