package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, email, password, role string) (User, error) {
	args := m.Called(ctx, email, password, role)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func TestService_Register(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", mock.Anything, "buyer@velora.test", mock.AnythingOfType("string"), "USER").
			Return(User{ID: 1, Email: "buyer@velora.test", Role: RoleUser}, nil)

		token, u, err := svc.Register(context.Background(), "buyer@velora.test", "s3cret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, uint(1), u.ID)
		repo.AssertExpectations(t)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(User{}, errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

		_, _, err := svc.Register(context.Background(), "buyer@velora.test", "s3cret-password")
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hashed, err := HashPassword("s3cret-password")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", mock.Anything, "buyer@velora.test").
			Return(User{ID: 1, Email: "buyer@velora.test", Password: hashed, Role: RoleUser}, nil)

		token, u, err := svc.Login(context.Background(), "buyer@velora.test", "s3cret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", mock.Anything, "ghost@velora.test").
			Return(User{}, errors.New("sql: no rows in result set"))

		_, _, err := svc.Login(context.Background(), "ghost@velora.test", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", mock.Anything, "buyer@velora.test").
			Return(User{ID: 1, Password: hashed}, nil)

		_, _, err := svc.Login(context.Background(), "buyer@velora.test", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
