package service_test

import (
	"errors"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	anonymous = domain.Session{}
	customer  = domain.Session{Email: "c@b.com", Role: "user", Token: "C"}
	admin     = domain.Session{Email: "a@b.com", Role: domain.RoleAdmin, Token: "T"}

	testItem = domain.CatalogItem{
		ID:       "p1",
		Name:     "Ball",
		Price:    decimal.RequireFromString("9.99"),
		Category: &domain.Category{ID: "c1", Name: "Toys"},
	}
)

type dispatcherDeps struct {
	products    *MockProductsAPI
	cart        *MockCartAPI
	invalidator *MockInvalidator
	notifier    *recordingNotifier
}

func newDispatcher() (service.Dispatcher, dispatcherDeps) {
	deps := dispatcherDeps{
		products:    new(MockProductsAPI),
		cart:        new(MockCartAPI),
		invalidator: new(MockInvalidator),
		notifier:    new(recordingNotifier),
	}
	d := service.NewDispatcher(deps.products, deps.cart, deps.invalidator)
	return d, deps
}

func TestDispatcherAddToCart(t *testing.T) {
	t.Run("NotLoggedIn", func(t *testing.T) {
		d, deps := newDispatcher()

		err := d.AddToCart(t.Context(), anonymous, testItem, deps.notifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrLoginRequired)

		deps.cart.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything)
		deps.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeverityDefault,
			Message:  domain.MsgLoginFirst,
		}}, deps.notifier.Notices())
	})

	t.Run("Success", func(t *testing.T) {
		d, deps := newDispatcher()

		wantReq := domain.CartAddRequest{Item: testItem, Token: "C"}
		deps.cart.On("AddToCart", mock.Anything, wantReq).Return(nil).Once()
		deps.invalidator.On(
			"Invalidate", mock.Anything, []domain.CacheTag{domain.TagCart},
		).Return(nil).Once()

		err := d.AddToCart(t.Context(), customer, testItem, deps.notifier)
		require.NoError(t, err)

		deps.cart.AssertNumberOfCalls(t, "AddToCart", 1)
		deps.invalidator.AssertExpectations(t)
		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeveritySuccess,
			Message:  domain.MsgAddedToCart,
		}}, deps.notifier.Notices())
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		d, deps := newDispatcher()

		remoteErr := &domain.RemoteError{Status: 400, Message: "Out of stock"}
		deps.cart.On("AddToCart", mock.Anything, mock.Anything).
			Return(remoteErr).Once()

		err := d.AddToCart(t.Context(), customer, testItem, deps.notifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, remoteErr)

		deps.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeverityError,
			Message:  "Out of stock",
		}}, deps.notifier.Notices())
	})

	t.Run("FailureWithoutMessage", func(t *testing.T) {
		d, deps := newDispatcher()

		deps.cart.On("AddToCart", mock.Anything, mock.Anything).
			Return(errors.New("dial tcp: connection refused")).Once()

		err := d.AddToCart(t.Context(), customer, testItem, deps.notifier)
		require.Error(t, err)

		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeverityError,
			Message:  domain.MsgUnexpectedError,
		}}, deps.notifier.Notices())
	})

	t.Run("InvalidationFailureKeepsSuccess", func(t *testing.T) {
		d, deps := newDispatcher()

		deps.cart.On("AddToCart", mock.Anything, mock.Anything).Return(nil).Once()
		deps.invalidator.On("Invalidate", mock.Anything, mock.Anything).
			Return(errors.New("broker unavailable")).Once()

		err := d.AddToCart(t.Context(), customer, testItem, deps.notifier)
		require.NoError(t, err)
		require.Len(t, deps.notifier.Notices(), 1)
		assert.Equal(t, domain.SeveritySuccess, deps.notifier.Notices()[0].Severity)
	})
}

func TestDispatcherDeleteProduct(t *testing.T) {
	t.Run("NotAdmin", func(t *testing.T) {
		d, deps := newDispatcher()
		confirmer := &stubConfirmer{answer: true}

		err := d.DeleteProduct(t.Context(), customer, "p1", confirmer, deps.notifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		assert.Empty(t, confirmer.prompts)
		deps.products.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
	})

	t.Run("ConfirmationDeclined", func(t *testing.T) {
		d, deps := newDispatcher()
		confirmer := &stubConfirmer{answer: false}

		err := d.DeleteProduct(t.Context(), admin, "p1", confirmer, deps.notifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCancelled)

		assert.Equal(t, []string{domain.MsgConfirmDelete}, confirmer.prompts)
		deps.products.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
		assert.Empty(t, deps.notifier.Notices())
	})

	t.Run("Confirmed", func(t *testing.T) {
		d, deps := newDispatcher()
		confirmer := &stubConfirmer{answer: true}

		wantReq := domain.DeleteRequest{ID: "p1", Token: "T"}
		deps.products.On("DeleteProduct", mock.Anything, wantReq).Return(nil).Once()
		deps.invalidator.On(
			"Invalidate", mock.Anything, []domain.CacheTag{domain.TagProducts},
		).Return(nil).Once()

		err := d.DeleteProduct(t.Context(), admin, "p1", confirmer, deps.notifier)
		require.NoError(t, err)

		deps.products.AssertNumberOfCalls(t, "DeleteProduct", 1)
		deps.products.AssertExpectations(t)
		deps.invalidator.AssertExpectations(t)
		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeveritySuccess,
			Message:  domain.MsgProductDeleted,
		}}, deps.notifier.Notices())
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		d, deps := newDispatcher()
		confirmer := &stubConfirmer{answer: true}

		deps.products.On("DeleteProduct", mock.Anything, mock.Anything).
			Return(&domain.RemoteError{Status: 403, Message: "Token expired"}).Once()

		err := d.DeleteProduct(t.Context(), admin, "p1", confirmer, deps.notifier)
		require.Error(t, err)

		deps.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeverityError,
			Message:  "Token expired",
		}}, deps.notifier.Notices())
	})

	t.Run("RemoteFailureEmptyMessage", func(t *testing.T) {
		d, deps := newDispatcher()
		confirmer := &stubConfirmer{answer: true}

		deps.products.On("DeleteProduct", mock.Anything, mock.Anything).
			Return(&domain.RemoteError{Status: 502}).Once()

		err := d.DeleteProduct(t.Context(), admin, "p1", confirmer, deps.notifier)
		require.Error(t, err)

		assert.Equal(t, []domain.Notice{{
			Severity: domain.SeverityError,
			Message:  domain.MsgUnexpectedError,
		}}, deps.notifier.Notices())
	})
}
