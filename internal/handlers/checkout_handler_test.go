package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, userID int64, orderID int64, info model.BillingInfo) (*model.Order, error) {
	args := m.Called(ctx, userID, orderID, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockCheckoutService) CheckoutAsGuest(ctx context.Context, orderID int64, info model.BillingInfo, password string) (*model.Order, *model.Session, error) {
	args := m.Called(ctx, orderID, info, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).(*model.Session), args.Error(2)
}

func (m *MockCheckoutService) LoginAndCheckout(ctx context.Context, orderID int64, creds model.Credentials, info model.BillingInfo) (*model.Order, *model.Session, error) {
	args := m.Called(ctx, orderID, creds, info)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).(*model.Session), args.Error(2)
}

func TestCheckoutHandler_Checkout(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		body, _ := json.Marshal(checkoutRequest{Billing: model.BillingInfo{Name: "Ama", Email: "a@b.c"}})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout", body)
		ctx.SetUserValue("id", "1")
		handler.Checkout(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("checks out", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		userID := int64(7)
		svc.On("Checkout", mock.Anything, userID, int64(1), mock.MatchedBy(func(b model.BillingInfo) bool {
			return b.Email == "ama@example.com"
		})).Return(&model.Order{ID: 1, UserID: &userID}, nil)

		body, _ := json.Marshal(checkoutRequest{Billing: model.BillingInfo{Name: "Ama", Email: "ama@example.com"}})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout", body)
		ctx.Request.Header.Set("X-User-ID", "7")
		ctx.SetUserValue("id", "1")
		handler.Checkout(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(1), resp.Order.ID)
		assert.Nil(t, resp.Session)
	})

	t.Run("duplicate billing maps to 409", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		svc.On("Checkout", mock.Anything, int64(7), int64(1), mock.Anything).
			Return(nil, model.ErrBillingExists)

		body, _ := json.Marshal(checkoutRequest{Billing: model.BillingInfo{Name: "Ama", Email: "a@b.c"}})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout", body)
		ctx.Request.Header.Set("X-User-ID", "7")
		ctx.SetUserValue("id", "1")
		handler.Checkout(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})
}

func TestCheckoutHandler_CheckoutAsGuest(t *testing.T) {
	t.Run("registers and checks out", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		userID := int64(42)
		session := &model.Session{Identity: model.Identity{ID: userID}}
		svc.On("CheckoutAsGuest", mock.Anything, int64(1), mock.Anything, "secret").
			Return(&model.Order{ID: 1, UserID: &userID}, session, nil)

		body, _ := json.Marshal(guestCheckoutRequest{
			Billing:  model.BillingInfo{Name: "Ama", Email: "ama@example.com"},
			Password: "secret",
		})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout/register", body)
		ctx.SetUserValue("id", "1")
		handler.CheckoutAsGuest(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var resp checkoutResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		require.NotNil(t, resp.Session)
		assert.Equal(t, userID, resp.Session.Identity.ID)
	})

	t.Run("missing password", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		body, _ := json.Marshal(guestCheckoutRequest{
			Billing: model.BillingInfo{Name: "Ama", Email: "ama@example.com"},
		})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout/register", body)
		ctx.SetUserValue("id", "1")
		handler.CheckoutAsGuest(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("email taken maps to 409", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		svc.On("CheckoutAsGuest", mock.Anything, int64(1), mock.Anything, "secret").
			Return(nil, nil, model.ErrEmailTaken)

		body, _ := json.Marshal(guestCheckoutRequest{
			Billing:  model.BillingInfo{Name: "Ama", Email: "taken@example.com"},
			Password: "secret",
		})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout/register", body)
		ctx.SetUserValue("id", "1")
		handler.CheckoutAsGuest(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})
}

func TestCheckoutHandler_LoginAndCheckout(t *testing.T) {
	t.Run("invalid credentials map to 401", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		svc.On("LoginAndCheckout", mock.Anything, int64(1), mock.Anything, mock.Anything).
			Return(nil, nil, model.ErrInvalidCredentials)

		body, _ := json.Marshal(loginCheckoutRequest{
			Billing:     model.BillingInfo{Name: "Ama", Email: "ama@example.com"},
			Credentials: model.Credentials{Email: "ama@example.com", Password: "wrong"},
		})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout/login", body)
		ctx.SetUserValue("id", "1")
		handler.LoginAndCheckout(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("logs in and checks out", func(t *testing.T) {
		svc := new(MockCheckoutService)
		handler := NewCheckoutHandler(svc)

		userID := int64(7)
		session := &model.Session{Identity: model.Identity{ID: userID}}
		svc.On("LoginAndCheckout", mock.Anything, int64(1), mock.Anything, mock.Anything).
			Return(&model.Order{ID: 1, UserID: &userID}, session, nil)

		body, _ := json.Marshal(loginCheckoutRequest{
			Billing:     model.BillingInfo{Name: "Ama", Email: "ama@example.com"},
			Credentials: model.Credentials{Email: "ama@example.com", Password: "secret"},
		})
		ctx := setupTestContext("POST", "/api/v1/orders/1/checkout/login", body)
		ctx.SetUserValue("id", "1")
		handler.LoginAndCheckout(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})
}
