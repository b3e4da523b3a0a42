package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/remita/exchange-gateway/internal/model"
	xhttp "github.com/remita/exchange-gateway/pkg/http"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, orderID int64, info model.BillingInfo) (*model.Order, error)
	CheckoutAsGuest(ctx context.Context, orderID int64, info model.BillingInfo, password string) (*model.Order, *model.Session, error)
	LoginAndCheckout(ctx context.Context, orderID int64, creds model.Credentials, info model.BillingInfo) (*model.Order, *model.Session, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func RegisterCheckoutRoutes(e *router.Group, h *CheckoutHandler) {
	e.POST("/orders/{id}/checkout", h.Checkout)
	e.POST("/orders/{id}/checkout/register", h.CheckoutAsGuest)
	e.POST("/orders/{id}/checkout/login", h.LoginAndCheckout)
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		svc: svc,
	}
}

type checkoutRequest struct {
	Billing model.BillingInfo `json:"billing"`
}

type guestCheckoutRequest struct {
	Billing  model.BillingInfo `json:"billing"`
	Password string            `json:"password"`
}

type loginCheckoutRequest struct {
	Billing     model.BillingInfo `json:"billing"`
	Credentials model.Credentials `json:"credentials"`
}

type checkoutResponse struct {
	Order   *model.Order   `json:"order"`
	Session *model.Session `json:"session,omitempty"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *CheckoutHandler) Checkout(ctx *xhttp.RequestCtx) {
	orderID, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}

	userID := ownerID(ctx)
	if userID == nil {
		writeError(ctx, xhttp.StatusUnauthorized, "authentication required")
		return
	}

	var req checkoutRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.svc.Checkout(ctx, *userID, orderID, req.Billing)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, checkoutResponse{Order: order})
}

func (h *CheckoutHandler) CheckoutAsGuest(ctx *xhttp.RequestCtx) {
	orderID, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}

	var req guestCheckoutRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Password == "" {
		writeError(ctx, xhttp.StatusBadRequest, "password is required")
		return
	}

	order, session, err := h.svc.CheckoutAsGuest(ctx, orderID, req.Billing, req.Password)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, checkoutResponse{Order: order, Session: session})
}

func (h *CheckoutHandler) LoginAndCheckout(ctx *xhttp.RequestCtx) {
	orderID, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}

	var req loginCheckoutRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	order, session, err := h.svc.LoginAndCheckout(ctx, orderID, req.Credentials, req.Billing)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, checkoutResponse{Order: order, Session: session})
}
