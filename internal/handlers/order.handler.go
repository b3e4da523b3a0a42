package handlers

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/remita/exchange-gateway/internal/model"
	xhttp "github.com/remita/exchange-gateway/pkg/http"
)

type OrderService interface {
	Create(ctx context.Context, userID *int64, req model.OrderCreateRequest) (*model.Order, error)
	Get(ctx context.Context, id int64, userID *int64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
}

type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.CreateOrder)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{id}", h.GetOrder)
	e.PUT("/orders/{id}/status", h.UpdateOrderStatus)
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{
		svc: svc,
	}
}

type listOrdersResponse struct {
	Items []*model.Order `json:"items"`
	Total int64          `json:"total"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

/* --------------------------------- Routes ----------------------------------- */

// CreateOrder accepts a multipart form: the order fields plus the QR code
// image under "qr_code". Guest and authenticated callers share the route;
// ownership comes from the X-User-ID header.
func (h *OrderHandler) CreateOrder(ctx *xhttp.RequestCtx) {
	form, err := ctx.MultipartForm()
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "multipart form expected: "+err.Error())
		return
	}

	req := model.OrderCreateRequest{
		AccountType:  formValue(form.Value, "account_type"),
		Product:      formValue(form.Value, "product"),
		CurrencyCode: formValue(form.Value, "currency_code"),
		Recipient:    formValue(form.Value, "recipient"),
	}

	if v := formValue(form.Value, "amount"); v != "" {
		req.Amount, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid amount")
			return
		}
	}

	files := form.File["qr_code"]
	if len(files) == 0 {
		writeError(ctx, xhttp.StatusBadRequest, "qr_code file is required")
		return
	}
	f, err := files[0].Open()
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "unreadable qr_code file")
		return
	}
	req.Attachment, err = io.ReadAll(f)
	f.Close()
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "unreadable qr_code file")
		return
	}
	req.AttachmentName = files[0].Filename

	order, err := h.svc.Create(ctx, ownerID(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.svc.Get(ctx, id, ownerID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	var f model.OrderFilter

	f.UserID = ownerID(ctx)
	if v := query(ctx, "status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				f.Statuses = append(f.Statuses, model.OrderStatus(part))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if !strings.EqualFold(query(ctx, "order"), "asc") {
		// Newest first is the default presentation.
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listOrdersResponse{Items: items, Total: total})
}

func (h *OrderHandler) UpdateOrderStatus(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.svc.UpdateStatus(ctx, id, model.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}
