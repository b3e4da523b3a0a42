package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gateway "github.com/remita/exchange-gateway/internal/gateways"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/internal/repository"
	"github.com/remita/exchange-gateway/pkg/logger"
	"github.com/remita/exchange-gateway/pkg/prom"
)

const signedURLTTL = 15 * time.Minute

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64, userID *int64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MonthHistoryRepository interface {
	Upsert(ctx context.Context, userID int64, day, month, year int, amount float64) error
}

type YearHistoryRepository interface {
	Upsert(ctx context.Context, userID int64, month, year int, amount float64) error
}

type BillingReader interface {
	GetByOrderID(ctx context.Context, orderID int64) (*model.OrderBilling, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type OrderService struct {
	orderRepo   OrderRepository
	monthRepo   MonthHistoryRepository
	yearRepo    YearHistoryRepository
	billingRepo BillingReader
	rates       gateway.RateProvider
	attachments gateway.AttachmentStore
	events      EventPublisher
	now         func() time.Time
}

func NewOrderService(
	orderRepo OrderRepository,
	monthRepo MonthHistoryRepository,
	yearRepo YearHistoryRepository,
	billingRepo BillingReader,
	rates gateway.RateProvider,
	attachments gateway.AttachmentStore,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		monthRepo:   monthRepo,
		yearRepo:    yearRepo,
		billingRepo: billingRepo,
		rates:       rates,
		attachments: attachments,
		events:      events,
		now:         time.Now,
	}
}

// Create places a new exchange order. The rate is resolved once and frozen
// onto the order; later rate changes never touch existing rows. A nil userID
// means a guest order, which skips the history counters until it is claimed
// at checkout.
func (s *OrderService) Create(ctx context.Context, userID *int64, req model.OrderCreateRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rate, err := s.rates.GetRate(ctx, req.CurrencyCode)
	if err != nil {
		return nil, err
	}

	// Upload before the transaction: a dangling object is recoverable, a
	// committed order without its QR code is not.
	key := gateway.NewAttachmentKey(req.AttachmentName)
	if err := s.attachments.Put(ctx, key, req.Attachment); err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:         userID,
		AccountType:    req.AccountType,
		Product:        req.Product,
		CurrencyCode:   rate.CurrencyCode,
		Rate:           rate.Rate,
		Amount:         req.Amount,
		RmbEquivalence: req.Amount * rate.Rate,
		Recipient:      req.Recipient,
		QRCodeKey:      key,
		Status:         model.OrderStatusHeld,
	}

	var created *model.Order
	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = s.orderRepo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if userID != nil {
			now := s.now()
			if err := s.monthRepo.Upsert(ctx, *userID, now.Day(), int(now.Month()), now.Year(), created.Amount); err != nil {
				return fmt.Errorf("upsert month history: %w", err)
			}
			if err := s.yearRepo.Upsert(ctx, *userID, int(now.Month()), now.Year(), created.Amount); err != nil {
				return fmt.Errorf("upsert year history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if delErr := s.attachments.Delete(ctx, key); delErr != nil {
			logger.Warn("Failed to delete orphaned attachment", "key", key, "error", delErr)
		}
		return nil, err
	}

	prom.IncCounterVec(prom.SystemOrders, prom.MetricOrderCreatedTotal, created.CurrencyCode)

	created.QRCodeURL = s.attachments.SignedURL(created.QRCodeKey, signedURLTTL)
	return created, nil
}

// Get returns one order. A non-nil userID scopes the lookup to that owner;
// orders belonging to someone else surface as not found.
func (s *OrderService) Get(ctx context.Context, id int64, userID *int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, translateOrderErr(err)
	}
	s.attachSignedURL(order)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for _, o := range orders {
		s.attachSignedURL(o)
	}
	return orders, total, nil
}

// UpdateStatus moves an order to the given status and emits a status-changed
// event when the order has billing contact details. Transitions are not
// constrained; operations staff correct mistakes by moving orders freely.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, translateOrderErr(err)
	}

	s.publishStatusChanged(ctx, order)
	s.attachSignedURL(order)
	return order, nil
}

// publishStatusChanged is best-effort: the status is already committed and a
// lost email must not roll it back.
func (s *OrderService) publishStatusChanged(ctx context.Context, order *model.Order) {
	billing, err := s.billingRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrBillingNotFound) {
			logger.Warn("Failed to load billing for status event", "order_id", order.ID, "error", err)
		}
		// No billing yet means nobody to notify.
		return
	}

	event := model.OrderEvent{
		EventID:  uuid.NewString(),
		Name:     billing.Name,
		Email:    billing.Email,
		Buyer:    billing.Name,
		Order:    order,
		MomoName: billing.MomoName,
		Status:   order.Status,
	}
	meta := map[string]string{"type": model.EventOrderStatusChanged}
	if _, err := s.events.PublishJSON(ctx, event, meta); err != nil {
		logger.Error("Failed to publish status-changed event", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) attachSignedURL(order *model.Order) {
	if order.QRCodeKey == "" {
		return
	}
	order.QRCodeURL = s.attachments.SignedURL(order.QRCodeKey, signedURLTTL)
}

func translateOrderErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return model.ErrOrderNotFound
	case errors.Is(err, repository.ErrOrderOwned):
		return model.ErrOrderAlreadyOwned
	default:
		return err
	}
}
