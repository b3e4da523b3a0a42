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
)

type CheckoutOrderRepository interface {
	GetByID(ctx context.Context, id int64, userID *int64) (*model.Order, error)
	AssignOwner(ctx context.Context, orderID int64, userID int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BillingRepository interface {
	Create(ctx context.Context, b *model.OrderBilling) (*model.OrderBilling, error)
}

// CheckoutService attaches billing details to an order and, for orders
// placed as a guest, migrates ownership to the account checking out. The
// migration is the only moment a guest order enters the history counters.
type CheckoutService struct {
	orderRepo   CheckoutOrderRepository
	billingRepo BillingRepository
	monthRepo   MonthHistoryRepository
	yearRepo    YearHistoryRepository
	identity    gateway.IdentityProvider
	events      EventPublisher
	now         func() time.Time
}

func NewCheckoutService(
	orderRepo CheckoutOrderRepository,
	billingRepo BillingRepository,
	monthRepo MonthHistoryRepository,
	yearRepo YearHistoryRepository,
	identity gateway.IdentityProvider,
	events EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		billingRepo: billingRepo,
		monthRepo:   monthRepo,
		yearRepo:    yearRepo,
		identity:    identity,
		events:      events,
		now:         time.Now,
	}
}

// Checkout completes an order for an already authenticated account.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, orderID int64, info model.BillingInfo) (*model.Order, error) {
	return s.checkout(ctx, userID, orderID, info)
}

// CheckoutAsGuest registers a new account with the identity provider and
// completes the order under it. The order must have been placed as a guest.
func (s *CheckoutService) CheckoutAsGuest(ctx context.Context, orderID int64, info model.BillingInfo, password string) (*model.Order, *model.Session, error) {
	if err := info.Validate(); err != nil {
		return nil, nil, err
	}

	session, err := s.identity.Register(ctx, info.Name, info.Email, password)
	if err != nil {
		return nil, nil, err
	}

	// Best-effort profile sync; the new account works without a phone.
	if info.Whatsapp != "" {
		if err := s.identity.SetPhone(ctx, session.Identity.ID, info.Whatsapp); err != nil {
			logger.Warn("Phone sync failed", "user_id", session.Identity.ID, "error", err)
		}
	}

	order, err := s.checkout(ctx, session.Identity.ID, orderID, info)
	if err != nil {
		return nil, nil, err
	}
	return order, session, nil
}

// LoginAndCheckout authenticates an existing account and completes the order
// under it.
func (s *CheckoutService) LoginAndCheckout(ctx context.Context, orderID int64, creds model.Credentials, info model.BillingInfo) (*model.Order, *model.Session, error) {
	if err := info.Validate(); err != nil {
		return nil, nil, err
	}

	session, err := s.identity.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.checkout(ctx, session.Identity.ID, orderID, info)
	if err != nil {
		return nil, nil, err
	}
	return order, session, nil
}

func (s *CheckoutService) checkout(ctx context.Context, userID int64, orderID int64, info model.BillingInfo) (*model.Order, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID, nil)
	if err != nil {
		return nil, translateOrderErr(err)
	}
	if order.UserID != nil && *order.UserID != userID {
		// Someone else's order is indistinguishable from a missing one.
		return nil, model.ErrOrderNotFound
	}

	needsMigration := order.UserID == nil

	billing := &model.OrderBilling{
		OrderID:  orderID,
		Name:     info.Name,
		Whatsapp: info.Whatsapp,
		Email:    info.Email,
		MomoName: info.MomoName,
		Note:     info.Note,
	}

	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.billingRepo.Create(ctx, billing); err != nil {
			if errors.Is(err, repository.ErrDuplicateBilling) {
				return model.ErrBillingExists
			}
			return fmt.Errorf("create billing: %w", err)
		}

		if needsMigration {
			if err := s.orderRepo.AssignOwner(ctx, orderID, userID); err != nil {
				return translateOrderErr(err)
			}

			// Counters move at migration time, not at the order's creation
			// date.
			now := s.now()
			if err := s.monthRepo.Upsert(ctx, userID, now.Day(), int(now.Month()), now.Year(), order.Amount); err != nil {
				return fmt.Errorf("upsert month history: %w", err)
			}
			if err := s.yearRepo.Upsert(ctx, userID, int(now.Month()), now.Year(), order.Amount); err != nil {
				return fmt.Errorf("upsert year history: %w", err)
			}
		}

		event := model.OrderEvent{
			EventID:  uuid.NewString(),
			Name:     info.Name,
			Email:    info.Email,
			Buyer:    info.Name,
			Order:    order,
			MomoName: info.MomoName,
		}
		meta := map[string]string{"type": model.EventOrderCreated}
		if _, err := s.events.PublishJSON(ctx, event, meta); err != nil {
			return fmt.Errorf("publish order event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.GetByID(ctx, orderID, &userID)
}
