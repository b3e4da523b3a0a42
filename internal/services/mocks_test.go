package services

import (
	"context"
	"time"

	gateway "github.com/remita/exchange-gateway/internal/gateways"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64, userID *int64) (*model.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignOwner(ctx context.Context, orderID int64, userID int64) error {
	args := m.Called(ctx, orderID, userID)
	return args.Error(0)
}

func (m *MockOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockMonthHistoryRepository struct {
	mock.Mock
}

func (m *MockMonthHistoryRepository) Upsert(ctx context.Context, userID int64, day, month, year int, amount float64) error {
	args := m.Called(ctx, userID, day, month, year, amount)
	return args.Error(0)
}

func (m *MockMonthHistoryRepository) DaysForMonth(ctx context.Context, month, year int, userID *int64) ([]model.HistoryDay, error) {
	args := m.Called(ctx, month, year, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HistoryDay), args.Error(1)
}

func (m *MockMonthHistoryRepository) Years(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

type MockYearHistoryRepository struct {
	mock.Mock
}

func (m *MockYearHistoryRepository) Upsert(ctx context.Context, userID int64, month, year int, amount float64) error {
	args := m.Called(ctx, userID, month, year, amount)
	return args.Error(0)
}

func (m *MockYearHistoryRepository) MonthsForYear(ctx context.Context, year int, userID *int64) ([]model.HistoryMonth, error) {
	args := m.Called(ctx, year, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HistoryMonth), args.Error(1)
}

type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Create(ctx context.Context, b *model.OrderBilling) (*model.OrderBilling, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderBilling), args.Error(1)
}

func (m *MockBillingRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.OrderBilling, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderBilling), args.Error(1)
}

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetRate(ctx context.Context, currencyCode string) (*gateway.Rate, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Rate), args.Error(1)
}

type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockAttachmentStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAttachmentStore) SignedURL(key string, ttl time.Duration) string {
	args := m.Called(key, ttl)
	return args.String(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockIdentityProvider) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockIdentityProvider) SetPhone(ctx context.Context, userID int64, phone string) error {
	args := m.Called(ctx, userID, phone)
	return args.Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) RevenueByCurrency(ctx context.Context, statuses []model.OrderStatus, f model.StatsFilter) ([]model.RevenueRow, error) {
	args := m.Called(ctx, statuses, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RevenueRow), args.Error(1)
}

func (m *MockReportRepository) CountOrders(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (int64, error) {
	callArgs := []interface{}{ctx, f}
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportRepository) SumAmount(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (float64, error) {
	callArgs := []interface{}{ctx, f}
	for _, s := range statuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockReportRepository) SumAmountExcluding(ctx context.Context, f model.StatsFilter, status model.OrderStatus) (float64, error) {
	args := m.Called(ctx, f, status)
	return args.Get(0).(float64), args.Error(1)
}
