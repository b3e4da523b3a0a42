package services

import (
	"context"
	"testing"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture() (*ReportService, *MockReportRepository, *MockMonthHistoryRepository, *MockYearHistoryRepository) {
	reports := new(MockReportRepository)
	monthHist := new(MockMonthHistoryRepository)
	yearHist := new(MockYearHistoryRepository)
	svc := NewReportService(reports, monthHist, yearHist)
	return svc, reports, monthHist, yearHist
}

func TestReportService_Revenue(t *testing.T) {
	svc, reports, _, _ := newReportFixture()
	ctx := context.Background()
	f := model.StatsFilter{}

	reports.On("RevenueByCurrency", ctx, completedStatuses, f).
		Return([]model.RevenueRow{{CurrencyCode: "GHS", Total: 1800}}, nil)
	reports.On("RevenueByCurrency", ctx, heldStatuses, f).
		Return([]model.RevenueRow{
			{CurrencyCode: "GHS", Total: 900},
			{CurrencyCode: "NGN", Total: 500},
		}, nil)

	report, err := svc.Revenue(ctx, f)
	require.NoError(t, err)
	assert.Len(t, report.Completed, 1)
	assert.Len(t, report.Held, 2)
	assert.Equal(t, 1800.0, report.Completed[0].Total)
}

func TestReportService_Statistics(t *testing.T) {
	svc, reports, _, _ := newReportFixture()
	ctx := context.Background()
	f := model.StatsFilter{}

	reports.On("CountOrders", ctx, f).Return(int64(10), nil)
	reports.On("CountOrders", ctx, f, model.OrderStatusCompleted).Return(int64(4), nil)
	reports.On("CountOrders", ctx, f, model.OrderStatusHeld, model.OrderStatusPending).Return(int64(3), nil)
	reports.On("CountOrders", ctx, f, model.OrderStatusCancelled).Return(int64(2), nil)
	reports.On("SumAmount", ctx, f).Return(5000.0, nil)
	reports.On("SumAmount", ctx, f, model.OrderStatusCompleted).Return(2000.5, nil)
	reports.On("SumAmountExcluding", ctx, f, model.OrderStatusCompleted).Return(2999.5, nil)

	stats, err := svc.Statistics(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalOrders)
	assert.Equal(t, int64(4), stats.SuccessfulOrders)
	assert.Equal(t, int64(3), stats.HeldOrders)
	assert.Equal(t, int64(2), stats.CancelledOrders)
	assert.Equal(t, "5000.00", stats.ProjectedExpense)
	assert.Equal(t, "2000.50", stats.SuccessfulExpense)
	assert.Equal(t, "2999.50", stats.HeldExpense)
}

func TestReportService_HistoryByMonth_ZeroFills(t *testing.T) {
	svc, _, monthHist, _ := newReportFixture()
	ctx := context.Background()

	monthHist.On("DaysForMonth", ctx, 2, 2024, (*int64)(nil)).
		Return([]model.HistoryDay{
			{Day: 3, Orders: 2, Expense: 1800},
			{Day: 29, Orders: 1, Expense: 900},
		}, nil)

	days, err := svc.HistoryByMonth(ctx, 2, 2024, nil)
	require.NoError(t, err)

	// Leap February has 29 slots, sparse rows land in place.
	require.Len(t, days, 29)
	assert.Equal(t, model.HistoryDay{Day: 1}, days[0])
	assert.Equal(t, 2, days[2].Orders)
	assert.Equal(t, 1800.0, days[2].Expense)
	assert.Equal(t, 1, days[28].Orders)
}

func TestReportService_HistoryByMonth_InvalidMonth(t *testing.T) {
	svc, _, _, _ := newReportFixture()

	_, err := svc.HistoryByMonth(context.Background(), 13, 2024, nil)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	_, err = svc.HistoryByMonth(context.Background(), 0, 2024, nil)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
}

func TestReportService_HistoryByYear_ZeroFills(t *testing.T) {
	svc, _, _, yearHist := newReportFixture()
	ctx := context.Background()
	userID := int64(7)

	yearHist.On("MonthsForYear", ctx, 2025, &userID).
		Return([]model.HistoryMonth{{Month: 6, Orders: 5, Expense: 4500}}, nil)

	months, err := svc.HistoryByYear(ctx, 2025, &userID)
	require.NoError(t, err)

	require.Len(t, months, 12)
	assert.Equal(t, model.HistoryMonth{Month: 1}, months[0])
	assert.Equal(t, 5, months[5].Orders)
	assert.Equal(t, 4500.0, months[5].Expense)
	assert.Equal(t, model.HistoryMonth{Month: 12}, months[11])
}

func TestReportService_AvailableYears(t *testing.T) {
	ctx := context.Background()

	t.Run("returns recorded years", func(t *testing.T) {
		svc, _, monthHist, _ := newReportFixture()
		monthHist.On("Years", ctx).Return([]int{2023, 2024}, nil)

		years, err := svc.AvailableYears(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2023, 2024}, years)
	})

	t.Run("falls back to current year", func(t *testing.T) {
		svc, _, monthHist, _ := newReportFixture()
		svc.now = func() time.Time {
			return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		}
		monthHist.On("Years", ctx).Return([]int{}, nil)

		years, err := svc.AvailableYears(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2025}, years)
	})
}
