package services

import (
	"context"
	"fmt"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
)

// heldStatuses is the revenue grouping for money not yet realized. The held
// expense scalar in Statistics uses `status != COMPLETED` instead; the two
// definitions are kept distinct on purpose, matching the dashboards.
var heldStatuses = []model.OrderStatus{
	model.OrderStatusHeld,
	model.OrderStatusPending,
	model.OrderStatusCancelled,
}

var completedStatuses = []model.OrderStatus{model.OrderStatusCompleted}

type ReportRepository interface {
	RevenueByCurrency(ctx context.Context, statuses []model.OrderStatus, f model.StatsFilter) ([]model.RevenueRow, error)
	CountOrders(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (int64, error)
	SumAmount(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (float64, error)
	SumAmountExcluding(ctx context.Context, f model.StatsFilter, status model.OrderStatus) (float64, error)
}

type MonthHistoryReader interface {
	DaysForMonth(ctx context.Context, month, year int, userID *int64) ([]model.HistoryDay, error)
	Years(ctx context.Context) ([]int, error)
}

type YearHistoryReader interface {
	MonthsForYear(ctx context.Context, year int, userID *int64) ([]model.HistoryMonth, error)
}

type ReportService struct {
	reports   ReportRepository
	monthHist MonthHistoryReader
	yearHist  YearHistoryReader
	now       func() time.Time
}

func NewReportService(reports ReportRepository, monthHist MonthHistoryReader, yearHist YearHistoryReader) *ReportService {
	return &ReportService{
		reports:   reports,
		monthHist: monthHist,
		yearHist:  yearHist,
		now:       time.Now,
	}
}

// Revenue groups order amounts by currency, split into realized (COMPLETED)
// and held buckets.
func (s *ReportService) Revenue(ctx context.Context, f model.StatsFilter) (*model.RevenueReport, error) {
	completed, err := s.reports.RevenueByCurrency(ctx, completedStatuses, f)
	if err != nil {
		return nil, err
	}
	held, err := s.reports.RevenueByCurrency(ctx, heldStatuses, f)
	if err != nil {
		return nil, err
	}
	return &model.RevenueReport{Completed: completed, Held: held}, nil
}

// Statistics returns the dashboard counters for the window. Expenses are
// formatted with two decimals because the consumers render them verbatim.
func (s *ReportService) Statistics(ctx context.Context, f model.StatsFilter) (*model.Statistics, error) {
	total, err := s.reports.CountOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	successful, err := s.reports.CountOrders(ctx, f, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	// Held covers orders still at risk: waiting for payment or in flight.
	held, err := s.reports.CountOrders(ctx, f, model.OrderStatusHeld, model.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.reports.CountOrders(ctx, f, model.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	projected, err := s.reports.SumAmount(ctx, f)
	if err != nil {
		return nil, err
	}
	successfulExpense, err := s.reports.SumAmount(ctx, f, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	heldExpense, err := s.reports.SumAmountExcluding(ctx, f, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}

	return &model.Statistics{
		TotalOrders:       total,
		SuccessfulOrders:  successful,
		HeldOrders:        held,
		CancelledOrders:   cancelled,
		ProjectedExpense:  fmt.Sprintf("%.2f", projected),
		SuccessfulExpense: fmt.Sprintf("%.2f", successfulExpense),
		HeldExpense:       fmt.Sprintf("%.2f", heldExpense),
	}, nil
}

// HistoryByMonth returns one entry per calendar day of the month, zero
// filled for days without activity.
func (s *ReportService) HistoryByMonth(ctx context.Context, month, year int, userID *int64) ([]model.HistoryDay, error) {
	if month < 1 || month > 12 {
		return nil, model.NewValidation("month must be between 1 and 12")
	}
	if year < 1 {
		return nil, model.NewValidation("year is required")
	}

	rows, err := s.monthHist.DaysForMonth(ctx, month, year, userID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int]model.HistoryDay, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}

	days := daysIn(month, year)
	out := make([]model.HistoryDay, days)
	for d := 1; d <= days; d++ {
		if row, ok := byDay[d]; ok {
			out[d-1] = row
			continue
		}
		out[d-1] = model.HistoryDay{Day: d}
	}
	return out, nil
}

// HistoryByYear returns twelve entries, zero filled for idle months.
func (s *ReportService) HistoryByYear(ctx context.Context, year int, userID *int64) ([]model.HistoryMonth, error) {
	if year < 1 {
		return nil, model.NewValidation("year is required")
	}

	rows, err := s.yearHist.MonthsForYear(ctx, year, userID)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]model.HistoryMonth, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row
	}

	out := make([]model.HistoryMonth, 12)
	for m := 1; m <= 12; m++ {
		if row, ok := byMonth[m]; ok {
			out[m-1] = row
			continue
		}
		out[m-1] = model.HistoryMonth{Month: m}
	}
	return out, nil
}

// AvailableYears lists the years with recorded history, falling back to the
// current year when nothing has been recorded yet.
func (s *ReportService) AvailableYears(ctx context.Context) ([]int, error) {
	years, err := s.monthHist.Years(ctx)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return []int{s.now().Year()}, nil
	}
	return years, nil
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
