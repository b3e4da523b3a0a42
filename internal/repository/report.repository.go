package repository

import (
	"context"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/pg"
	"gorm.io/gorm"
)

// ReportRepository serves the read-only aggregations over the orders table.
type ReportRepository struct {
	*pg.DB
}

func NewReportRepository(db *pg.DB) *ReportRepository {
	return &ReportRepository{
		db,
	}
}

func (r *ReportRepository) scoped(ctx context.Context, f model.StatsFilter) *gorm.DB {
	q := r.Read(ctx).WithContext(ctx).Model(&OrderEntity{})
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	return q
}

type revenueRow struct {
	CurrencyCode string  `gorm:"column:currency_code"`
	Total        float64 `gorm:"column:total"`
}

// RevenueByCurrency sums order amounts per currency, restricted to the given
// statuses.
func (r *ReportRepository) RevenueByCurrency(ctx context.Context, statuses []model.OrderStatus, f model.StatsFilter) ([]model.RevenueRow, error) {
	var rows []revenueRow
	err := r.scoped(ctx, f).
		Select("currency_code, SUM(amount) AS total").
		Where("status IN ?", statusStrings(statuses)).
		Group("currency_code").
		Order("currency_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.RevenueRow, len(rows))
	for i, row := range rows {
		out[i] = model.RevenueRow{CurrencyCode: row.CurrencyCode, Total: row.Total}
	}
	return out, nil
}

// CountOrders counts orders in the window; statuses narrows the count when
// non-empty.
func (r *ReportRepository) CountOrders(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (int64, error) {
	q := r.scoped(ctx, f)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumAmount totals order amounts in the window; statuses narrows the sum
// when non-empty.
func (r *ReportRepository) SumAmount(ctx context.Context, f model.StatsFilter, statuses ...model.OrderStatus) (float64, error) {
	q := r.scoped(ctx, f)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}

	var total *float64
	if err := q.Select("SUM(amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// SumAmountExcluding totals order amounts for every status other than the
// given one. The dashboards define "held expense" as status != COMPLETED,
// which is not the same population as the held revenue grouping; both
// definitions are kept on purpose.
func (r *ReportRepository) SumAmountExcluding(ctx context.Context, f model.StatsFilter, status model.OrderStatus) (float64, error) {
	var total *float64
	err := r.scoped(ctx, f).
		Select("SUM(amount)").
		Where("status <> ?", string(status)).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
