package repository

import (
	"context"
	"errors"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/pg"
	"gorm.io/gorm"
)

type YearHistoryRepository struct {
	*pg.DB
}

func NewYearHistoryRepository(db *pg.DB) *YearHistoryRepository {
	return &YearHistoryRepository{
		db,
	}
}

// Upsert mirrors MonthHistoryRepository.Upsert at month granularity.
func (r *YearHistoryRepository) Upsert(ctx context.Context, userID int64, month, year int, amount float64) error {
	var entity YearHistoryEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		First(&entity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		entity = YearHistoryEntity{
			UserID:  userID,
			Month:   month,
			Year:    year,
			Orders:  1,
			Expense: amount,
		}
		return r.Write(ctx).WithContext(ctx).Create(&entity).Error
	}
	if err != nil {
		return err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&YearHistoryEntity{}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Updates(map[string]interface{}{
			"orders":  gorm.Expr("orders + ?", 1),
			"expense": gorm.Expr("expense + ?", amount),
		})
	return result.Error
}

type historyMonthRow struct {
	Month   int     `gorm:"column:month"`
	Orders  int     `gorm:"column:orders"`
	Expense float64 `gorm:"column:expense"`
}

// MonthsForYear returns the recorded activity per month of a year, summed
// across users unless userID scopes it.
func (r *YearHistoryRepository) MonthsForYear(ctx context.Context, year int, userID *int64) ([]model.HistoryMonth, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&YearHistoryEntity{}).
		Select("month, SUM(orders) AS orders, SUM(expense) AS expense").
		Where("year = ?", year)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var rows []historyMonthRow
	if err := q.Group("month").Order("month ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.HistoryMonth, len(rows))
	for i, row := range rows {
		out[i] = model.HistoryMonth{Month: row.Month, Orders: row.Orders, Expense: row.Expense}
	}
	return out, nil
}
