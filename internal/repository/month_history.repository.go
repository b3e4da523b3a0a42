package repository

import (
	"context"
	"errors"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/pg"
	"gorm.io/gorm"
)

type MonthHistoryRepository struct {
	*pg.DB
}

func NewMonthHistoryRepository(db *pg.DB) *MonthHistoryRepository {
	return &MonthHistoryRepository{
		db,
	}
}

// Upsert increments the (user, day, month, year) counter row, creating it on
// first use. Runs on the write connection so it joins any transaction carried
// by ctx; row-level locking inside that transaction is what keeps concurrent
// creations for the same user from losing updates.
func (r *MonthHistoryRepository) Upsert(ctx context.Context, userID int64, day, month, year int, amount float64) error {
	var entity MonthHistoryEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("user_id = ? AND day = ? AND month = ? AND year = ?", userID, day, month, year).
		First(&entity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		entity = MonthHistoryEntity{
			UserID:  userID,
			Day:     day,
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
		Model(&MonthHistoryEntity{}).
		Where("user_id = ? AND day = ? AND month = ? AND year = ?", userID, day, month, year).
		Updates(map[string]interface{}{
			"orders":  gorm.Expr("orders + ?", 1),
			"expense": gorm.Expr("expense + ?", amount),
		})
	return result.Error
}

type historyDayRow struct {
	Day     int     `gorm:"column:day"`
	Orders  int     `gorm:"column:orders"`
	Expense float64 `gorm:"column:expense"`
}

// DaysForMonth returns the recorded activity per day of (month, year),
// summed across users unless userID scopes it. Missing days are zero-filled
// by the service, not here.
func (r *MonthHistoryRepository) DaysForMonth(ctx context.Context, month, year int, userID *int64) ([]model.HistoryDay, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&MonthHistoryEntity{}).
		Select("day, SUM(orders) AS orders, SUM(expense) AS expense").
		Where("month = ? AND year = ?", month, year)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var rows []historyDayRow
	if err := q.Group("day").Order("day ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.HistoryDay, len(rows))
	for i, row := range rows {
		out[i] = model.HistoryDay{Day: row.Day, Orders: row.Orders, Expense: row.Expense}
	}
	return out, nil
}

// Years lists every year with at least one history row, ascending.
func (r *MonthHistoryRepository) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := r.Read(ctx).WithContext(ctx).
		Model(&MonthHistoryEntity{}).
		Distinct("year").
		Order("year ASC").
		Pluck("year", &years).Error
	if err != nil {
		return nil, err
	}
	return years, nil
}
