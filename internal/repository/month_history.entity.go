package repository

import (
	"github.com/remita/exchange-gateway/internal/model"
)

// MonthHistoryEntity uses a compound natural key, no surrogate id.
type MonthHistoryEntity struct {
	UserID  int64   `db:"user_id" gorm:"column:user_id;primaryKey"`
	Day     int     `db:"day"     gorm:"column:day;primaryKey"`
	Month   int     `db:"month"   gorm:"column:month;primaryKey"`
	Year    int     `db:"year"    gorm:"column:year;primaryKey"`
	Orders  int     `db:"orders"  gorm:"column:orders;not null;default:0"`
	Expense float64 `db:"expense" gorm:"column:expense;not null;default:0"`
}

func (MonthHistoryEntity) TableName() string {
	return "month_histories"
}

func toMonthHistoryModel(e *MonthHistoryEntity) *model.MonthHistory {
	if e == nil {
		return nil
	}
	return &model.MonthHistory{
		UserID:  e.UserID,
		Day:     e.Day,
		Month:   e.Month,
		Year:    e.Year,
		Orders:  e.Orders,
		Expense: e.Expense,
	}
}
