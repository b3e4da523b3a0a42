package repository

import (
	"github.com/remita/exchange-gateway/internal/model"
)

type YearHistoryEntity struct {
	UserID  int64   `db:"user_id" gorm:"column:user_id;primaryKey"`
	Month   int     `db:"month"   gorm:"column:month;primaryKey"`
	Year    int     `db:"year"    gorm:"column:year;primaryKey"`
	Orders  int     `db:"orders"  gorm:"column:orders;not null;default:0"`
	Expense float64 `db:"expense" gorm:"column:expense;not null;default:0"`
}

func (YearHistoryEntity) TableName() string {
	return "year_histories"
}

func toYearHistoryModel(e *YearHistoryEntity) *model.YearHistory {
	if e == nil {
		return nil
	}
	return &model.YearHistory{
		UserID:  e.UserID,
		Month:   e.Month,
		Year:    e.Year,
		Orders:  e.Orders,
		Expense: e.Expense,
	}
}
