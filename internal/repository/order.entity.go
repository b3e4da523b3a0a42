package repository

import (
	"time"

	"github.com/remita/exchange-gateway/internal/model"
)

type OrderEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	UserID         *int64    `db:"user_id"         gorm:"column:user_id;index"`
	AccountType    string    `db:"account_type"    gorm:"column:account_type;not null"`
	Product        string    `db:"product"         gorm:"column:product;not null"`
	CurrencyCode   string    `db:"currency_code"   gorm:"column:currency_code;not null"`
	Rate           float64   `db:"rate"            gorm:"column:rate;not null"`
	Amount         float64   `db:"amount"          gorm:"column:amount;not null"`
	RmbEquivalence float64   `db:"rmb_equivalence" gorm:"column:rmb_equivalence;not null"`
	Recipient      string    `db:"recipient"       gorm:"column:recipient;not null"`
	QRCodeKey      string    `db:"qr_code_key"     gorm:"column:qr_code_key"`
	Status         string    `db:"status"          gorm:"column:status;not null;default:HELD;index"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time `db:"updated_at"      gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	return &OrderEntity{
		ID:             m.ID,
		UserID:         m.UserID,
		AccountType:    m.AccountType,
		Product:        m.Product,
		CurrencyCode:   m.CurrencyCode,
		Rate:           m.Rate,
		Amount:         m.Amount,
		RmbEquivalence: m.RmbEquivalence,
		Recipient:      m.Recipient,
		QRCodeKey:      m.QRCodeKey,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	return &model.Order{
		ID:             e.ID,
		UserID:         e.UserID,
		AccountType:    e.AccountType,
		Product:        e.Product,
		CurrencyCode:   e.CurrencyCode,
		Rate:           e.Rate,
		Amount:         e.Amount,
		RmbEquivalence: e.RmbEquivalence,
		Recipient:      e.Recipient,
		QRCodeKey:      e.QRCodeKey,
		Status:         model.OrderStatus(e.Status),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	if entities == nil {
		return nil
	}
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}
