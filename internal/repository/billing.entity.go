package repository

import (
	"time"

	"github.com/remita/exchange-gateway/internal/model"
)

type OrderBillingEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64     `db:"order_id"   gorm:"column:order_id;not null;uniqueIndex"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Whatsapp  string    `db:"whatsapp"   gorm:"column:whatsapp"`
	Email     string    `db:"email"      gorm:"column:email;not null"`
	MomoName  string    `db:"momo_name"  gorm:"column:momo_name"`
	Note      string    `db:"note"       gorm:"column:note"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderBillingEntity) TableName() string {
	return "order_billings"
}

func toOrderBillingEntity(m *model.OrderBilling) *OrderBillingEntity {
	if m == nil {
		return nil
	}
	return &OrderBillingEntity{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Name:      m.Name,
		Whatsapp:  m.Whatsapp,
		Email:     m.Email,
		MomoName:  m.MomoName,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toOrderBillingModel(e *OrderBillingEntity) *model.OrderBilling {
	if e == nil {
		return nil
	}
	return &model.OrderBilling{
		ID:        e.ID,
		OrderID:   e.OrderID,
		Name:      e.Name,
		Whatsapp:  e.Whatsapp,
		Email:     e.Email,
		MomoName:  e.MomoName,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
