package repository

import (
	"context"
	"errors"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateBilling is returned on a second checkout attempt for the
	// same order. Billing is strictly one-per-order.
	ErrDuplicateBilling = errors.New("billing already exists for order")

	ErrBillingNotFound = errors.New("billing not found")
)

type BillingRepository struct {
	*pg.DB
}

func NewBillingRepository(db *pg.DB) *BillingRepository {
	return &BillingRepository{
		db,
	}
}

func (r *BillingRepository) Create(ctx context.Context, b *model.OrderBilling) (*model.OrderBilling, error) {
	var count int64
	err := r.Write(ctx).WithContext(ctx).
		Model(&OrderBillingEntity{}).
		Where("order_id = ?", b.OrderID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateBilling
	}

	entity := toOrderBillingEntity(b)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderBillingModel(entity), nil
}

func (r *BillingRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.OrderBilling, error) {
	var entity OrderBillingEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillingNotFound
		}
		return nil, err
	}
	return toOrderBillingModel(&entity), nil
}

func (r *BillingRepository) Update(ctx context.Context, b *model.OrderBilling) (*model.OrderBilling, error) {
	entity := toOrderBillingEntity(b)
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderBillingEntity{}).
		Where("order_id = ?", b.OrderID).
		Updates(map[string]interface{}{
			"name":      entity.Name,
			"whatsapp":  entity.Whatsapp,
			"email":     entity.Email,
			"momo_name": entity.MomoName,
			"note":      entity.Note,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrBillingNotFound
	}
	return r.GetByOrderID(ctx, b.OrderID)
}
