package repository

import (
	"context"
	"errors"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound is returned when an order does not exist or is not
	// visible to the caller.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderOwned is returned when an ownership migration hits an order
	// that already belongs to an account.
	ErrOrderOwned = errors.New("order already has an owner")
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	entity := toOrderEntity(o)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderModel(entity), nil
}

// GetByID loads one order. When userID is set the lookup is scoped to that
// owner, so callers cannot read other accounts' orders.
func (r *OrderRepository) GetByID(ctx context.Context, id int64, userID *int64) (*model.Order, error) {
	q := r.Read(ctx).WithContext(ctx).Where("id = ?", id)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var entity OrderEntity
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return toOrderModel(&entity), nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&OrderEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*OrderEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toOrderModels(entities), total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrOrderNotFound
	}

	return r.GetByID(ctx, id, nil)
}

// AssignOwner claims a guest order for userID. The WHERE clause only matches
// ownerless rows, which is the guard against migrating the same order twice.
func (r *OrderRepository) AssignOwner(ctx context.Context, orderID int64, userID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND user_id IS NULL", orderID).
		Update("user_id", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var entity OrderEntity
		err := r.Read(ctx).WithContext(ctx).Where("id = ?", orderID).First(&entity).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		return ErrOrderOwned
	}
	return nil
}

// ListCreatedBetween returns the orders the expiry job inspects for
// attachment purging.
func (r *OrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Order, error) {
	var entities []*OrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toOrderModels(entities), nil
}

// ClearAllQRCodeKeys blanks the attachment key on every order. Deliberately
// unscoped: the daily purge wipes the whole table in one set-based update.
func (r *OrderRepository) ClearAllQRCodeKeys(ctx context.Context) (int64, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("qr_code_key <> ''").
		Update("qr_code_key", "")
	return result.RowsAffected, result.Error
}

// CancelHeld flips every HELD order to CANCELLED in one set-based update.
func (r *OrderRepository) CancelHeld(ctx context.Context) (int64, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("status = ?", string(model.OrderStatusHeld)).
		Update("status", string(model.OrderStatusCancelled))
	return result.RowsAffected, result.Error
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
