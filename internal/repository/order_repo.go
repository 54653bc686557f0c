package repository

import (
	"context"

	"platepos/internal/dto"
	"platepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	// NextSeq atomically bumps and returns the per-(restaurant, day) order
	// sequence. day is the local calendar day formatted YYMMDD.
	NextSeq(ctx context.Context, restaurantID uuid.UUID, day string) (int, error)
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	return &o, err
}

// Update persists the aggregate and replaces its item set. Association upserts
// never delete rows, so items dropped from o.Items must be removed explicitly;
// the delete and re-insert run in one transaction.
func (r *orderRepo) Update(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", o.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Items").Save(o).Error; err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return nil
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		return tx.Create(&o.Items).Error
	})
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Items").Delete(&model.Order{ID: id}).Error
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

// NextSeq uses an atomic upsert on the counter row: insert at 1, or bump the
// existing sequence, returning the fresh value in the same statement. Two
// concurrent creations for the same (restaurant, day) serialize on the row
// lock inside postgres and can never observe the same sequence value.
func (r *orderRepo) NextSeq(ctx context.Context, restaurantID uuid.UUID, day string) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO order_counters (restaurant_id, day, seq)
		VALUES (?, ?, 1)
		ON CONFLICT (restaurant_id, day)
		DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`, restaurantID, day).Scan(&seq).Error
	return seq, err
}
