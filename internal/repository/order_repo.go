package repository

import (
	"context"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	ListForUser(ctx context.Context, userID uint) ([]model.Order, error)
	UpdateStatus(ctx context.Context, order *model.Order, status string) error
	Delete(ctx context.Context, id uint) error
	CountByBusinessAndStatus(ctx context.Context, businessUserID uint, status string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// ListForUser returns orders where the user is either party, newest first.
func (r *orderRepository) ListForUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("customer_user_id = ? OR business_user_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateStatus writes the new status and the updated_at timestamp in a single
// UPDATE, leaving every snapshot field untouched.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order, status string) error {
	return r.db.WithContext(ctx).
		Model(order).
		Update("status", status).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, "id = ?", id).Error
}

func (r *orderRepository) CountByBusinessAndStatus(ctx context.Context, businessUserID uint, status string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("business_user_id = ? AND status = ?", businessUserID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
