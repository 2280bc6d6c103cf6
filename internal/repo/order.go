package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *GormRepo) CreateShippingAddress(ctx context.Context, a *models.ShippingAddress) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *GormRepo) withOrderDetails(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("OrderItems").
		Preload("ShippingAddress").
		Preload("User")
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withOrderDetails(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.withOrderDetails(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.withOrderDetails(ctx).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// MarkPaid flips is_paid once; it reports false when the order was already paid.
func (r *GormRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]any{"is_paid": true, "paid_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_delivered = ?", id, false).
		Updates(map[string]any{"is_delivered": true, "delivered_at": at})
	return res.RowsAffected > 0, res.Error
}
