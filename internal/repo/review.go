package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

func (r *GormRepo) ReviewExists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) CreateReview(ctx context.Context, review *models.Review) error {
	return r.DB.WithContext(ctx).Create(review).Error
}

func (r *GormRepo) ReviewStats(ctx context.Context, productID uuid.UUID) (int64, int64, error) {
	var stats struct {
		Count int64
		Total int64
	}
	err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, err
	}
	return stats.Count, stats.Total, nil
}
