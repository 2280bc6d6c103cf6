package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/events"
	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/principal"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/service"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
)

const (
	minRating = 1
	maxRating = 5
)

// MeanRating is sum/count rounded to two places, the precision ratings are stored at.
func MeanRating(sum, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 2)
}

// SubmitReview stores one review per user and product and recomputes the
// product's rating and review count. The product row stays locked from the
// duplicate check until the new aggregate is written.
func (s *CatalogService) SubmitReview(ctx context.Context, p principal.Principal, productID uuid.UUID, req transport.ReviewRequest) error {
	l := logging.FromContext(ctx).With("svc", "catalog.submit_review", "user_id", p.ID, "product_id", productID)

	var (
		rating     decimal.Decimal
		numReviews int
	)
	err := s.Repo.WithTransaction(ctx, func(tx repo.Store) error {
		product, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return notFound(err, productID)
		}

		exists, err := tx.ReviewExists(ctx, product.ID, p.ID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return service.ErrDuplicateReview
		}

		if req.Rating == 0 {
			return service.ErrRatingRequired
		}
		if req.Rating < minRating || req.Rating > maxRating {
			return fmt.Errorf("%w: got %d", service.ErrInvalidRating, req.Rating)
		}

		review := &models.Review{
			ProductID: &product.ID,
			UserID:    &p.ID,
			Name:      p.Name,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return service.ErrDuplicateReview
			}
			return fmt.Errorf("create review: %w", err)
		}

		count, sum, err := tx.ReviewStats(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("review stats: %w", err)
		}
		rating, numReviews = MeanRating(sum, count), int(count)
		return tx.SetRating(ctx, product.ID, rating, numReviews)
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			l.Warn("submit_review_rejected", "status", 404, "reason", err.Error())
		case errors.Is(err, service.ErrDuplicateReview):
			l.Warn("submit_review_rejected", "status", 409, "reason", err.Error())
		case errors.Is(err, service.ErrRatingRequired), errors.Is(err, service.ErrInvalidRating):
			l.Warn("submit_review_rejected", "status", 400, "reason", err.Error())
		default:
			l.Error("submit_review_error", "status", 500, "error", err)
		}
		return err
	}

	s.Metrics.ReviewAdded()
	if err := s.Cache.Invalidate(ctx, productID); err != nil {
		l.Warn("cache_invalidate_failed", "error", err)
	}
	if s.Search != nil {
		if product, err := s.Repo.GetProduct(ctx, productID); err == nil {
			if err := s.Search.IndexProduct(ctx, product); err != nil {
				l.Warn("search_index_failed", "error", err)
			}
		}
	}
	s.publish(ctx, productID, events.New(events.ReviewAdded, map[string]any{
		"product_id":  productID,
		"user_id":     p.ID,
		"rating":      req.Rating,
		"avg_rating":  rating,
		"num_reviews": numReviews,
	}))

	l.Info("review_added", "rating", req.Rating, "num_reviews", numReviews)
	return nil
}
