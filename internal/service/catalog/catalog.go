package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/cache"
	"github.com/Skotchmaster/sport_shop/internal/events"
	"github.com/Skotchmaster/sport_shop/internal/metrics"
	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/principal"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/service"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	"github.com/Skotchmaster/sport_shop/internal/util"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
)

const (
	topLimit = 5

	sampleName       = "Sample Name"
	sampleDiscipline = "Sample Discipline"
	sampleCategory   = "Sample Category"
)

var topMinRating = decimal.NewFromInt(4)

// Searcher is the full-text index kept in step with the catalog.
type Searcher interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo    repo.Store
	Events  events.Publisher
	Cache   cache.ProductCache
	Search  Searcher
	Metrics *metrics.Metrics
}

// New wires the service; search may be nil, in which case searching falls
// back to the keyword listing.
func New(store repo.Store, pub events.Publisher, pc cache.ProductCache, search Searcher, m *metrics.Metrics) *CatalogService {
	if pub == nil {
		pub = events.Nop{}
	}
	if pc == nil {
		pc = cache.Nop{}
	}
	return &CatalogService{Repo: store, Events: pub, Cache: pc, Search: search, Metrics: m}
}

func notFound(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", service.ErrProductNotFound, id)
	}
	return err
}

func (s *CatalogService) ListProducts(ctx context.Context, keyword string, page int) (*transport.ProductPage, error) {
	from, limit := util.Calculate(page, util.PageSize)
	total, items, err := s.Repo.ListProducts(ctx, keyword, from, limit)
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{
		Products: items,
		Page:     max(page, 1),
		Pages:    util.Pages(total, limit),
	}, nil
}

func (s *CatalogService) TopProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.TopProducts(ctx, topMinRating, topLimit)
}

// GetProduct reads through the product cache.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product", "product_id", id)

	if cached, hit, err := s.Cache.Get(ctx, id); err != nil {
		l.Warn("cache_get_failed", "error", err)
	} else if hit {
		return cached, nil
	}

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if err := s.Cache.Set(ctx, product); err != nil {
		l.Warn("cache_set_failed", "error", err)
	}
	return product, nil
}

// SearchProducts uses the full-text index when one is configured and answers
// from the keyword listing otherwise, or when the index is unavailable.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page int) (*transport.ProductPage, error) {
	query = strings.TrimSpace(query)
	if s.Search == nil || query == "" {
		return s.ListProducts(ctx, query, page)
	}

	from, limit := util.Calculate(page, util.PageSize)
	total, items, err := s.Search.Search(ctx, query, from, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_fallback", "svc", "catalog.search", "reason", "elasticsearch unavailable", "error", err)
		return s.ListProducts(ctx, query, page)
	}
	return &transport.ProductPage{
		Products: items,
		Page:     max(page, 1),
		Pages:    util.Pages(total, limit),
	}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p principal.Principal, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product", "user_id", p.ID)
	if !p.IsAdmin {
		l.Warn("create_product_denied", "status", 403)
		return nil, service.ErrNotAuthorized
	}

	product := &models.Product{
		UserID:      &p.ID,
		Name:        orDefault(req.Name, sampleName),
		Image:       req.Image,
		Discipline:  orDefault(req.Discipline, sampleDiscipline),
		Category:    orDefault(req.Category, sampleCategory),
		Description: req.Description,
		Price:       decimal.Zero,
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CountInStock != nil {
		product.CountInStock = *req.CountInStock
	}
	if err := validateProduct(product); err != nil {
		l.Warn("create_product_rejected", "status", 400, "reason", err.Error())
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterWrite(ctx, product, events.ProductCreated)
	l.Info("product_created", "product_id", product.ID)
	return product, nil
}

// UpdateProduct locks the row so a concurrent review aggregation cannot be
// overwritten with a stale rating.
func (s *CatalogService) UpdateProduct(ctx context.Context, p principal.Principal, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_product", "user_id", p.ID, "product_id", id)
	if !p.IsAdmin {
		l.Warn("update_product_denied", "status", 403)
		return nil, service.ErrNotAuthorized
	}

	err := s.Repo.WithTransaction(ctx, func(tx repo.Store) error {
		product, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return notFound(err, id)
		}
		applyUpdate(product, req)
		if err := validateProduct(product); err != nil {
			return err
		}
		return tx.SaveProduct(ctx, product)
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrValidation):
			l.Warn("update_product_rejected", "reason", err.Error())
		default:
			l.Error("update_product_error", "status", 500, "error", err)
		}
		return nil, err
	}

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	s.afterWrite(ctx, product, events.ProductUpdated)
	l.Info("product_updated")
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, p principal.Principal, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "user_id", p.ID, "product_id", id)
	if !p.IsAdmin {
		l.Warn("delete_product_denied", "status", 403)
		return service.ErrNotAuthorized
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		err = notFound(err, id)
		if !errors.Is(err, service.ErrProductNotFound) {
			l.Error("delete_product_error", "status", 500, "error", err)
		}
		return err
	}

	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_delete_failed", "error", err)
		}
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		l.Warn("cache_invalidate_failed", "error", err)
	}
	s.publish(ctx, id, events.New(events.ProductDeleted, map[string]any{"product_id": id, "user_id": p.ID}))
	l.Info("product_deleted")
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func applyUpdate(product *models.Product, req transport.UpdateProductRequest) {
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Discipline != nil {
		product.Discipline = *req.Discipline
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CountInStock != nil {
		product.CountInStock = *req.CountInStock
	}
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", service.ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", service.ErrValidation)
	}
	if p.CountInStock < 0 {
		return fmt.Errorf("%w: count_in_stock cannot be negative", service.ErrValidation)
	}
	return nil
}

// afterWrite keeps the search index, cache and event stream in step with a
// committed product row.
func (s *CatalogService) afterWrite(ctx context.Context, product *models.Product, eventType string) {
	l := logging.FromContext(ctx)
	if s.Search != nil {
		if err := s.Search.IndexProduct(ctx, product); err != nil {
			l.Warn("search_index_failed", "product_id", product.ID, "error", err)
		}
	}
	if err := s.Cache.Invalidate(ctx, product.ID); err != nil {
		l.Warn("cache_invalidate_failed", "product_id", product.ID, "error", err)
	}
	s.publish(ctx, product.ID, events.New(eventType, map[string]any{
		"product_id":     product.ID,
		"name":           product.Name,
		"price":          product.Price,
		"count_in_stock": product.CountInStock,
		"rating":         product.Rating,
		"num_reviews":    product.NumReviews,
	}))
}

func (s *CatalogService) publish(ctx context.Context, productID uuid.UUID, ev events.Event) {
	if err := s.Events.PublishEvent(ctx, events.TopicProducts, productID.String(), ev); err != nil {
		s.Metrics.EventPublishFailed(events.TopicProducts)
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicProducts, "type", ev.Type, "error", err)
	}
}
