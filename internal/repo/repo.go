package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

var ErrTokenRevoked = errors.New("refresh token expired or revoked")

type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, keyword string, offset, limit int) (int64, []models.Product, error)
	TopProducts(ctx context.Context, minRating decimal.Decimal, limit int) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	SetRating(ctx context.Context, id uuid.UUID, rating decimal.Decimal, numReviews int) error
}

type ReviewStore interface {
	ReviewExists(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	CreateReview(ctx context.Context, r *models.Review) error
	ReviewStats(ctx context.Context, productID uuid.UUID) (count int64, sum int64, err error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	CreateShippingAddress(ctx context.Context, a *models.ShippingAddress) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type TokenStore interface {
	AddRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldJTI string, next *models.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

// Store is the full data-access surface. WithTransaction hands fn a Store
// bound to a single database transaction.
type Store interface {
	ProductStore
	ReviewStore
	OrderStore
	UserStore
	TokenStore
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}

type GormRepo struct {
	DB *gorm.DB
}

var _ Store = (*GormRepo)(nil)

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}
