// Package testutil sets up throwaway databases and fixtures for package tests.
package testutil

import (
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/pkg/hash"
)

// NewDB opens a migrated in-memory sqlite database. A single connection is
// kept open so concurrent transactions queue up instead of racing.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	require.NoError(t, models.Migrate(db), "migrate")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// MockDB wraps a postgres-dialect gorm connection backed by sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open gorm over sqlmock")

	t.Cleanup(func() { _ = mockDB.Close() })
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "unmet database expectations")
}

var (
	fakerMu sync.Mutex
	faker   = gofakeit.New(0)
)

func fake[T any](fn func(f *gofakeit.Faker) T) T {
	fakerMu.Lock()
	defer fakerMu.Unlock()
	return fn(faker)
}

const DefaultPassword = "secret-pass-123"

type UserOption func(*models.User)

func AsAdmin() UserOption {
	return func(u *models.User) { u.Role = models.RoleAdmin }
}

func WithName(name string) UserOption {
	return func(u *models.User) { u.Name = name }
}

// CreateUser inserts a user whose password is DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(DefaultPassword)
	require.NoError(t, err)

	u := &models.User{
		Name:         fake(func(f *gofakeit.Faker) string { return f.Name() }),
		Email:        strings.ToLower(uuid.NewString()[:8] + "." + fake(func(f *gofakeit.Faker) string { return f.Email() })),
		PasswordHash: pw,
		Role:         models.RoleUser,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

type ProductOption func(*models.Product)

func WithPrice(price string) ProductOption {
	return func(p *models.Product) { p.Price = decimal.RequireFromString(price) }
}

func WithStock(n int) ProductOption {
	return func(p *models.Product) { p.CountInStock = n }
}

func WithProductName(name string) ProductOption {
	return func(p *models.Product) { p.Name = name }
}

func WithRating(rating string, numReviews int) ProductOption {
	return func(p *models.Product) {
		p.Rating = decimal.RequireFromString(rating)
		p.NumReviews = numReviews
	}
}

func CreateProduct(t *testing.T, db *gorm.DB, owner *models.User, opts ...ProductOption) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:         fake(func(f *gofakeit.Faker) string { return f.ProductName() }),
		Image:        "/images/" + uuid.NewString() + ".jpg",
		Discipline:   fake(func(f *gofakeit.Faker) string { return f.Word() }),
		Category:     fake(func(f *gofakeit.Faker) string { return f.Word() }),
		Description:  fake(func(f *gofakeit.Faker) string { return f.ProductName() }),
		Price:        decimal.RequireFromString("10.00"),
		CountInStock: 10,
	}
	if owner != nil {
		p.UserID = &owner.ID
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Omit("User", "Reviews").Create(p).Error)
	return p
}

func CreateReview(t *testing.T, db *gorm.DB, product *models.Product, author *models.User, rating int) *models.Review {
	t.Helper()

	r := &models.Review{
		ProductID: &product.ID,
		UserID:    &author.ID,
		Name:      author.DisplayName(),
		Rating:    rating,
		Comment:   fake(func(f *gofakeit.Faker) string { return f.Word() }),
	}
	require.NoError(t, db.Omit("User").Create(r).Error)
	return r
}

// Address returns a random shipping address.
func Address() (address, city, postalCode, country string) {
	fakerMu.Lock()
	defer fakerMu.Unlock()
	return faker.Street(), faker.City(), faker.Zip(), faker.Country()
}
