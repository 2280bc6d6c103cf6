package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/testutil"
)

func TestGetProductForUpdate_LocksRow(t *testing.T) {
	t.Parallel()

	m := testutil.NewMockDB(t)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "price", "count_in_stock"}).
		AddRow(id.String(), "Gi", "59.90", 3)
	m.Mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs(id, 1).
		WillReturnRows(rows)

	r := repo.New(m.DB)
	p, err := r.GetProductForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Gi", p.Name)
	assert.Equal(t, 3, p.CountInStock)
	assert.True(t, decimal.RequireFromString("59.90").Equal(p.Price))
	m.ExpectationsWereMet(t)
}

func TestAdjustStock_UsesExpression(t *testing.T) {
	t.Parallel()

	m := testutil.NewMockDB(t)
	id := uuid.New()

	m.Mock.ExpectExec(`UPDATE "products" SET "count_in_stock"=count_in_stock \+ \$1 WHERE id = \$2`).
		WithArgs(-2, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.New(m.DB).AdjustStock(context.Background(), id, -2))
	m.ExpectationsWereMet(t)
}

func TestAdjustStock_MissingProduct(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	err := repo.New(db).AdjustStock(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListProducts_KeywordAndPaging(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.CreateProduct(t, db, owner, testutil.WithProductName("Boxing Glove"))
	}
	testutil.CreateProduct(t, db, owner, testutil.WithProductName("Yoga Mat"))

	r := repo.New(db)
	ctx := context.Background()

	total, items, err := r.ListProducts(ctx, "glove", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	total, items, err = r.ListProducts(ctx, "GLOVE", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 1)

	total, _, err = r.ListProducts(ctx, "", 0, 8)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestTopProducts_FiltersAndOrders(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	testutil.CreateProduct(t, db, nil, testutil.WithProductName("low"), testutil.WithRating("3.50", 2))
	testutil.CreateProduct(t, db, nil, testutil.WithProductName("mid"), testutil.WithRating("4.00", 1))
	testutil.CreateProduct(t, db, nil, testutil.WithProductName("high"), testutil.WithRating("4.80", 5))

	items, err := repo.New(db).TopProducts(context.Background(), decimal.NewFromInt(4), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "high", items[0].Name)
	assert.Equal(t, "mid", items[1].Name)
}

func TestReviewStats(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, nil)

	count, sum, err := r.ReviewStats(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, sum)

	a := testutil.CreateUser(t, db)
	b := testutil.CreateUser(t, db)
	testutil.CreateReview(t, db, p, a, 5)
	testutil.CreateReview(t, db, p, b, 4)

	count, sum, err = r.ReviewStats(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.EqualValues(t, 9, sum)

	exists, err := r.ReviewExists(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateReview_UniquePerUserAndProduct(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	p := testutil.CreateProduct(t, db, nil)
	u := testutil.CreateUser(t, db)
	testutil.CreateReview(t, db, p, u, 5)

	err := repo.New(db).CreateReview(context.Background(), &models.Review{
		ProductID: &p.ID, UserID: &u.ID, Name: u.Name, Rating: 3,
	})
	assert.Error(t, err)
}

func TestMarkPaid_OnlyOnce(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	order := &models.Order{UserID: &u.ID, PaymentMethod: "PayPal"}
	require.NoError(t, r.CreateOrder(ctx, order))

	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	changed, err := r.MarkPaid(ctx, order.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.MarkPaid(ctx, order.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)
	assert.True(t, first.Equal(got.PaidAt.UTC()))
	assert.False(t, got.IsDelivered)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, nil, testutil.WithStock(5))

	boom := errors.New("boom")
	err := r.WithTransaction(ctx, func(tx repo.Store) error {
		if err := tx.AdjustStock(ctx, p.ID, -3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CountInStock)
}

func TestDeleteProduct_KeepsOrderItemSnapshots(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)
	p := testutil.CreateProduct(t, db, u, testutil.WithPrice("12.50"))

	order := &models.Order{UserID: &u.ID}
	require.NoError(t, r.CreateOrder(ctx, order))
	require.NoError(t, r.CreateOrderItem(ctx, &models.OrderItem{
		ProductID: &p.ID, OrderID: order.ID, Name: p.Name, Qty: 1, Price: p.Price, Image: p.Image,
	}))

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 1)
	assert.Nil(t, got.OrderItems[0].ProductID)
	assert.Equal(t, p.Name, got.OrderItems[0].Name)
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)

	old := &models.RefreshToken{UserID: u.ID, JTI: "jti-1", TokenHash: "hash-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.AddRefreshToken(ctx, old))

	next := &models.RefreshToken{UserID: u.ID, JTI: "jti-2", TokenHash: "hash-2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.RotateRefreshToken(ctx, "jti-1", next))

	stored, err := r.FindRefreshByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	again := &models.RefreshToken{UserID: u.ID, JTI: "jti-3", TokenHash: "hash-3", ExpiresAt: time.Now().Add(time.Hour)}
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, "jti-1", again), repo.ErrTokenRevoked)

	require.NoError(t, r.RevokeRefreshToken(ctx, "hash-2"))
	stored, err = r.FindRefreshByJTI(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
}

func TestDeleteUser_NullsOwnership(t *testing.T) {
	t.Parallel()

	db := testutil.NewDB(t)
	r := repo.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db)
	p := testutil.CreateProduct(t, db, u)

	require.NoError(t, r.DeleteUser(ctx, u.ID))

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)

	_, err = r.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
