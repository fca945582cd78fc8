package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanbelagavi/commerce-api/internal/model"
)

func createTestUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name: "Test User", Email: email, Password: "digest",
		Role: model.RoleUser,
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, sellerID uuid.UUID, price string, quantity int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name: "Test Product", Description: "Desc", Category: "misc",
		Price: decimal.RequireFromString(price), SellerID: sellerID,
		Quantity: quantity, Rating: decimal.Zero,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), product))
	return product
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{
		Name: "John Doe", Email: "test@example.com", Password: "digest",
		Phone: "9876543210", Address: "12 MG Road", Role: model.RoleUser,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.IsVerified)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	createTestUser(t, "dup@example.com")

	err := repo.Create(ctx, &model.User{
		Name: "Other", Email: "dup@example.com", Password: "digest", Role: model.RoleUser,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	repo := NewProductRepository(testPool)
	ctx := context.Background()
	seller := createTestUser(t, "seller@example.com")

	product := &model.Product{
		Name: "Test", Description: "Desc", Category: "footwear",
		Price: decimal.RequireFromString("29.99"), SellerID: seller.ID,
		Quantity: 100, Rating: decimal.Zero,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.True(t, product.InStock)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test", found.Name)
	assert.True(t, found.InStock)

	product.Name = "Updated"
	product.Quantity = 0
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)
	assert.False(t, found.InStock)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_ReserveAndRestoreStock(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	repo := NewProductRepository(testPool)
	ctx := context.Background()
	seller := createTestUser(t, "seller@example.com")
	product := createTestProduct(t, seller.ID, "10.00", 3)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.ReserveStock(ctx, tx, product.ID, 3))
	require.NoError(t, tx.Commit(ctx))

	found, _ := repo.GetByID(ctx, product.ID)
	assert.Equal(t, 0, found.Quantity)
	assert.False(t, found.InStock)

	tx, err = testPool.Begin(ctx)
	require.NoError(t, err)
	err = repo.ReserveStock(ctx, tx, product.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Rollback(ctx))

	tx, err = testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.RestoreStock(ctx, tx, product.ID, 3))
	require.NoError(t, tx.Commit(ctx))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, 3, found.Quantity)
	assert.True(t, found.InStock)
}

func TestProductRepo_ConcurrentReservations(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	repo := NewProductRepository(testPool)
	ctx := context.Background()
	seller := createTestUser(t, "seller@example.com")
	product := createTestProduct(t, seller.ID, "10.00", 1)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := testPool.Begin(ctx)
			if err != nil {
				errs <- err
				return
			}
			if err := repo.ReserveStock(ctx, tx, product.ID, 1); err != nil {
				_ = tx.Rollback(ctx)
				errs <- err
				return
			}
			errs <- tx.Commit(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	var successes, stockFailures int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, ErrInsufficientStock)
			stockFailures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)

	found, _ := repo.GetByID(ctx, product.ID)
	assert.Equal(t, 0, found.Quantity)
	assert.False(t, found.InStock)
}

func TestOrderRepo_CreateAndGet(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()
	user := createTestUser(t, "order@example.com")
	seller := createTestUser(t, "seller@example.com")
	product := createTestProduct(t, seller.ID, "25.00", 10)

	tx, err := orderRepo.BeginTx(ctx)
	require.NoError(t, err)
	order := &model.Order{
		UserID: user.ID, ProductID: product.ID, Quantity: 2,
		TotalPrice: decimal.RequireFromString("50.00"),
		Status:     model.OrderStatusPending, DeliveryAddress: "12 MG Road",
	}
	require.NoError(t, orderRepo.Create(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))
	assert.NotEqual(t, uuid.Nil, order.ID)

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, found.Status)
	assert.Nil(t, found.PaymentID)
	assert.True(t, decimal.RequireFromString("50.00").Equal(found.TotalPrice))
}

func TestOrderRepo_SetPayment(t *testing.T) {
	cleanupTable(t, "orders", "products", "users")

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()
	user := createTestUser(t, "pay@example.com")
	seller := createTestUser(t, "seller@example.com")
	product := createTestProduct(t, seller.ID, "25.00", 10)

	tx, err := orderRepo.BeginTx(ctx)
	require.NoError(t, err)
	order := &model.Order{
		UserID: user.ID, ProductID: product.ID, Quantity: 1,
		TotalPrice: decimal.RequireFromString("25.00"),
		Status:     model.OrderStatusPending, DeliveryAddress: "addr",
	}
	require.NoError(t, orderRepo.Create(ctx, tx, order))
	require.NoError(t, tx.Commit(ctx))

	paymentID := uuid.New()
	tx, err = orderRepo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, orderRepo.SetPayment(ctx, tx, order.ID, paymentID))
	require.NoError(t, tx.Commit(ctx))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, found.Status)
	require.NotNil(t, found.PaymentID)
	assert.Equal(t, paymentID, *found.PaymentID)
}
