package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanbelagavi/commerce-api/internal/dto"
	"github.com/urbanbelagavi/commerce-api/internal/model"
	"github.com/urbanbelagavi/commerce-api/internal/repository"
)

type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.InStock = p.Quantity > 0
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id], nil
}

func (m *mockProductRepo) List(_ context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Product
	for _, p := range m.products {
		all = append(all, *p)
	}
	return all, len(all), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.InStock = p.Quantity > 0
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) GetForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	snapshot := *p
	return &snapshot, nil
}

func (m *mockProductRepo) ReserveStock(_ context.Context, _ pgx.Tx, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Quantity < quantity {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= quantity
	p.InStock = p.Quantity > 0
	return nil
}

func (m *mockProductRepo) RestoreStock(_ context.Context, _ pgx.Tx, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Quantity += quantity
		p.InStock = p.Quantity > 0
	}
	return nil
}

func TestProductService_Create(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	sellerID := uuid.New()
	resp, err := svc.Create(context.Background(), sellerID, dto.CreateProductRequest{
		Name: "Kolhapuri Chappal", Description: "Handmade leather", Category: "footwear",
		Price: decimal.RequireFromString("10.00"), Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, sellerID, resp.SellerID)
	assert.Equal(t, 5, resp.Quantity)
	assert.True(t, resp.InStock)
	assert.True(t, resp.Rating.IsZero())
}

func TestProductService_Create_ZeroQuantityNotInStock(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	resp, err := svc.Create(context.Background(), uuid.New(), dto.CreateProductRequest{
		Name: "P", Description: "D", Category: "c",
		Price: decimal.RequireFromString("1.00"), Quantity: 0,
	})
	require.NoError(t, err)
	assert.False(t, resp.InStock)
}

func TestProductService_Create_NegativePrice(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.Create(context.Background(), uuid.New(), dto.CreateProductRequest{
		Name: "P", Description: "D", Category: "c",
		Price: decimal.RequireFromString("-1.00"), Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_Update_RatingBounds(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil)
	id := uuid.New()
	repo.products[id] = &model.Product{ID: id, Price: decimal.RequireFromString("5.00")}

	bad := decimal.RequireFromString("5.01")
	_, err := svc.Update(context.Background(), id, dto.UpdateProductRequest{Rating: &bad})
	assert.ErrorIs(t, err, ErrInvalidRating)

	good := decimal.RequireFromString("4.50")
	resp, err := svc.Update(context.Background(), id, dto.UpdateProductRequest{Rating: &good})
	require.NoError(t, err)
	assert.True(t, good.Equal(resp.Rating))
}

func TestProductService_Delete(t *testing.T) {
	repo := newMockProductRepo()
	id := uuid.New()
	repo.products[id] = &model.Product{ID: id}
	svc := NewProductService(repo, nil)
	err := svc.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, repo.products)
}
