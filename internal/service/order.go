package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/urbanbelagavi/commerce-api/internal/dto"
	"github.com/urbanbelagavi/commerce-api/internal/model"
	"github.com/urbanbelagavi/commerce-api/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ProductCache drops cached product reads whose stock has changed.
type ProductCache interface {
	InvalidateProduct(ctx context.Context, id uuid.UUID)
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cache       ProductCache
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cache ProductCache) *OrderService {
	return &OrderService{orderRepo: orderRepo, productRepo: productRepo, cache: cache}
}

func (s *OrderService) invalidateProduct(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateProduct(ctx, id)
	}
}

// CreateOrder reserves stock and persists the order in one transaction. The
// unit price is read under the product row lock, so the stored total is a
// snapshot immune to later catalog price changes.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := s.productRepo.GetForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if err := s.productRepo.ReserveStock(ctx, tx, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	total := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).RoundBank(2)
	order := &model.Order{
		UserID:          userID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		TotalPrice:      total,
		Status:          model.OrderStatusPending,
		DeliveryAddress: req.DeliveryAddress,
	}
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	// the reservation changed quantity/in_stock, so cached reads are stale
	s.invalidateProduct(ctx, req.ProductID)
	return order, nil
}

// AttachPayment records a payment identifier and confirms the order. It is
// only legal while the order is still pending, so the payment id is set at
// most once.
func (s *OrderService) AttachPayment(ctx context.Context, orderID, paymentID uuid.UUID) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.SetPayment(ctx, tx, orderID, paymentID); err != nil {
		return nil, fmt.Errorf("set payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order.Status = model.OrderStatusConfirmed
	order.PaymentID = &paymentID
	return order, nil
}

// AdvanceStatus moves an order along the fulfilment path. Cancellation goes
// through CancelOrder because it has a stock side effect.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	if !model.ValidStatus(next) || next == model.OrderStatusCancelled {
		return nil, ErrInvalidTransition
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !model.CanTransition(order.Status, next) {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, next); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order.Status = next
	return order, nil
}

// CancelOrder cancels a pending or confirmed order and returns its quantity
// to the product's stock in the same transaction.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	if !model.CanTransition(order.Status, model.OrderStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusCancelled); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if err := s.productRepo.RestoreStock(ctx, tx, order.ProductID, order.Quantity); err != nil {
		return nil, fmt.Errorf("restore stock: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.invalidateProduct(ctx, order.ProductID)
	order.Status = model.OrderStatusCancelled
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.orderRepo.ListByUserID(ctx, userID)
}
