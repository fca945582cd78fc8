package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanbelagavi/commerce-api/internal/model"
)

const orderColumns = `id, user_id, product_id, quantity, total_price, status, payment_id, delivery_address, created_at, updated_at`

type OrderRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	SetPayment(ctx context.Context, tx pgx.Tx, id, paymentID uuid.UUID) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	return tx, nil
}

func (r *pgOrderRepo) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, product_id, quantity, total_price, status, payment_id, delivery_address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.ProductID, order.Quantity, order.TotalPrice,
		order.Status, order.PaymentID, order.DeliveryAddress,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return wrapErr("insert order", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *pgOrderRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	order := &model.Order{}
	err := row.Scan(
		&order.ID, &order.UserID, &order.ProductID, &order.Quantity, &order.TotalPrice,
		&order.Status, &order.PaymentID, &order.DeliveryAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get order", err)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.TotalPrice,
			&o.Status, &o.PaymentID, &o.DeliveryAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, wrapErr("scan order", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return wrapErr("update order status", err)
	}
	return nil
}

func (r *pgOrderRepo) SetPayment(ctx context.Context, tx pgx.Tx, id, paymentID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, payment_id = $3, updated_at = NOW() WHERE id = $1`,
		id, model.OrderStatusConfirmed, paymentID,
	)
	if err != nil {
		return wrapErr("set order payment", err)
	}
	return nil
}
