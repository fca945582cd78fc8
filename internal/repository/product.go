package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanbelagavi/commerce-api/internal/model"
)

const productColumns = `id, name, description, category, image, price, seller_id, in_stock, quantity, rating, created_at, updated_at`

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// GetForUpdate locks the product row for the remainder of tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)
	// ReserveStock decrements quantity and recomputes in_stock in one
	// statement; quantity can never go negative.
	ReserveStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
	// RestoreStock reverses a reservation when an order is cancelled.
	RestoreStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	product.InStock = product.Quantity > 0
	query := `INSERT INTO products (id, name, description, category, image, price, seller_id, in_stock, quantity, rating, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Image,
		product.Price, product.SellerID, product.InStock, product.Quantity, product.Rating,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return wrapErr("create product", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Image, &p.Price,
		&p.SellerID, &p.InStock, &p.Quantity, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get product", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "rating": true, "created_at": true}
	if !allowedSorts[sort] {
		sort = "created_at"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	var total int
	countQ := `SELECT COUNT(*) FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%')`
	if err := r.pool.QueryRow(ctx, countQ, search).Scan(&total); err != nil {
		return nil, 0, wrapErr("count products", err)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR category ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s LIMIT $2 OFFSET $3`, sort, order)

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, wrapErr("list products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Image, &p.Price,
			&p.SellerID, &p.InStock, &p.Quantity, &p.Rating, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, wrapErr("scan product", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, category=$4, image=$5, price=$6,
			  in_stock = $7 > 0, quantity=$7, rating=$8, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Category, product.Image,
		product.Price, product.Quantity, product.Rating,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return wrapErr("update product", err)
	}
	product.InStock = product.Quantity > 0
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete product", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Image, &p.Price,
		&p.SellerID, &p.InStock, &p.Quantity, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("lock product", err)
	}
	return p, nil
}

func (r *pgProductRepo) ReserveStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET quantity = quantity - $2, in_stock = quantity - $2 > 0, updated_at = NOW()
		 WHERE id = $1 AND quantity >= $2`,
		id, quantity,
	)
	if err != nil {
		return wrapErr("reserve stock", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("reserve stock for product %s: %w", id, ErrInsufficientStock)
	}
	return nil
}

func (r *pgProductRepo) RestoreStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	_, err := tx.Exec(ctx,
		`UPDATE products SET quantity = quantity + $2, in_stock = TRUE, updated_at = NOW() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return wrapErr("restore stock", err)
	}
	return nil
}
