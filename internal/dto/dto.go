package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/urbanbelagavi/commerce-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=user seller admin"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
}

// --- Product ---

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Quantity    int             `json:"quantity" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity" binding:"omitempty,min=0"`
	Rating      *decimal.Decimal `json:"rating"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Sort   string `form:"sort,default=created_at" binding:"oneof=name price rating created_at"`
	Order  string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	SellerID    uuid.UUID       `json:"seller_id"`
	InStock     bool            `json:"in_stock"`
	Quantity    int             `json:"quantity"`
	Rating      decimal.Decimal `json:"rating"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Order ---

type CreateOrderRequest struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1"`
	DeliveryAddress string    `json:"delivery_address" binding:"required"`
}

type AdvanceStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type AttachPaymentRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
}

type PaymentWebhookRequest struct {
	OrderID   uuid.UUID `json:"order_id" binding:"required"`
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
}

type OrderResponse struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	ProductID       uuid.UUID         `json:"product_id"`
	Quantity        int               `json:"quantity"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	Status          model.OrderStatus `json:"status"`
	PaymentID       *uuid.UUID        `json:"payment_id,omitempty"`
	DeliveryAddress string            `json:"delivery_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}
