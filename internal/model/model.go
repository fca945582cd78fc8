package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// ValidRole reports whether role belongs to the fixed role set.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleSeller || role == RoleAdmin
}

type User struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Password   string // bcrypt digest, never plaintext
	Phone      string
	Address    string
	Role       string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string
	Image       string
	Price       decimal.Decimal
	SellerID    uuid.UUID
	InStock     bool // always quantity > 0, maintained by the repository
	Quantity    int
	Rating      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ProductID       uuid.UUID
	Quantity        int
	TotalPrice      decimal.Decimal // unit price snapshot x quantity, frozen at creation
	Status          OrderStatus
	PaymentID       *uuid.UUID
	DeliveryAddress string // copied at order time, not a reference to User.Address
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PaymentMessage struct {
	OrderID   uuid.UUID `json:"order_id"`
	PaymentID uuid.UUID `json:"payment_id"`
}
