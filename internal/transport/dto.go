package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

type OrderItemRequest struct {
	Product uuid.UUID       `json:"product"`
	Qty     int             `json:"qty"`
	Price   decimal.Decimal `json:"price"`
}

type ShippingAddressRequest struct {
	Address    string `json:"address"     validate:"max=200"`
	City       string `json:"city"        validate:"max=200"`
	PostalCode string `json:"postal_code" validate:"max=200"`
	Country    string `json:"country"     validate:"max=200"`
}

type PlaceOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"order_items"`
	PaymentMethod   string                 `json:"payment_method" validate:"max=200"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	TaxPrice        decimal.Decimal        `json:"tax_price"`
	ShippingPrice   decimal.Decimal        `json:"shipping_price"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

type CreateProductRequest struct {
	Name         string           `json:"name"        validate:"max=200"`
	Image        string           `json:"image"       validate:"max=255"`
	Discipline   string           `json:"discipline"  validate:"max=200"`
	Category     string           `json:"category"    validate:"max=200"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	CountInStock *int             `json:"count_in_stock"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"        validate:"omitempty,max=200"`
	Image        *string          `json:"image"       validate:"omitempty,max=255"`
	Discipline   *string          `json:"discipline"  validate:"omitempty,max=200"`
	Category     *string          `json:"category"    validate:"omitempty,max=200"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	CountInStock *int             `json:"count_in_stock"`
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=150"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"     validate:"omitempty,max=150"`
	Email    string `json:"email"    validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

type UpdateUserRequest struct {
	Name    string `json:"name"     validate:"omitempty,max=150"`
	Email   string `json:"email"    validate:"omitempty,email,max=254"`
	IsAdmin bool   `json:"is_admin"`
}

// LoginResult is what register, login and refresh hand back.
type LoginResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	AccessExp    time.Time    `json:"access_expires_at"`
	RefreshExp   time.Time    `json:"refresh_expires_at"`
	IsAdmin      bool         `json:"is_admin"`
}
