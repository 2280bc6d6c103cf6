package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"         json:"id"`
	UserID          *uuid.UUID       `gorm:"type:uuid;index"              json:"user_id"`
	User            *User            `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	PaymentMethod   string           `gorm:"size:200"                     json:"payment_method"`
	TaxPrice        decimal.Decimal  `gorm:"type:numeric(7,2);not null;default:0" json:"tax_price"`
	ShippingPrice   decimal.Decimal  `gorm:"type:numeric(7,2);not null;default:0" json:"shipping_price"`
	TotalPrice      decimal.Decimal  `gorm:"type:numeric(7,2);not null;default:0" json:"total_price"`
	IsPaid          bool             `gorm:"not null;default:false"       json:"is_paid"`
	PaidAt          *time.Time       `json:"paid_at"`
	IsDelivered     bool             `gorm:"not null;default:false"       json:"is_delivered"`
	DeliveredAt     *time.Time       `json:"delivered_at"`
	CreatedAt       time.Time        `gorm:"index"                        json:"created_at"`
	OrderItems      []OrderItem      `gorm:"constraint:OnDelete:CASCADE"  json:"order_items"`
	ShippingAddress *ShippingAddress `gorm:"constraint:OnDelete:CASCADE"  json:"shipping_address"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	newID(&o.ID)
	return nil
}

// OrderItem keeps a snapshot of the product as it was sold.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index"              json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"     json:"order_id"`
	Name      string          `gorm:"size:200"                     json:"name"`
	Qty       int             `gorm:"not null;check:qty > 0"       json:"qty"`
	Price     decimal.Decimal `gorm:"type:numeric(7,2);not null"   json:"price"`
	Image     string          `gorm:"size:255"                     json:"image"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

type ShippingAddress struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	OrderID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"order_id"`
	Address       string          `gorm:"size:200"                       json:"address"`
	City          string          `gorm:"size:200"                       json:"city"`
	PostalCode    string          `gorm:"size:200"                       json:"postal_code"`
	Country       string          `gorm:"size:200"                       json:"country"`
	ShippingPrice decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0" json:"shipping_price"`
}

func (a *ShippingAddress) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}
