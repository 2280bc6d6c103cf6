package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const PlaceholderImage = "/placeholder.png"

type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"             json:"id"`
	UserID       *uuid.UUID      `gorm:"type:uuid;index"                  json:"user_id"`
	User         *User           `gorm:"constraint:OnDelete:SET NULL"     json:"-"`
	Name         string          `gorm:"size:200;not null"                json:"name"`
	Image        string          `gorm:"size:255"                         json:"image"`
	Discipline   string          `gorm:"size:200"                         json:"discipline"`
	Category     string          `gorm:"size:200"                         json:"category"`
	Description  string          `gorm:"type:text"                        json:"description"`
	Rating       decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0" json:"rating"`
	NumReviews   int             `gorm:"not null;default:0"               json:"num_reviews"`
	Price        decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0" json:"price"`
	CountInStock int             `gorm:"not null;default:0"               json:"count_in_stock"`
	CreatedAt    time.Time       `gorm:"index"                            json:"created_at"`
	Reviews      []Review        `gorm:"constraint:OnDelete:SET NULL"     json:"reviews"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	if p.Image == "" {
		p.Image = PlaceholderImage
	}
	return nil
}

// Review ratings run 1..5; 0 is what the client sends when nothing was picked.
type Review struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"                           json:"id"`
	ProductID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:SET NULL"                   json:"-"`
	Name      string     `gorm:"size:200"                                       json:"name"`
	Rating    int        `gorm:"not null;default:0"                             json:"rating"`
	Comment   string     `gorm:"type:text"                                      json:"comment"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}
