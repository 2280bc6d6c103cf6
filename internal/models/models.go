package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Product{},
		&Review{},
		&Order{},
		&ShippingAddress{},
		&OrderItem{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
