package models

import (
	"github.com/google/uuid"
)

// ensureID assigns a UUID when the caller did not. Ids are generated in Go
// so sqlite-backed tests behave like postgres.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&Permission{},
		&Role{},
		&User{},
		&Product{},
		&Size{},
		&Review{},
		&Cart{},
		&CartItem{},
		&WishlistItem{},
		&Order{},
		&OrderItem{},
	}
}
