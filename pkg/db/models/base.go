package models

import "github.com/google/uuid"

// assignID generates primary keys application side so the same models work
// against Postgres and the sqlite test store.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&Product{},
		&Address{},
		&Cart{},
		&CartItem{},
		&Promotion{},
		&PromotionProduct{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}
