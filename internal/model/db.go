package model

// All returns every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&PromoCode{},
		&Order{},
		&OrderItem{},
		&Event{},
		&Reservation{},
		&CartItem{},
	}
}
