package model

import "time"

// CartItem is one line of an open cart.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// CartEntry tracks one customer's open cart for abandonment detection.
// Overwritten on every heartbeat; Notified survives an overwrite only while
// the cart total stays the same.
type CartEntry struct {
	Email     string     `json:"email"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
	Notified  bool       `json:"notified"`
}

// ItemTotal sums price*quantity across the items.
func ItemTotal(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
