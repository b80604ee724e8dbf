package domain

import "time"

type BookStatus string

const (
	BookStatusActive  BookStatus = "ACTIVE"
	BookStatusSold    BookStatus = "SOLD"
	BookStatusDeleted BookStatus = "DELETED"
)

// Purchasable reports whether the book may still be included in a purchase.
// SOLD and DELETED are terminal states.
func (s BookStatus) Purchasable() bool {
	return s == BookStatusActive
}

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusActive, BookStatusSold, BookStatusDeleted:
		return true
	}
	return false
}

type Book struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PriceCents int64      `json:"price_cents"`
	CustomerID string     `json:"customer_id"`
	Status     BookStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
