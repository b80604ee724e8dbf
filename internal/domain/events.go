package domain

import "time"

type PurchaseCreatedEvent struct {
	PurchaseID string    `json:"purchase_id"`
	CustomerID string    `json:"customer_id"`
	BookIDs    []string  `json:"book_ids"`
	TotalCents int64     `json:"total_cents"`
	Timestamp  time.Time `json:"timestamp"`
}
