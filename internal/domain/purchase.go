package domain

import "time"

type Purchase struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Books      []Book    `json:"books"`
	InvoiceID  *string   `json:"invoice_id"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookIDs returns the purchased book ids in purchase order.
func (p *Purchase) BookIDs() []string {
	ids := make([]string, len(p.Books))
	for i, b := range p.Books {
		ids[i] = b.ID
	}
	return ids
}
