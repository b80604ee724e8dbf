package purchases

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

// ErrBooksUnavailable means at least one book lost its ACTIVE status between
// aggregation and persistence; the whole purchase is rolled back.
var ErrBooksUnavailable = errors.New("one or more books are no longer available")

type PurchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Create persists the purchase, its ordered book list, and the ACTIVE to SOLD
// transition of every purchased book in a single transaction. The status
// flip re-checks ACTIVE so a concurrent purchase of the same book fails.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	purchase.ID = uuid.New().String()
	purchase.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchases (id, customer_id, invoice_id, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, purchase.ID, purchase.CustomerID, purchase.InvoiceID, purchase.TotalCents, purchase.CreatedAt)
	if err != nil {
		return err
	}

	for i, book := range purchase.Books {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_books (purchase_id, book_id, position)
			VALUES ($1, $2, $3)
		`, purchase.ID, book.ID, i)
		if err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE books SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
	`, domain.BookStatusSold, pq.Array(purchase.BookIDs()), domain.BookStatusActive)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected != int64(len(purchase.Books)) {
		return ErrBooksUnavailable
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for i := range purchase.Books {
		purchase.Books[i].Status = domain.BookStatusSold
	}

	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	purchase := &domain.Purchase{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, invoice_id, total_cents, created_at
		FROM purchases
		WHERE id = $1
	`, id).Scan(&purchase.ID, &purchase.CustomerID, &purchase.InvoiceID,
		&purchase.TotalCents, &purchase.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.price_cents, b.customer_id, b.status, b.created_at
		FROM purchase_books pb
		JOIN books b ON b.id = pb.book_id
		WHERE pb.purchase_id = $1
		ORDER BY pb.position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	purchase.Books = []domain.Book{}
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.Name, &book.PriceCents, &book.CustomerID,
			&book.Status, &book.CreatedAt); err != nil {
			return nil, err
		}
		purchase.Books = append(purchase.Books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return purchase, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, purchase *domain.Purchase) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET invoice_id = $2, total_cents = $3, updated_at = NOW()
		WHERE id = $1
	`, purchase.ID, purchase.InvoiceID, purchase.TotalCents)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *PurchaseRepository) AttachInvoice(ctx context.Context, id, invoiceID string) (*domain.Purchase, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET invoice_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, invoiceID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}
