package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	book.ID = uuid.New().String()
	book.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO books (id, name, price_cents, customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, book.ID, book.Name, book.PriceCents, book.CustomerID, book.Status, book.CreatedAt)
	return err
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	book := &domain.Book{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, customer_id, status, created_at
		FROM books
		WHERE id = $1
	`, id).Scan(&book.ID, &book.Name, &book.PriceCents, &book.CustomerID, &book.Status, &book.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return book, nil
}

// GetByIDs returns the subset of requested ids that exist, in storage order.
// Missing ids are not an error at this layer.
func (r *BookRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_cents, customer_id, status, created_at
		FROM books
		WHERE id = ANY($1)
		ORDER BY created_at
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanBooks(rows)
}

func (r *BookRepository) List(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_cents, customer_id, status, created_at
		FROM books
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanBooks(rows)
}

func (r *BookRepository) ListByStatus(ctx context.Context, status domain.BookStatus, limit, offset int) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_cents, customer_id, status, created_at
		FROM books
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanBooks(rows)
}

func (r *BookRepository) Update(ctx context.Context, book *domain.Book) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE books SET name = $2, price_cents = $3, customer_id = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`, book.ID, book.Name, book.PriceCents, book.CustomerID, book.Status)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *BookRepository) UpdateStatus(ctx context.Context, id string, status domain.BookStatus) (*domain.Book, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE books SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
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

func (r *BookRepository) UpdateStatusByCustomer(ctx context.Context, customerID string, status domain.BookStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE books SET status = $2, updated_at = NOW()
		WHERE customer_id = $1
	`, customerID, status)
	return err
}

func scanBooks(rows *sql.Rows) ([]domain.Book, error) {
	books := []domain.Book{}
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.Name, &book.PriceCents, &book.CustomerID,
			&book.Status, &book.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}
