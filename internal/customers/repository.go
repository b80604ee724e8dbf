package customers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	customer.ID = uuid.New().String()
	customer.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, password_hash, status, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, customer.ID, customer.Name, customer.Email, customer.PasswordHash,
		customer.Status, pq.Array(rolesToStrings(customer.Roles)), customer.CreatedAt)
	return err
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer := &domain.Customer{}
	var roles []string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, status, roles, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.PasswordHash,
		&customer.Status, pq.Array(&roles), &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	customer.Roles = rolesFromStrings(roles)
	return customer, nil
}

// Update replaces name and email only; status and roles are untouched.
// Returns nil when no customer has the given id.
func (r *CustomerRepository) Update(ctx context.Context, id, name, email string) (*domain.Customer, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE customers SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
	`, id, name, email)
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

func (r *CustomerRepository) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) (*domain.Customer, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE customers SET status = $2, updated_at = NOW()
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

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	return r.list(ctx, `
		SELECT id, name, email, password_hash, status, roles, created_at
		FROM customers
		ORDER BY created_at
	`)
}

// ListByNameContaining filters on a case-sensitive, unanchored substring.
func (r *CustomerRepository) ListByNameContaining(ctx context.Context, name string) ([]domain.Customer, error) {
	return r.list(ctx, `
		SELECT id, name, email, password_hash, status, roles, created_at
		FROM customers
		WHERE name LIKE '%' || $1 || '%'
		ORDER BY created_at
	`, name)
}

func (r *CustomerRepository) list(ctx context.Context, query string, args ...any) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	customers := []domain.Customer{}
	for rows.Next() {
		var customer domain.Customer
		var roles []string
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.PasswordHash,
			&customer.Status, pq.Array(&roles), &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.Roles = rolesFromStrings(roles)
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)
	`, email).Scan(&exists)
	return exists, err
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func rolesFromStrings(roles []string) []domain.Role {
	out := make([]domain.Role, len(roles))
	for i, role := range roles {
		out[i] = domain.Role(role)
	}
	return out
}
