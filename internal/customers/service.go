package customers

import (
	"context"
	"log/slog"

	"github.com/hgzoia/mercado-livro/internal/auth"
	"github.com/hgzoia/mercado-livro/internal/domain"
)

type Store interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	Update(ctx context.Context, id, name, email string) (*domain.Customer, error)
	UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	ListByNameContaining(ctx context.Context, name string) ([]domain.Customer, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// BookDeactivator is the slice of the book service needed for the
// customer-delete cascade.
type BookDeactivator interface {
	DeleteByCustomer(ctx context.Context, customerID string) error
}

type Service struct {
	store  Store
	books  BookDeactivator
	hasher auth.Hasher
	logger *slog.Logger
}

func NewService(store Store, books BookDeactivator, hasher auth.Hasher, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		books:  books,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, name, email, rawPassword string) (*domain.Customer, error) {
	taken, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &domain.ValidationError{Field: "email", Reason: "email already registered"}
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.CustomerStatusActive,
		Roles:        []domain.Role{domain.RoleCustomer},
	}

	if err := s.store.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.NewCustomerNotFound(id)
	}
	return customer, nil
}

// Update replaces name and email. A changed email must not belong to
// another customer; keeping the current email is always allowed.
func (s *Service) Update(ctx context.Context, id, name, email string) (*domain.Customer, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NewCustomerNotFound(id)
	}

	if email != current.Email {
		taken, err := s.store.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &domain.ValidationError{Field: "email", Reason: "email already registered"}
		}
	}

	customer, err := s.store.Update(ctx, id, name, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.NewCustomerNotFound(id)
	}
	return customer, nil
}

// Delete soft-deletes the customer and cascades to its books. The status
// flip is committed before the cascade runs; a cascade failure leaves the
// customer INACTIVE with some books still active, and the error propagates
// so the caller sees the operation as failed.
func (s *Service) Delete(ctx context.Context, id string) error {
	customer, err := s.store.UpdateStatus(ctx, id, domain.CustomerStatusInactive)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.NewCustomerNotFound(id)
	}

	if err := s.books.DeleteByCustomer(ctx, id); err != nil {
		s.logger.Error("book cascade failed after customer deactivation", "error", err, "customer_id", id)
		return err
	}

	return nil
}

func (s *Service) List(ctx context.Context, nameFilter string) ([]domain.Customer, error) {
	if nameFilter == "" {
		return s.store.List(ctx)
	}
	return s.store.ListByNameContaining(ctx, nameFilter)
}

func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
