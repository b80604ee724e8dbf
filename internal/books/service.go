package books

import (
	"context"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

type Store interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error)
	List(ctx context.Context, limit, offset int) ([]domain.Book, error)
	ListByStatus(ctx context.Context, status domain.BookStatus, limit, offset int) ([]domain.Book, error)
	Update(ctx context.Context, book *domain.Book) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookStatus) (*domain.Book, error)
	UpdateStatusByCustomer(ctx context.Context, customerID string, status domain.BookStatus) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, book *domain.Book) error {
	book.Status = domain.BookStatusActive
	return s.store.Create(ctx, book)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.NewBookNotFound(id)
	}
	return book, nil
}

// GetByIDs returns only the requested ids that exist; missing ids are the
// caller's concern.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	return s.store.GetByIDs(ctx, ids)
}

type Page struct {
	Number int
	Size   int
}

func (p Page) limitOffset() (int, int) {
	size := p.Size
	if size <= 0 {
		size = 20
	}
	number := p.Number
	if number < 0 {
		number = 0
	}
	return size, number * size
}

func (s *Service) List(ctx context.Context, page Page) ([]domain.Book, error) {
	limit, offset := page.limitOffset()
	return s.store.List(ctx, limit, offset)
}

func (s *Service) ListActives(ctx context.Context, page Page) ([]domain.Book, error) {
	limit, offset := page.limitOffset()
	return s.store.ListByStatus(ctx, domain.BookStatusActive, limit, offset)
}

func (s *Service) Update(ctx context.Context, book *domain.Book) error {
	updated, err := s.store.Update(ctx, book)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NewBookNotFound(book.ID)
	}
	return nil
}

// Delete soft-deletes: the record stays, status flips to DELETED.
func (s *Service) Delete(ctx context.Context, id string) error {
	book, err := s.store.UpdateStatus(ctx, id, domain.BookStatusDeleted)
	if err != nil {
		return err
	}
	if book == nil {
		return domain.NewBookNotFound(id)
	}
	return nil
}

// DeleteByCustomer deactivates every book owned by the customer. Used by the
// customer soft-delete cascade; persistence failures propagate.
func (s *Service) DeleteByCustomer(ctx context.Context, customerID string) error {
	return s.store.UpdateStatusByCustomer(ctx, customerID, domain.BookStatusDeleted)
}
