package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hgzoia/mercado-livro/internal/domain"
)

type Store interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)
	Update(ctx context.Context, purchase *domain.Purchase) (bool, error)
	AttachInvoice(ctx context.Context, id, invoiceID string) (*domain.Purchase, error)
}

type CustomerGetter interface {
	Get(ctx context.Context, id string) (*domain.Customer, error)
}

type BookResolver interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error)
}

// EventPublisher is the fire-and-forget sink for purchase events. A nil
// publisher disables emission entirely.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	store        Store
	customers    CustomerGetter
	books        BookResolver
	publisher    EventPublisher
	logger       *slog.Logger
	allowMissing bool
}

type Option func(*Service)

// WithPartialFulfillment makes Assemble silently drop book ids that do not
// resolve instead of failing. The default is strict: every requested id must
// exist.
func WithPartialFulfillment() Option {
	return func(s *Service) {
		s.allowMissing = true
	}
}

func NewService(store Store, customers CustomerGetter, books BookResolver, publisher EventPublisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		customers: customers,
		books:     books,
		publisher: publisher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assemble validates a purchase request and builds the unsaved aggregate:
// the customer must exist, every book must be purchasable, and the total is
// the sum of the book prices at assembly time. A book id repeated in the
// request counts once. The first sold or deleted book aborts the whole
// aggregation.
func (s *Service) Assemble(ctx context.Context, customerID string, bookIDs []string) (*domain.Purchase, error) {
	if len(bookIDs) == 0 {
		return nil, &domain.BadRequestError{Reason: "purchase must contain at least one book"}
	}
	bookIDs = dedupeIDs(bookIDs)

	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	books, err := s.books.GetByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	if !s.allowMissing && len(books) != len(bookIDs) {
		return nil, domain.NewBookNotFound(firstMissing(bookIDs, books))
	}
	if len(books) == 0 {
		return nil, &domain.BadRequestError{Reason: "purchase must contain at least one book"}
	}

	var total int64
	for _, book := range books {
		if !book.Status.Purchasable() {
			return nil, &domain.BadRequestError{
				Reason: fmt.Sprintf("book %s is %s, cannot be purchased", book.ID, strings.ToLower(string(book.Status))),
			}
		}
		total += book.PriceCents
	}

	return &domain.Purchase{
		CustomerID: customer.ID,
		Books:      books,
		TotalCents: total,
	}, nil
}

// Create persists the purchase and publishes a purchase-created event. The
// publish is fire-and-forget: a failure is logged and never fails or rolls
// back the already-committed purchase.
func (s *Service) Create(ctx context.Context, purchase *domain.Purchase) error {
	if err := s.store.Create(ctx, purchase); err != nil {
		if errors.Is(err, ErrBooksUnavailable) {
			return &domain.BadRequestError{Reason: err.Error()}
		}
		return err
	}

	if s.publisher != nil {
		event := domain.PurchaseCreatedEvent{
			PurchaseID: purchase.ID,
			CustomerID: purchase.CustomerID,
			BookIDs:    purchase.BookIDs(),
			TotalCents: purchase.TotalCents,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, purchase.ID, event); err != nil {
			s.logger.Error("failed to publish purchase created event", "error", err, "purchase_id", purchase.ID)
		}
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Purchase, error) {
	purchase, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, domain.NewPurchaseNotFound(id)
	}
	return purchase, nil
}

// Update replaces the invoice id and total by purchase id. No event.
func (s *Service) Update(ctx context.Context, purchase *domain.Purchase) error {
	updated, err := s.store.Update(ctx, purchase)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NewPurchaseNotFound(purchase.ID)
	}
	return nil
}

func (s *Service) AttachInvoice(ctx context.Context, id, invoiceID string) (*domain.Purchase, error) {
	purchase, err := s.store.AttachInvoice(ctx, id, invoiceID)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, domain.NewPurchaseNotFound(id)
	}
	return purchase, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func firstMissing(requested []string, resolved []domain.Book) string {
	found := make(map[string]bool, len(resolved))
	for _, book := range resolved {
		found[book.ID] = true
	}
	for _, id := range requested {
		if !found[id] {
			return id
		}
	}
	return ""
}
