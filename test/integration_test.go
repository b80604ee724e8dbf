//go:build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hgzoia/mercado-livro/internal/auth"
	"github.com/hgzoia/mercado-livro/internal/books"
	"github.com/hgzoia/mercado-livro/internal/customers"
	"github.com/hgzoia/mercado-livro/internal/domain"
	"github.com/hgzoia/mercado-livro/internal/purchases"
	"github.com/hgzoia/mercado-livro/internal/worker"
)

type eventCapture struct {
	mu     sync.Mutex
	events []domain.PurchaseCreatedEvent
}

func (e *eventCapture) Publish(_ context.Context, _ string, event any) error {
	purchaseEvent, ok := event.(domain.PurchaseCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	e.mu.Lock()
	e.events = append(e.events, purchaseEvent)
	e.mu.Unlock()
	return nil
}

func (e *eventCapture) getEvents() []domain.PurchaseCreatedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]domain.PurchaseCreatedEvent, len(e.events))
	copy(result, e.events)
	return result
}

type testAPI struct {
	server        *httptest.Server
	customerRepo  *customers.CustomerRepository
	bookRepo      *books.BookRepository
	purchaseRepo  *purchases.PurchaseRepository
	capturedEvent *eventCapture
}

func newTestAPI(t *testing.T, connStr string) *testAPI {
	t.Helper()

	db, err := OpenDB(connStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	capture := &eventCapture{}

	bookRepo := books.NewBookRepository(db)
	bookService := books.NewService(bookRepo)
	bookHandler := books.NewHandler(bookService, logger)

	customerRepo := customers.NewCustomerRepository(db)
	customerService := customers.NewService(customerRepo, bookService, auth.NewBcryptHasher(), logger)
	customerHandler := customers.NewHandler(customerService, logger)

	purchaseRepo := purchases.NewPurchaseRepository(db)
	purchaseService := purchases.NewService(purchaseRepo, customerService, bookService, capture, logger)
	purchaseHandler := purchases.NewHandler(purchaseService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /customers", customerHandler.HandleCreate)
	mux.HandleFunc("GET /customers/{id}", customerHandler.HandleGet)
	mux.HandleFunc("DELETE /customers/{id}", customerHandler.HandleDelete)
	mux.HandleFunc("POST /books", bookHandler.HandleCreate)
	mux.HandleFunc("GET /books/{id}", bookHandler.HandleGet)
	mux.HandleFunc("POST /purchases", purchaseHandler.HandleCreate)
	mux.HandleFunc("GET /purchases/{id}", purchaseHandler.HandleGet)
	mux.HandleFunc("PATCH /purchases/{id}/invoice", purchaseHandler.HandleAttachInvoice)

	server := httptest.NewServer(auth.Middleware(mux))
	t.Cleanup(server.Close)

	return &testAPI{
		server:        server,
		customerRepo:  customerRepo,
		bookRepo:      bookRepo,
		purchaseRepo:  purchaseRepo,
		capturedEvent: capture,
	}
}

func (a *testAPI) do(t *testing.T, method, path, principalID string, roles []domain.Role, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if principalID != "" {
		req.Header.Set(auth.HeaderPrincipalID, principalID)
		roleNames := make([]string, len(roles))
		for i, role := range roles {
			roleNames[i] = string(role)
		}
		req.Header.Set(auth.HeaderPrincipalRoles, strings.Join(roleNames, ","))
	}

	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func (a *testAPI) createCustomer(t *testing.T, name, email string) domain.Customer {
	t.Helper()

	body := fmt.Sprintf(`{"name": %q, "email": %q, "password": "secret"}`, name, email)
	resp := a.do(t, http.MethodPost, "/customers", "", nil, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 creating customer, got %d", resp.StatusCode)
	}
	return decodeBody[domain.Customer](t, resp)
}

func (a *testAPI) createBook(t *testing.T, ownerID, name string, priceCents int64) domain.Book {
	t.Helper()

	body := fmt.Sprintf(`{"name": %q, "price_cents": %d, "customer_id": %q}`, name, priceCents, ownerID)
	resp := a.do(t, http.MethodPost, "/books", ownerID, []domain.Role{domain.RoleCustomer}, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 creating book, got %d", resp.StatusCode)
	}
	return decodeBody[domain.Book](t, resp)
}

func TestPurchaseFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	api := newTestAPI(t, pg.ConnStr)

	seller := api.createCustomer(t, "Ana", "ana@example.com")
	buyer := api.createCustomer(t, "Bruno", "bruno@example.com")

	book1 := api.createBook(t, seller.ID, "Clean Architecture", 1000)
	book2 := api.createBook(t, seller.ID, "Domain-Driven Design", 500)

	purchaseBody := fmt.Sprintf(`{"customer_id": %q, "book_ids": [%q, %q]}`, buyer.ID, book1.ID, book2.ID)
	resp := api.do(t, http.MethodPost, "/purchases", buyer.ID, []domain.Role{domain.RoleCustomer}, purchaseBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 creating purchase, got %d", resp.StatusCode)
	}
	purchase := decodeBody[domain.Purchase](t, resp)

	if purchase.TotalCents != 1500 {
		t.Fatalf("expected total 1500, got %d", purchase.TotalCents)
	}

	events := api.capturedEvent.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected exactly one purchase event, got %d", len(events))
	}
	if events[0].PurchaseID != purchase.ID || events[0].TotalCents != 1500 {
		t.Fatalf("unexpected event: %+v", events[0])
	}

	soldBook, err := api.bookRepo.GetByID(ctx, book1.ID)
	if err != nil {
		t.Fatalf("failed to fetch book: %v", err)
	}
	if soldBook.Status != domain.BookStatusSold {
		t.Fatalf("expected book to be SOLD after purchase, got %s", soldBook.Status)
	}

	resp = api.do(t, http.MethodPost, "/purchases", buyer.ID, []domain.Role{domain.RoleCustomer}, purchaseBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 re-purchasing sold books, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	events = api.capturedEvent.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected no new event on rejected purchase, got %d", len(events))
	}
}

func TestCustomerDeleteCascade(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	api := newTestAPI(t, pg.ConnStr)

	seller := api.createCustomer(t, "Ana", "ana@example.com")
	book := api.createBook(t, seller.ID, "Refactoring", 700)

	resp := api.do(t, http.MethodDelete, "/customers/"+seller.ID, seller.ID, []domain.Role{domain.RoleCustomer}, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status 204 deleting customer, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	keptCustomer, err := api.customerRepo.GetByID(ctx, seller.ID)
	if err != nil {
		t.Fatalf("failed to fetch customer: %v", err)
	}
	if keptCustomer == nil {
		t.Fatal("expected customer record to survive soft delete")
	}
	if keptCustomer.Status != domain.CustomerStatusInactive {
		t.Fatalf("expected customer INACTIVE, got %s", keptCustomer.Status)
	}

	keptBook, err := api.bookRepo.GetByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("failed to fetch book: %v", err)
	}
	if keptBook == nil {
		t.Fatal("expected book record to survive cascade")
	}
	if keptBook.Status != domain.BookStatusDeleted {
		t.Fatalf("expected book DELETED after cascade, got %s", keptBook.Status)
	}
}

func TestInvoiceWorkerFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	api := newTestAPI(t, pg.ConnStr)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	buyer := api.createCustomer(t, "Bruno", "bruno@example.com")
	seller := api.createCustomer(t, "Ana", "ana@example.com")
	book := api.createBook(t, seller.ID, "The Go Programming Language", 1200)

	purchaseBody := fmt.Sprintf(`{"customer_id": %q, "book_ids": [%q]}`, buyer.ID, book.ID)
	resp := api.do(t, http.MethodPost, "/purchases", buyer.ID, []domain.Role{domain.RoleCustomer}, purchaseBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 creating purchase, got %d", resp.StatusCode)
	}
	purchase := decodeBody[domain.Purchase](t, resp)

	events := api.capturedEvent.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	payload, err := json.Marshal(events[0])
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	invoiceHandler := worker.NewInvoiceHandler(api.server.URL, httpClient, logger)
	if err := invoiceHandler.Handle(ctx, payload); err != nil {
		t.Fatalf("invoice worker failed: %v", err)
	}

	invoiced, err := api.purchaseRepo.GetByID(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("failed to fetch purchase: %v", err)
	}
	if invoiced.InvoiceID == nil || *invoiced.InvoiceID == "" {
		t.Fatal("expected invoice attached to purchase")
	}
}

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}
