package books

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hgzoia/mercado-livro/internal/auth"
	"github.com/hgzoia/mercado-livro/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createBookRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	CustomerID string `json:"customer_id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "name: must not be empty")
		return
	}
	if req.PriceCents < 0 {
		h.writeError(w, http.StatusUnprocessableEntity, "price_cents: must not be negative")
		return
	}

	principal, ok := auth.FromContext(r.Context())
	if !ok || !auth.CanAccess(principal, req.CustomerID) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	book := &domain.Book{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		CustomerID: req.CustomerID,
	}

	if err := h.service.Create(r.Context(), book); err != nil {
		h.writeDomainError(w, err, "failed to create book")
		return
	}

	h.logger.Info("book created", "book_id", book.ID, "customer_id", book.CustomerID)
	h.writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "failed to get book")
		return
	}

	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	var books []domain.Book
	var err error
	if r.URL.Query().Get("active") == "true" {
		books, err = h.service.ListActives(r.Context(), page)
	} else {
		books, err = h.service.List(r.Context(), page)
	}
	if err != nil {
		h.writeDomainError(w, err, "failed to list books")
		return
	}

	h.writeJSON(w, http.StatusOK, books)
}

type updateBookRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.BookStatus(req.Status)
	if !status.Valid() {
		h.writeError(w, http.StatusUnprocessableEntity, "status: must be one of ACTIVE, SOLD, DELETED")
		return
	}

	book := &domain.Book{
		ID:         r.PathValue("id"),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		CustomerID: req.CustomerID,
		Status:     status,
	}

	if err := h.service.Update(r.Context(), book); err != nil {
		h.writeDomainError(w, err, "failed to update book")
		return
	}

	h.logger.Info("book updated", "book_id", book.ID)
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	book, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "failed to get book")
		return
	}

	principal, ok := auth.FromContext(r.Context())
	if !ok || !auth.CanAccess(principal, book.CustomerID) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "failed to delete book")
		return
	}

	h.logger.Info("book deleted", "book_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func parsePage(r *http.Request) Page {
	page := Page{}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Number = n
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		page.Size = size
	}
	return page
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var badRequest *domain.BadRequestError

	switch {
	case errors.As(err, &notFound):
		h.writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		h.writeError(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &badRequest):
		h.writeError(w, http.StatusBadRequest, badRequest.Error())
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "access denied")
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
