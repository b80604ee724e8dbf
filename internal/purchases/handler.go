package purchases

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

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

type createPurchaseRequest struct {
	CustomerID string   `json:"customer_id"`
	BookIDs    []string `json:"book_ids"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal, ok := auth.FromContext(r.Context())
	if !ok || !auth.CanAccess(principal, req.CustomerID) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	purchase, err := h.service.Assemble(r.Context(), req.CustomerID, req.BookIDs)
	if err != nil {
		h.writeDomainError(w, err, "failed to assemble purchase")
		return
	}

	if err := h.service.Create(r.Context(), purchase); err != nil {
		h.writeDomainError(w, err, "failed to create purchase")
		return
	}

	h.logger.Info("purchase created", "purchase_id", purchase.ID, "customer_id", purchase.CustomerID, "total_cents", purchase.TotalCents)
	h.writeJSON(w, http.StatusCreated, purchase)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	purchase, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "failed to get purchase")
		return
	}

	principal, ok := auth.FromContext(r.Context())
	if !ok || !auth.CanAccess(principal, purchase.CustomerID) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	h.writeJSON(w, http.StatusOK, purchase)
}

type updatePurchaseRequest struct {
	InvoiceID  *string `json:"invoice_id"`
	TotalCents int64   `json:"total_cents"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req updatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	purchase := &domain.Purchase{
		ID:         r.PathValue("id"),
		InvoiceID:  req.InvoiceID,
		TotalCents: req.TotalCents,
	}

	if err := h.service.Update(r.Context(), purchase); err != nil {
		h.writeDomainError(w, err, "failed to update purchase")
		return
	}

	h.logger.Info("purchase updated", "purchase_id", purchase.ID)
	h.writeJSON(w, http.StatusOK, purchase)
}

type attachInvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
}

func (h *Handler) HandleAttachInvoice(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req attachInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InvoiceID == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "invoice_id: must not be empty")
		return
	}

	purchase, err := h.service.AttachInvoice(r.Context(), r.PathValue("id"), req.InvoiceID)
	if err != nil {
		h.writeDomainError(w, err, "failed to attach invoice")
		return
	}

	h.logger.Info("invoice attached", "purchase_id", purchase.ID, "invoice_id", req.InvoiceID)
	h.writeJSON(w, http.StatusOK, purchase)
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
