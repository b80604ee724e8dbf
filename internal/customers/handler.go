package customers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

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

type createCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r createCustomerRequest) validate() *domain.ValidationError {
	if r.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return &domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if r.Password == "" {
		return &domain.ValidationError{Field: "password", Reason: "must not be empty"}
	}
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if verr := req.validate(); verr != nil {
		h.writeError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}

	customer, err := h.service.Create(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err, "failed to create customer")
		return
	}

	h.logger.Info("customer created", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusCreated, customer)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.allowAccess(w, r, id) {
		return
	}

	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "failed to get customer")
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

type updateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.allowAccess(w, r, id) {
		return
	}

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "name: must not be empty")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "email: must be a valid email address")
		return
	}

	customer, err := h.service.Update(r.Context(), id, req.Name, req.Email)
	if err != nil {
		h.writeDomainError(w, err, "failed to update customer")
		return
	}

	h.logger.Info("customer updated", "customer_id", id)
	h.writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.allowAccess(w, r, id) {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "failed to delete customer")
		return
	}

	h.logger.Info("customer deactivated", "customer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok || !principal.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	customers, err := h.service.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.writeDomainError(w, err, "failed to list customers")
		return
	}

	h.writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) HandleEmailAvailable(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.writeError(w, http.StatusBadRequest, "missing email")
		return
	}

	available, err := h.service.EmailAvailable(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err, "failed to check email availability")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) allowAccess(w http.ResponseWriter, r *http.Request, customerID string) bool {
	principal, ok := auth.FromContext(r.Context())
	if !ok || !auth.CanAccess(principal, customerID) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return false
	}
	return true
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
