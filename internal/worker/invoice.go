package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hgzoia/mercado-livro/internal/auth"
	"github.com/hgzoia/mercado-livro/internal/domain"
)

// InvoiceHandler reacts to purchase-created events: it issues an invoice
// identifier and attaches it to the purchase through the API.
type InvoiceHandler struct {
	apiServiceURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewInvoiceHandler(apiServiceURL string, client *http.Client, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		apiServiceURL: apiServiceURL,
		httpClient:    client,
		logger:        logger,
	}
}

func (h *InvoiceHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.PurchaseCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal purchase created event: %w", err)
	}

	h.logger.Info("processing purchase created event", "purchase_id", event.PurchaseID, "customer_id", event.CustomerID)

	invoiceID := uuid.New().String()
	if err := h.attachInvoice(ctx, event.PurchaseID, invoiceID); err != nil {
		h.logger.Error("failed to attach invoice", "error", err, "purchase_id", event.PurchaseID)
		return fmt.Errorf("attach invoice: %w", err)
	}

	h.logger.Info("invoice issued", "purchase_id", event.PurchaseID, "invoice_id", invoiceID)
	return nil
}

func (h *InvoiceHandler) attachInvoice(ctx context.Context, purchaseID, invoiceID string) error {
	body := map[string]string{"invoice_id": invoiceID}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/purchases/%s/invoice", h.apiServiceURL, purchaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderPrincipalID, "invoice-worker")
	req.Header.Set(auth.HeaderPrincipalRoles, string(domain.RoleAdmin))

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api service returned status %d", resp.StatusCode)
	}

	return nil
}
