package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/config"
)

// InvoicingService is the boundary to the fiscal invoicing collaborator.
// It is invoked after a sale commits; a failure never rolls the sale back.
type InvoicingService interface {
	IssueInvoice(ctx context.Context, saleID uuid.UUID) (string, error)
}

type httpInvoicingService struct {
	client  *http.Client
	baseURL string
}

// NewHTTPInvoicingService creates an invoicing service client
func NewHTTPInvoicingService(cfg *config.InvoicingConfig) InvoicingService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &httpInvoicingService{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
	}
}

type issueInvoiceRequest struct {
	SaleID string `json:"sale_id"`
}

type issueInvoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
}

func (s *httpInvoicingService) IssueInvoice(ctx context.Context, saleID uuid.UUID) (string, error) {
	body, err := json.Marshal(issueInvoiceRequest{SaleID: saleID.String()})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoicing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("invoicing service returned status %d", resp.StatusCode)
	}

	var out issueInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid invoicing response: %w", err)
	}
	return out.InvoiceID, nil
}
