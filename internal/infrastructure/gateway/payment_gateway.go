package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/pkg/apperror"
)

// PaymentGateway is the boundary to the external QR/card payment provider
type PaymentGateway interface {
	// CreateIntent registers a payment of amountCents with the provider and
	// returns the provider's external reference.
	CreateIntent(ctx context.Context, amountCents int64, reference string) (string, error)
	// GetStatus looks up the current status of an intent
	GetStatus(ctx context.Context, externalRef string) (enum.IntentStatus, error)
}

type httpPaymentGateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPPaymentGateway creates a payment gateway client
func NewHTTPPaymentGateway(cfg *config.GatewayConfig) PaymentGateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &httpPaymentGateway{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type createIntentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type createIntentResponse struct {
	ExternalReference string `json:"external_reference"`
}

type intentStatusResponse struct {
	Status string `json:"status"`
}

func (g *httpPaymentGateway) CreateIntent(ctx context.Context, amountCents int64, reference string) (string, error) {
	body, err := json.Marshal(createIntentRequest{
		AmountCents: amountCents,
		Reference:   reference,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/intents", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid gateway response: %w", err)
	}
	return out.ExternalReference, nil
}

func (g *httpPaymentGateway) GetStatus(ctx context.Context, externalRef string) (enum.IntentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/intents/"+externalRef, nil)
	if err != nil {
		return "", err
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperror.ErrGatewayUnavailable
	}

	var out intentStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid gateway response: %w", err)
	}

	switch enum.IntentStatus(out.Status) {
	case enum.IntentStatusPending, enum.IntentStatusApproved, enum.IntentStatusRejected, enum.IntentStatusCancelled:
		return enum.IntentStatus(out.Status), nil
	}
	return "", fmt.Errorf("unknown intent status %q", out.Status)
}
