package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/internal/infrastructure/gateway"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// Settled intents stay queryable for this long before the registry drops them
const intentRetention = time.Hour

// pendingIntent tracks one in-flight QR payment
type pendingIntent struct {
	reference   string
	externalRef string
	amountCents int64
	status      enum.IntentStatus
	failReason  string
	sale        *RegisterSaleInput
	result      *SaleResult
	cancel      context.CancelFunc
	settledAt   time.Time
}

// PaymentPoller starts QR payment intents at the gateway and polls them in
// the background until they reach a terminal status. Each confirmed intent
// registers its sale exactly once; cancellation wins over an approval that
// arrives after the cashier cancels.
type PaymentPoller struct {
	gateway     gateway.PaymentGateway
	saleService *SaleService
	cfg         config.PollerConfig

	mu      sync.Mutex
	intents map[string]*pendingIntent
}

// NewPaymentPoller creates a new payment poller
func NewPaymentPoller(gw gateway.PaymentGateway, saleService *SaleService, cfg config.PollerConfig) *PaymentPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	p := &PaymentPoller{
		gateway:     gw,
		saleService: saleService,
		cfg:         cfg,
		intents:     make(map[string]*pendingIntent),
	}
	go p.cleanupLoop()
	return p
}

func (p *PaymentPoller) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		p.prune(time.Now())
	}
}

// prune drops settled intents older than the retention window
func (p *PaymentPoller) prune(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ref, intent := range p.intents {
		if intent.status.Terminal() && now.Sub(intent.settledAt) > intentRetention {
			delete(p.intents, ref)
		}
	}
}

// IntentSnapshot is the externally visible state of an intent
type IntentSnapshot struct {
	Reference   string            `json:"reference"`
	ExternalRef string            `json:"external_ref"`
	Amount      float64           `json:"amount"`
	Status      enum.IntentStatus `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Sale        *SaleResult       `json:"sale,omitempty"`
}

// Begin prices the proposed sale, opens an intent at the gateway and starts
// polling it. The returned reference identifies the intent for Status and
// Cancel; the sale is registered only when the gateway approves.
func (p *PaymentPoller) Begin(ctx context.Context, saleInput *RegisterSaleInput) (*IntentSnapshot, error) {
	saleInput.PaymentMethod = enum.PaymentMethodQR

	quote, err := p.saleService.QuoteRegisterInput(ctx, saleInput)
	if err != nil {
		return nil, err
	}

	reference := utils.GeneratePaymentReference()
	externalRef, err := p.gateway.CreateIntent(ctx, quote.Total, reference)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	intent := &pendingIntent{
		reference:   reference,
		externalRef: externalRef,
		amountCents: quote.Total,
		status:      enum.IntentStatusPending,
		sale:        saleInput,
		cancel:      cancel,
	}

	p.mu.Lock()
	p.intents[reference] = intent
	p.mu.Unlock()

	go p.poll(pollCtx, reference)

	return p.snapshot(intent), nil
}

// poll drives one intent to a terminal status
func (p *PaymentPoller) poll(ctx context.Context, reference string) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	deadline := time.NewTimer(p.cfg.Timeout)
	defer deadline.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			p.fail(reference, enum.IntentStatusRejected, "payment not confirmed in time")
			return
		case <-ticker.C:
		}

		status, err := p.gateway.GetStatus(ctx, p.externalRef(reference))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			log.Printf("payment poller: status check failed for %s (%d/%d): %v",
				reference, failures, p.cfg.MaxFailures, err)
			if failures >= p.cfg.MaxFailures {
				p.fail(reference, enum.IntentStatusRejected, apperror.ErrGatewayUnavailable.Message)
				return
			}
			continue
		}
		failures = 0

		switch status {
		case enum.IntentStatusApproved:
			p.approve(ctx, reference)
			return
		case enum.IntentStatusRejected:
			p.fail(reference, enum.IntentStatusRejected, "payment rejected by the gateway")
			return
		case enum.IntentStatusCancelled:
			p.fail(reference, enum.IntentStatusCancelled, "payment cancelled at the gateway")
			return
		}
	}
}

func (p *PaymentPoller) externalRef(reference string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if intent, ok := p.intents[reference]; ok {
		return intent.externalRef
	}
	return ""
}

// approve marks the intent approved and registers its sale. The cancellation
// check and the status flip happen under the same lock, so a cancel that won
// the race is never overridden by a late approval.
func (p *PaymentPoller) approve(ctx context.Context, reference string) {
	p.mu.Lock()
	intent, ok := p.intents[reference]
	if !ok || intent.status.Terminal() {
		p.mu.Unlock()
		return
	}
	intent.status = enum.IntentStatusApproved
	intent.settledAt = time.Now()
	saleInput := intent.sale
	p.mu.Unlock()

	saleInput.PaymentRef = &reference
	result, err := p.saleService.RegisterSale(ctx, saleInput)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		log.Printf("payment poller: sale registration failed for approved payment %s: %v", reference, err)
		intent.failReason = err.Error()
		return
	}
	intent.result = result
}

func (p *PaymentPoller) fail(reference string, status enum.IntentStatus, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[reference]
	if !ok || intent.status.Terminal() {
		return
	}
	intent.status = status
	intent.failReason = reason
	intent.settledAt = time.Now()
}

// Cancel stops polling an intent and marks it cancelled. Cancelling an
// intent that already reached a terminal status is a conflict.
func (p *PaymentPoller) Cancel(reference string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[reference]
	if !ok {
		return apperror.NewNotFoundError("Payment intent")
	}
	if intent.status.Terminal() {
		return apperror.NewAppError(409, "Payment intent already settled")
	}

	intent.status = enum.IntentStatusCancelled
	intent.failReason = "cancelled by cashier"
	intent.settledAt = time.Now()
	intent.cancel()
	return nil
}

// Status returns a snapshot of an intent
func (p *PaymentPoller) Status(reference string) (*IntentSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[reference]
	if !ok {
		return nil, apperror.NewNotFoundError("Payment intent")
	}
	return p.snapshot(intent), nil
}

// Approved reports whether a reference belongs to an approved intent.
// Satisfies the approvals check used when registering QR sales.
func (p *PaymentPoller) Approved(ref string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[ref]
	return ok && intent.status == enum.IntentStatusApproved
}

func (p *PaymentPoller) snapshot(intent *pendingIntent) *IntentSnapshot {
	return &IntentSnapshot{
		Reference:   intent.reference,
		ExternalRef: intent.externalRef,
		Amount:      float64(intent.amountCents) / 100,
		Status:      intent.status,
		FailReason:  intent.failReason,
		Sale:        intent.result,
	}
}
