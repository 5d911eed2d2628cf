package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
)

type pollerFixture struct {
	poller    *PaymentPoller
	gateway   *fakeGateway
	saleRepo  *fakeSaleRepo
	products  *fakeProductRepo
	customers *fakeCustomerRepo
}

func newPollerFixture(cfg config.PollerConfig) *pollerFixture {
	products := newFakeProductRepo()
	saleRepo := newFakeSaleRepo(products)
	customers := newFakeCustomerRepo()
	saleService := NewSaleService(saleRepo, products, customers, &fakeInvoicer{}, testPricing)
	gw := newFakeGateway()
	poller := NewPaymentPoller(gw, saleService, cfg)
	saleService.SetPaymentApprovals(poller)
	return &pollerFixture{poller: poller, gateway: gw, saleRepo: saleRepo, products: products, customers: customers}
}

func fastPollerConfig() config.PollerConfig {
	return config.PollerConfig{
		Interval:    2 * time.Millisecond,
		Timeout:     500 * time.Millisecond,
		MaxFailures: 3,
	}
}

// waitForTerminal polls the intent until it settles or the test deadline hits
func waitForTerminal(t *testing.T, p *PaymentPoller, ref string) *IntentSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := p.Status(ref)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if snap.Status.Terminal() {
			// give the approval path a moment to finish registering the sale
			time.Sleep(10 * time.Millisecond)
			snap, _ = p.Status(ref)
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("intent %s never settled", ref)
	return nil
}

func (f *pollerFixture) beginSale(t *testing.T) (*IntentSnapshot, uuid.UUID) {
	t.Helper()
	product := f.products.seed("Vino", 10, 1500)
	snap, err := f.poller.Begin(context.Background(), &RegisterSaleInput{
		CashierID: uuid.New(),
		Lines: []SaleLineInput{
			{ProductID: &product.ID, Quantity: 1, UnitPrice: 15.00},
		},
	})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return snap, product.ID
}

func TestPollerApprovalRegistersSale(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, productID := f.beginSale(t)

	if snap.Status != enum.IntentStatusPending {
		t.Fatalf("initial status = %v, want pending", snap.Status)
	}
	if snap.Amount != 15.00 {
		t.Errorf("Amount = %.2f, want 15.00", snap.Amount)
	}

	f.gateway.script(snap.ExternalRef, enum.IntentStatusPending, enum.IntentStatusApproved)

	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Status != enum.IntentStatusApproved {
		t.Fatalf("final status = %v, want approved", final.Status)
	}
	if final.Sale == nil {
		t.Fatal("approved intent should carry the registered sale")
	}
	if final.Sale.Sale.PaymentMethod != enum.PaymentMethodQR {
		t.Errorf("PaymentMethod = %v, want QR", final.Sale.Sale.PaymentMethod)
	}
	if f.saleRepo.count() != 1 {
		t.Errorf("sale count = %d, want 1", f.saleRepo.count())
	}
	if got := f.products.stock(productID); got != 9 {
		t.Errorf("stock = %d, want 9", got)
	}
}

func TestPollerChargesDiscountedTotalForTaxIDCustomer(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	taxID := "27-11111111-3"
	f.customers.seed("Cooperativa El Hornero", &taxID, 10)
	product := f.products.seed("Queso", 10, 1000)

	snap, err := f.poller.Begin(context.Background(), &RegisterSaleInput{
		CashierID:     uuid.New(),
		Lines:         []SaleLineInput{{ProductID: &product.ID, Quantity: 1, UnitPrice: 10.00}},
		CustomerTaxID: &taxID,
	})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// The intent must be opened for the discounted total, not the list price
	if snap.Amount != 9.00 {
		t.Errorf("intent amount = %.2f, want 9.00 after 10%% customer discount", snap.Amount)
	}

	f.gateway.script(snap.ExternalRef, enum.IntentStatusApproved)
	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Sale == nil {
		t.Fatal("approved intent should carry the registered sale")
	}
	if final.Sale.Sale.Total != 900 {
		t.Errorf("sale total = %d, want 900", final.Sale.Sale.Total)
	}
	if int64(final.Amount*100) != final.Sale.Sale.Total {
		t.Errorf("charged %.2f but recorded total %d cents", final.Amount, final.Sale.Sale.Total)
	}
}

func TestPollerRejectionRegistersNothing(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, productID := f.beginSale(t)

	f.gateway.script(snap.ExternalRef, enum.IntentStatusRejected)

	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Status != enum.IntentStatusRejected {
		t.Fatalf("final status = %v, want rejected", final.Status)
	}
	if f.saleRepo.count() != 0 {
		t.Error("rejected payment must not register a sale")
	}
	if got := f.products.stock(productID); got != 10 {
		t.Errorf("stock = %d, want 10 (untouched)", got)
	}
}

func TestPollerCancellationWinsOverLateApproval(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, _ := f.beginSale(t)

	if err := f.poller.Cancel(snap.Reference); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	// The gateway approves after the cashier already cancelled
	f.gateway.script(snap.ExternalRef, enum.IntentStatusApproved)
	time.Sleep(30 * time.Millisecond)

	final, err := f.poller.Status(snap.Reference)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if final.Status != enum.IntentStatusCancelled {
		t.Errorf("status = %v, want cancelled to stick", final.Status)
	}
	if f.saleRepo.count() != 0 {
		t.Error("cancelled payment must not register a sale")
	}

	// Cancelling a settled intent is a conflict
	if err := f.poller.Cancel(snap.Reference); err == nil {
		t.Error("second cancel should fail")
	}
}

func TestPollerTransientGatewayErrorsAreRetried(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, _ := f.beginSale(t)

	f.gateway.failTimes(snap.ExternalRef, 2)
	f.gateway.script(snap.ExternalRef, enum.IntentStatusApproved)

	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Status != enum.IntentStatusApproved {
		t.Errorf("status = %v, want approved after transient failures", final.Status)
	}
	if f.saleRepo.count() != 1 {
		t.Errorf("sale count = %d, want 1", f.saleRepo.count())
	}
}

func TestPollerGivesUpAfterConsecutiveFailures(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, _ := f.beginSale(t)

	f.gateway.failTimes(snap.ExternalRef, 100)

	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Status != enum.IntentStatusRejected {
		t.Errorf("status = %v, want rejected after repeated gateway failures", final.Status)
	}
	if final.FailReason == "" {
		t.Error("expected a failure reason")
	}
	if f.saleRepo.count() != 0 {
		t.Error("no sale should be registered")
	}
}

func TestPollerTimesOutPendingIntent(t *testing.T) {
	cfg := fastPollerConfig()
	cfg.Timeout = 30 * time.Millisecond
	f := newPollerFixture(cfg)
	snap, _ := f.beginSale(t)

	final := waitForTerminal(t, f.poller, snap.Reference)
	if final.Status != enum.IntentStatusRejected {
		t.Errorf("status = %v, want rejected on timeout", final.Status)
	}
	if f.saleRepo.count() != 0 {
		t.Error("no sale should be registered")
	}
}

func TestPollerPrunesSettledIntents(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	snap, _ := f.beginSale(t)

	f.gateway.script(snap.ExternalRef, enum.IntentStatusRejected)
	waitForTerminal(t, f.poller, snap.Reference)

	// A settled intent stays queryable inside the retention window
	f.poller.prune(time.Now())
	if _, err := f.poller.Status(snap.Reference); err != nil {
		t.Fatalf("Status() error = %v, want intent kept within retention", err)
	}

	f.poller.prune(time.Now().Add(intentRetention + time.Minute))
	if _, err := f.poller.Status(snap.Reference); err == nil {
		t.Error("settled intent should be dropped after the retention window")
	}
}

func TestPollerStatusUnknownReference(t *testing.T) {
	f := newPollerFixture(fastPollerConfig())
	if _, err := f.poller.Status("PAY-nope"); err == nil {
		t.Error("expected not found for unknown reference")
	}
	if err := f.poller.Cancel("PAY-nope"); err == nil {
		t.Error("expected not found for unknown reference")
	}
}
