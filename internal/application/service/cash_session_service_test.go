package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/pkg/apperror"
)

type sessionFixture struct {
	service  *CashSessionService
	sessions *fakeSessionRepo
	sales    *fakeSaleRepo
	now      time.Time
}

func newSessionFixture() *sessionFixture {
	sessions := newFakeSessionRepo()
	sales := newFakeSaleRepo(newFakeProductRepo())
	svc := NewCashSessionService(sessions, sales)
	f := &sessionFixture{
		service:  svc,
		sessions: sessions,
		sales:    sales,
		now:      time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.now }
	return f
}

// addSale drops a completed sale directly into the fake repository
func (f *sessionFixture) addSale(method enum.PaymentMethod, totalCents int64, at time.Time) *entity.Sale {
	sale := &entity.Sale{
		ID:            uuid.New(),
		CashierID:     uuid.New(),
		PaymentMethod: method,
		Total:         totalCents,
		CreatedAt:     at,
	}
	f.sales.sales[sale.ID] = sale
	return sale
}

func TestOpenSessionRejectsSecondOpen(t *testing.T) {
	f := newSessionFixture()
	cashier := uuid.New()

	first, err := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    cashier,
		OpeningFloat: 50.00,
	})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if first.Status != enum.SessionStatusOpen {
		t.Errorf("Status = %v, want open", first.Status)
	}
	if first.OpeningFloat != 5000 {
		t.Errorf("OpeningFloat = %d, want 5000", first.OpeningFloat)
	}

	_, err = f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    cashier,
		OpeningFloat: 20.00,
	})
	if !errors.Is(err, apperror.ErrSessionAlreadyOpen) {
		t.Errorf("second open: error = %v, want ErrSessionAlreadyOpen", err)
	}
}

func TestOpenSessionRejectsNegativeFloat(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: -1,
	})
	if appErr := apperror.GetAppError(err); appErr == nil || appErr.Code != 422 {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestPreviewCloseReconciliation(t *testing.T) {
	f := newSessionFixture()

	session, err := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 50.00,
	})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	f.now = f.now.Add(time.Hour)
	f.addSale(enum.PaymentMethodCash, 300, f.now)
	f.addSale(enum.PaymentMethodCash, 700, f.now.Add(time.Minute))
	f.addSale(enum.PaymentMethodDebit, 1200, f.now.Add(2*time.Minute))
	f.now = f.now.Add(time.Hour)

	preview, err := f.service.PreviewClose(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("PreviewClose() error = %v", err)
	}

	// expected = opening float + cash sales only
	if preview.ExpectedClosing != 60.00 {
		t.Errorf("ExpectedClosing = %.2f, want 60.00", preview.ExpectedClosing)
	}
	if preview.CashTotal != 10.00 {
		t.Errorf("CashTotal = %.2f, want 10.00", preview.CashTotal)
	}
	if got := preview.PerMethodTotals["Debit"]; got != 12.00 {
		t.Errorf("debit total = %.2f, want 12.00", got)
	}
	if !preview.WindowStart.Equal(session.OpenedAt) {
		t.Errorf("WindowStart = %v, want %v", preview.WindowStart, session.OpenedAt)
	}
	if !preview.WindowEnd.Equal(f.now) {
		t.Errorf("WindowEnd = %v, want now for an open tail session", preview.WindowEnd)
	}
}

func TestPreviewCloseExcludesVoidedAndOutOfWindowSales(t *testing.T) {
	f := newSessionFixture()

	// Sale before the session opens must not count
	f.addSale(enum.PaymentMethodCash, 9999, f.now.Add(-time.Hour))

	session, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 10.00,
	})

	f.now = f.now.Add(time.Minute)
	voided := f.addSale(enum.PaymentMethodCash, 500, f.now)
	voided.Status = enum.SaleStatusVoided
	f.addSale(enum.PaymentMethodCash, 250, f.now)

	preview, err := f.service.PreviewClose(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("PreviewClose() error = %v", err)
	}
	if preview.ExpectedClosing != 12.50 {
		t.Errorf("ExpectedClosing = %.2f, want 12.50", preview.ExpectedClosing)
	}
}

func TestCloseSessionComputesVariance(t *testing.T) {
	f := newSessionFixture()

	session, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 50.00,
	})
	f.now = f.now.Add(time.Minute)
	f.addSale(enum.PaymentMethodCash, 1000, f.now)
	f.now = f.now.Add(8 * time.Hour)

	closed, err := f.service.CloseSession(context.Background(), session.ID, &CloseSessionInput{
		ActualClosing: 59.00,
	})
	if err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}

	if closed.Status != enum.SessionStatusClosed {
		t.Errorf("Status = %v, want closed", closed.Status)
	}
	if closed.ExpectedClosing == nil || *closed.ExpectedClosing != 6000 {
		t.Errorf("ExpectedClosing = %v, want 6000", closed.ExpectedClosing)
	}
	if closed.Variance == nil || *closed.Variance != -100 {
		t.Errorf("Variance = %v, want -100 (drawer short one peso)", closed.Variance)
	}
	if closed.ClosedAt == nil || !closed.ClosedAt.Equal(f.now) {
		t.Errorf("ClosedAt = %v, want %v", closed.ClosedAt, f.now)
	}
	if closed.PerMethodTotals["Cash"] != 1000 {
		t.Errorf("per-method cash = %d, want 1000", closed.PerMethodTotals["Cash"])
	}

	// After closing, the drawer can be opened again
	if _, err := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 30.00,
	}); err != nil {
		t.Errorf("reopen after close: error = %v", err)
	}
}

func TestCloseSessionTwiceFails(t *testing.T) {
	f := newSessionFixture()

	session, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 10.00,
	})
	if _, err := f.service.CloseSession(context.Background(), session.ID, &CloseSessionInput{ActualClosing: 10.00}); err != nil {
		t.Fatalf("first close: error = %v", err)
	}
	_, err := f.service.CloseSession(context.Background(), session.ID, &CloseSessionInput{ActualClosing: 10.00})
	if !errors.Is(err, apperror.ErrSessionNotOpen) {
		t.Errorf("second close: error = %v, want ErrSessionNotOpen", err)
	}
}

func TestCloseSessionConcurrentClosesOnlyOneWins(t *testing.T) {
	f := newSessionFixture()

	session, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 10.00,
	})

	// Both closes read the session as OPEN; the guarded update must let
	// exactly one apply.
	amounts := []float64{9.00, 11.00}
	errs := make([]error, len(amounts))
	var wg sync.WaitGroup
	for i := range amounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CloseSession(context.Background(), session.ID,
				&CloseSessionInput{ActualClosing: amounts[i]})
		}(i)
	}
	wg.Wait()

	var winner *float64
	rejected := 0
	for i := range errs {
		switch {
		case errs[i] == nil:
			winner = &amounts[i]
		case errors.Is(errs[i], apperror.ErrSessionNotOpen):
			rejected++
		default:
			t.Fatalf("close %d: unexpected error %v", i, errs[i])
		}
	}
	if winner == nil || rejected != 1 {
		t.Fatalf("want exactly one close to win and one to be rejected, got errs %v", errs)
	}

	stored, _ := f.sessions.GetByID(context.Background(), session.ID)
	if stored.ActualClosing == nil || *stored.ActualClosing != int64(*winner*100) {
		t.Errorf("stored actual = %v, want the winning close's %d", stored.ActualClosing, int64(*winner*100))
	}
}

func TestSessionWindowEndsAtNextOpen(t *testing.T) {
	f := newSessionFixture()

	first, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 10.00,
	})
	f.now = f.now.Add(time.Hour)
	f.service.CloseSession(context.Background(), first.ID, &CloseSessionInput{ActualClosing: 10.00})

	// A cash sale lands between the close and the next open
	f.now = f.now.Add(10 * time.Minute)
	f.addSale(enum.PaymentMethodCash, 400, f.now)

	f.now = f.now.Add(10 * time.Minute)
	second, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 10.00,
	})

	// The gap sale belongs to the first session, whose window now extends to
	// the second session's opening
	preview, err := f.service.PreviewClose(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("PreviewClose() error = %v", err)
	}
	if preview.CashTotal != 4.00 {
		t.Errorf("first session cash total = %.2f, want 4.00", preview.CashTotal)
	}
	if !preview.WindowEnd.Equal(second.OpenedAt) {
		t.Errorf("WindowEnd = %v, want next session's opening %v", preview.WindowEnd, second.OpenedAt)
	}

	// And the second session must not double-count it
	secondPreview, err := f.service.PreviewClose(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("PreviewClose() error = %v", err)
	}
	if secondPreview.CashTotal != 0 {
		t.Errorf("second session cash total = %.2f, want 0", secondPreview.CashTotal)
	}
}

func TestGetOpenSession(t *testing.T) {
	f := newSessionFixture()

	// A closed drawer is a normal answer, not an error
	none, err := f.service.GetOpenSession(context.Background())
	if err != nil {
		t.Fatalf("GetOpenSession() error = %v", err)
	}
	if none != nil {
		t.Errorf("got %v, want nil when no session is open", none)
	}

	opened, _ := f.service.OpenSession(context.Background(), &OpenSessionInput{
		CashierID:    uuid.New(),
		OpeningFloat: 25.00,
	})
	got, err := f.service.GetOpenSession(context.Background())
	if err != nil {
		t.Fatalf("GetOpenSession() error = %v", err)
	}
	if got.ID != opened.ID {
		t.Errorf("got session %v, want %v", got.ID, opened.ID)
	}
}
