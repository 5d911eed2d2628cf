package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	"github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// Clock abstracts time.Now for deterministic tests
type Clock func() time.Time

// CashSessionService handles drawer open/close reconciliation
type CashSessionService struct {
	sessionRepo repository.CashSessionRepository
	saleRepo    repository.SaleRepository
	now         Clock
}

// NewCashSessionService creates a new cash session service
func NewCashSessionService(sessionRepo repository.CashSessionRepository, saleRepo repository.SaleRepository) *CashSessionService {
	return &CashSessionService{
		sessionRepo: sessionRepo,
		saleRepo:    saleRepo,
		now:         time.Now,
	}
}

// OpenSessionInput represents the open session input
type OpenSessionInput struct {
	CashierID    uuid.UUID
	OpeningFloat float64
	Notes        *string
}

// ClosePreview is the reconciliation snapshot shown before closing
type ClosePreview struct {
	SessionID       uuid.UUID          `json:"session_id"`
	OpeningFloat    float64            `json:"opening_float"`
	PerMethodTotals map[string]float64 `json:"per_method_totals"`
	CashTotal       float64            `json:"cash_total"`
	ExpectedClosing float64            `json:"expected_closing"`
	WindowStart     time.Time          `json:"window_start"`
	WindowEnd       time.Time          `json:"window_end"`
}

// OpenSession opens a new cash session. The underlying unique constraint
// rejects a second OPEN session regardless of concurrent callers.
func (s *CashSessionService) OpenSession(ctx context.Context, input *OpenSessionInput) (*entity.CashSession, error) {
	if input.OpeningFloat < 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "opening_float", Message: "opening float cannot be negative"},
		})
	}

	session := &entity.CashSession{
		CashierID:    input.CashierID,
		Status:       enum.SessionStatusOpen,
		OpeningFloat: int64(input.OpeningFloat * 100),
		Notes:        input.Notes,
		OpenedAt:     s.now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// sessionWindow resolves the time range a session accounts for. The end is
// the next session's opening when one exists, otherwise the session's close
// time, otherwise now.
func (s *CashSessionService) sessionWindow(ctx context.Context, session *entity.CashSession) (time.Time, time.Time, error) {
	start := session.OpenedAt

	next, err := s.sessionRepo.NextOpenedAfter(ctx, session.OpenedAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if next != nil {
		return start, *next, nil
	}
	if session.ClosedAt != nil {
		return start, *session.ClosedAt, nil
	}
	return start, s.now(), nil
}

// reconcile sums completed sales in the session window, grouped by payment
// method, and derives the expected cash at close.
func (s *CashSessionService) reconcile(ctx context.Context, session *entity.CashSession) (entity.MethodTotals, int64, time.Time, time.Time, error) {
	start, end, err := s.sessionWindow(ctx, session)
	if err != nil {
		return nil, 0, time.Time{}, time.Time{}, err
	}

	byMethod, err := s.saleRepo.TotalsByMethod(ctx, start, end)
	if err != nil {
		return nil, 0, time.Time{}, time.Time{}, err
	}

	totals := make(entity.MethodTotals, len(byMethod))
	for method, amount := range byMethod {
		totals[method.String()] = amount
	}

	expected := session.OpeningFloat + byMethod[enum.PaymentMethodCash]
	return totals, expected, start, end, nil
}

// PreviewClose computes the reconciliation for a session without closing it
func (s *CashSessionService) PreviewClose(ctx context.Context, id uuid.UUID) (*ClosePreview, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	totals, expected, start, end, err := s.reconcile(ctx, session)
	if err != nil {
		return nil, err
	}

	perMethod := make(map[string]float64, len(totals))
	for method, amount := range totals {
		perMethod[method] = float64(amount) / 100
	}

	return &ClosePreview{
		SessionID:       session.ID,
		OpeningFloat:    float64(session.OpeningFloat) / 100,
		PerMethodTotals: perMethod,
		CashTotal:       float64(totals[enum.PaymentMethodCash.String()]) / 100,
		ExpectedClosing: float64(expected) / 100,
		WindowStart:     start,
		WindowEnd:       end,
	}, nil
}

// CloseSessionInput represents the close session input
type CloseSessionInput struct {
	ActualClosing float64
	Notes         *string
}

// CloseSession reconciles and closes a session. The expected amount is
// recomputed at close time, never trusted from an earlier preview.
func (s *CashSessionService) CloseSession(ctx context.Context, id uuid.UUID, input *CloseSessionInput) (*entity.CashSession, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != enum.SessionStatusOpen {
		return nil, apperror.ErrSessionNotOpen
	}
	if input.ActualClosing < 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "actual_closing", Message: "counted amount cannot be negative"},
		})
	}

	totals, expected, _, _, err := s.reconcile(ctx, session)
	if err != nil {
		return nil, err
	}

	actual := int64(input.ActualClosing * 100)
	variance := actual - expected
	closedAt := s.now()

	session.Status = enum.SessionStatusClosed
	session.ExpectedClosing = &expected
	session.ActualClosing = &actual
	session.Variance = &variance
	session.PerMethodTotals = totals
	session.ClosedAt = &closedAt
	if input.Notes != nil {
		session.Notes = input.Notes
	}

	// The repository re-checks the status inside the update, so two closes
	// that both read OPEN cannot both apply.
	if err := s.sessionRepo.Close(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (s *CashSessionService) GetSession(ctx context.Context, id uuid.UUID) (*entity.CashSession, error) {
	return s.getSession(ctx, id)
}

func (s *CashSessionService) getSession(ctx context.Context, id uuid.UUID) (*entity.CashSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Cash session")
	}
	return session, nil
}

// GetOpenSession returns the currently open session, nil when the drawer is
// closed. A closed drawer is a normal state, not an error.
func (s *CashSessionService) GetOpenSession(ctx context.Context) (*entity.CashSession, error) {
	return s.sessionRepo.GetOpen(ctx)
}

// ListSessions lists session history, newest first
func (s *CashSessionService) ListSessions(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.CashSession], error) {
	params.Validate()
	sessions, total, err := s.sessionRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(sessions, pag), nil
}
