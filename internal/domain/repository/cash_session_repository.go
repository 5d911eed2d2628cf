package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/pkg/pagination"
)

// CashSessionRepository defines the interface for cash session data operations
type CashSessionRepository interface {
	// Create inserts a session with status OPEN. Returns
	// apperror.ErrSessionAlreadyOpen when another OPEN session exists; the
	// check is a unique constraint, so concurrent opens cannot race past it.
	Create(ctx context.Context, session *entity.CashSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CashSession, error)
	// GetOpen returns the OPEN session, nil when the drawer is closed
	GetOpen(ctx context.Context) (*entity.CashSession, error)
	// Close applies the session's reconciliation fields with a guarded
	// update (id AND status OPEN). Returns apperror.ErrSessionNotOpen when
	// the session was already closed, so concurrent closes cannot both win.
	Close(ctx context.Context, session *entity.CashSession) error
	// NextOpenedAfter returns the openedAt of the earliest session opened
	// strictly after t, nil when none exists.
	NextOpenedAfter(ctx context.Context, t time.Time) (*time.Time, error)
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, int64, error)
}
