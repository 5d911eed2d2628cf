package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matiasvera/almacen-api/internal/domain/entity"
	"github.com/matiasvera/almacen-api/internal/domain/enum"
	domainRepo "github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/pkg/apperror"
	"github.com/matiasvera/almacen-api/pkg/pagination"
	"gorm.io/gorm"
)

type cashSessionRepository struct {
	db *gorm.DB
}

// NewCashSessionRepository creates a new cash session repository
func NewCashSessionRepository(db *gorm.DB) domainRepo.CashSessionRepository {
	return &cashSessionRepository{db: db}
}

// Create inserts the session. The partial unique index on status=OPEN (see
// database.AutoMigrate) rejects a second open session even under concurrent
// inserts; the violation is translated to ErrSessionAlreadyOpen.
func (r *cashSessionRepository) Create(ctx context.Context, session *entity.CashSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "ux_cash_sessions_single_open") {
		return apperror.ErrSessionAlreadyOpen
	}
	return err
}

func (r *cashSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashSession, error) {
	var session entity.CashSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *cashSessionRepository) GetOpen(ctx context.Context) (*entity.CashSession, error) {
	var session entity.CashSession
	err := r.db.WithContext(ctx).
		First(&session, "status = ?", enum.SessionStatusOpen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

// Close applies the reconciliation with a guarded update so a second close
// that raced past the service-level status check still loses here.
func (r *cashSessionRepository) Close(ctx context.Context, session *entity.CashSession) error {
	result := r.db.WithContext(ctx).Model(&entity.CashSession{}).
		Where("id = ? AND status = ?", session.ID, enum.SessionStatusOpen).
		Updates(map[string]interface{}{
			"status":            enum.SessionStatusClosed,
			"expected_closing":  session.ExpectedClosing,
			"actual_closing":    session.ActualClosing,
			"variance":          session.Variance,
			"per_method_totals": session.PerMethodTotals,
			"notes":             session.Notes,
			"closed_at":         session.ClosedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrSessionNotOpen
	}
	return nil
}

func (r *cashSessionRepository) NextOpenedAfter(ctx context.Context, t time.Time) (*time.Time, error) {
	var session entity.CashSession
	err := r.db.WithContext(ctx).
		Where("opened_at > ?", t).
		Order("opened_at ASC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session.OpenedAt, nil
}

func (r *cashSessionRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.CashSession, int64, error) {
	var sessions []entity.CashSession
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.CashSession{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("opened_at DESC").
		Find(&sessions).Error

	return sessions, total, err
}
