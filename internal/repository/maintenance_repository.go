package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// MaintenanceRepository persists maintenance windows.
type MaintenanceRepository interface {
	Create(ctx context.Context, window *domain.MaintenanceWindow) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error)
	Save(ctx context.Context, window *domain.MaintenanceWindow) error
	ListByScope(ctx context.Context, scopeID string) ([]domain.MaintenanceWindow, error)
	// ListUnfinished returns SCHEDULED and ACTIVE windows across all scopes
	// ordered by start time ascending.
	ListUnfinished(ctx context.Context) ([]domain.MaintenanceWindow, error)
}

const windowColumns = `id, scope_id, start_time, end_time, description, created_by, status, created_at`

type maintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository instantiates the Postgres-backed repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) MaintenanceRepository {
	return &maintenanceRepository{pool: pool}
}

func (r *maintenanceRepository) Create(ctx context.Context, window *domain.MaintenanceWindow) error {
	const query = `
        INSERT INTO maintenance_windows (id, scope_id, start_time, end_time, description, created_by, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		window.ID,
		window.ScopeID,
		window.StartTime,
		window.EndTime,
		window.Description,
		window.CreatedBy,
		window.Status,
	).Scan(&window.CreatedAt)
	if err != nil {
		return apperrors.NewRepositoryError(err)
	}
	return nil
}

func (r *maintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error) {
	const query = `SELECT ` + windowColumns + ` FROM maintenance_windows WHERE id=$1`
	var window domain.MaintenanceWindow
	if err := scanWindow(r.pool.QueryRow(ctx, query, id), &window); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("maintenance window", map[string]any{"window_id": id})
		}
		return nil, apperrors.NewRepositoryError(err)
	}
	return &window, nil
}

func (r *maintenanceRepository) Save(ctx context.Context, window *domain.MaintenanceWindow) error {
	const query = `
        UPDATE maintenance_windows
        SET start_time=$1, end_time=$2, description=$3, status=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		window.StartTime,
		window.EndTime,
		window.Description,
		window.Status,
		window.ID,
	)
	if err != nil {
		return apperrors.NewRepositoryError(err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("maintenance window", map[string]any{"window_id": window.ID})
	}
	return nil
}

func (r *maintenanceRepository) ListByScope(ctx context.Context, scopeID string) ([]domain.MaintenanceWindow, error) {
	const query = `
        SELECT ` + windowColumns + `
        FROM maintenance_windows
        WHERE scope_id=$1
        ORDER BY start_time ASC`
	rows, err := r.pool.Query(ctx, query, scopeID)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

func (r *maintenanceRepository) ListUnfinished(ctx context.Context) ([]domain.MaintenanceWindow, error) {
	const query = `
        SELECT ` + windowColumns + `
        FROM maintenance_windows
        WHERE status IN ($1, $2)
        ORDER BY start_time ASC`
	rows, err := r.pool.Query(ctx, query, domain.WindowStatusScheduled, domain.WindowStatusActive)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

func scanWindow(row rowScanner, window *domain.MaintenanceWindow) error {
	return row.Scan(
		&window.ID,
		&window.ScopeID,
		&window.StartTime,
		&window.EndTime,
		&window.Description,
		&window.CreatedBy,
		&window.Status,
		&window.CreatedAt,
	)
}

func scanWindows(rows pgx.Rows) ([]domain.MaintenanceWindow, error) {
	var result []domain.MaintenanceWindow
	for rows.Next() {
		var window domain.MaintenanceWindow
		if err := scanWindow(rows, &window); err != nil {
			return nil, apperrors.NewRepositoryError(err)
		}
		result = append(result, window)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	return result, nil
}
