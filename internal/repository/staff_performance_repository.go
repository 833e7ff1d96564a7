package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// StaffPerformanceRepository persists aggregated handling metrics, one
// record per (scope, staff) pair.
type StaffPerformanceRepository interface {
	Get(ctx context.Context, scopeID, staffID string) (*domain.StaffPerformanceRecord, error)
	Upsert(ctx context.Context, record *domain.StaffPerformanceRecord) error
}

const staffPerformanceColumns = `scope_id, staff_id, tickets_handled, avg_response_seconds,
               avg_resolution_seconds, sla_compliance_rate, on_duty, on_duty_since, last_updated`

type staffPerformanceRepository struct {
	pool *pgxpool.Pool
}

// NewStaffPerformanceRepository instantiates the Postgres-backed repository.
func NewStaffPerformanceRepository(pool *pgxpool.Pool) StaffPerformanceRepository {
	return &staffPerformanceRepository{pool: pool}
}

func (r *staffPerformanceRepository) Get(ctx context.Context, scopeID, staffID string) (*domain.StaffPerformanceRecord, error) {
	query := `SELECT ` + staffPerformanceColumns + ` FROM staff_performance WHERE scope_id=$1 AND staff_id=$2`
	var record domain.StaffPerformanceRecord
	err := r.pool.QueryRow(ctx, query, scopeID, staffID).Scan(
		&record.ScopeID,
		&record.StaffID,
		&record.TicketsHandled,
		&record.AvgResponseSeconds,
		&record.AvgResolutionSeconds,
		&record.SLAComplianceRate,
		&record.OnDuty,
		&record.OnDutySince,
		&record.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff performance record", map[string]any{
				"scope_id": scopeID,
				"staff_id": staffID,
			})
		}
		return nil, apperrors.NewRepositoryError(err)
	}
	return &record, nil
}

func (r *staffPerformanceRepository) Upsert(ctx context.Context, record *domain.StaffPerformanceRecord) error {
	query := `
        INSERT INTO staff_performance (` + staffPerformanceColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (scope_id, staff_id) DO UPDATE SET
            tickets_handled=EXCLUDED.tickets_handled,
            avg_response_seconds=EXCLUDED.avg_response_seconds,
            avg_resolution_seconds=EXCLUDED.avg_resolution_seconds,
            sla_compliance_rate=EXCLUDED.sla_compliance_rate,
            on_duty=EXCLUDED.on_duty,
            on_duty_since=EXCLUDED.on_duty_since,
            last_updated=EXCLUDED.last_updated`
	_, err := r.pool.Exec(ctx, query,
		record.ScopeID,
		record.StaffID,
		record.TicketsHandled,
		record.AvgResponseSeconds,
		record.AvgResolutionSeconds,
		record.SLAComplianceRate,
		record.OnDuty,
		record.OnDutySince,
		record.LastUpdated,
	)
	if err != nil {
		return apperrors.NewRepositoryError(err)
	}
	return nil
}
