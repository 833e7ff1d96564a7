package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// SLARepository resolves SLA definitions. Definitions are configured by
// administrators outside this core and are read-only here.
type SLARepository interface {
	GetByCategory(ctx context.Context, scopeID, categoryID string) (*domain.SLADefinition, error)
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository instantiates the Postgres-backed repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

func (r *slaRepository) GetByCategory(ctx context.Context, scopeID, categoryID string) (*domain.SLADefinition, error) {
	const query = `
        SELECT id, scope_id, category_id, name, response_minutes, resolution_minutes
        FROM sla_definitions WHERE scope_id=$1 AND category_id=$2`
	var def domain.SLADefinition
	err := r.pool.QueryRow(ctx, query, scopeID, categoryID).Scan(
		&def.ID,
		&def.ScopeID,
		&def.CategoryID,
		&def.Name,
		&def.ResponseMinutes,
		&def.ResolutionMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla definition", map[string]any{
				"scope_id":    scopeID,
				"category_id": categoryID,
			})
		}
		return nil, apperrors.NewRepositoryError(err)
	}
	return &def, nil
}
