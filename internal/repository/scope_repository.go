package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// ScopeRepository reads per-tenant settings. Scopes are provisioned
// outside this core.
type ScopeRepository interface {
	Get(ctx context.Context, scopeID string) (*domain.ScopeConfig, error)
	List(ctx context.Context) ([]domain.ScopeConfig, error)
}

type scopeRepository struct {
	pool *pgxpool.Pool
}

// NewScopeRepository instantiates the Postgres-backed repository.
func NewScopeRepository(pool *pgxpool.Pool) ScopeRepository {
	return &scopeRepository{pool: pool}
}

func (r *scopeRepository) Get(ctx context.Context, scopeID string) (*domain.ScopeConfig, error) {
	const query = `
        SELECT scope_id, name, auto_close_hours, alert_webhook_url, created_at
        FROM scopes WHERE scope_id=$1`
	var scope domain.ScopeConfig
	err := r.pool.QueryRow(ctx, query, scopeID).Scan(
		&scope.ScopeID,
		&scope.Name,
		&scope.AutoCloseHours,
		&scope.AlertWebhookURL,
		&scope.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("scope", map[string]any{"scope_id": scopeID})
		}
		return nil, apperrors.NewRepositoryError(err)
	}
	return &scope, nil
}

func (r *scopeRepository) List(ctx context.Context) ([]domain.ScopeConfig, error) {
	const query = `
        SELECT scope_id, name, auto_close_hours, alert_webhook_url, created_at
        FROM scopes ORDER BY scope_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()

	var result []domain.ScopeConfig
	for rows.Next() {
		var scope domain.ScopeConfig
		if err := rows.Scan(
			&scope.ScopeID,
			&scope.Name,
			&scope.AutoCloseHours,
			&scope.AlertWebhookURL,
			&scope.CreatedAt,
		); err != nil {
			return nil, apperrors.NewRepositoryError(err)
		}
		result = append(result, scope)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	return result, nil
}
