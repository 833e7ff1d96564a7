package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// TicketRepository encapsulates ticket persistence. Save applies an
// optimistic version guard: a write against a stale Version fails with
// WRITE_CONFLICT and leaves the stored row unchanged.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Save(ctx context.Context, ticket *domain.Ticket) error
	// ListOpen returns every non-terminal ticket in the scope ordered by
	// opening time ascending.
	ListOpen(ctx context.Context, scopeID string) ([]domain.Ticket, error)
	// ListInactiveSince returns non-terminal tickets whose last activity is
	// at or before the cutoff, ordered by opening time ascending.
	ListInactiveSince(ctx context.Context, scopeID string, cutoff time.Time) ([]domain.Ticket, error)
	// ListClosedForStaff returns closed tickets claimed by the staff member
	// and closed at or after since.
	ListClosedForStaff(ctx context.Context, scopeID, staffID string, since time.Time) ([]domain.Ticket, error)
	// ListStaffWithClosedSince returns the claimants of tickets closed at or
	// after since.
	ListStaffWithClosedSince(ctx context.Context, scopeID string, since time.Time) ([]string, error)
}

const ticketColumns = `id, display_id, scope_id, category_id, creator_id, claimed_by_id,
               status, opened_at, last_staff_response_at, last_user_response_at,
               last_message_at, closed_at, closure_reason, version`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, display_id, scope_id, category_id, creator_id, claimed_by_id,
            status, opened_at, last_staff_response_at, last_user_response_at,
            last_message_at, closed_at, closure_reason, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.DisplayID,
		ticket.ScopeID,
		ticket.CategoryID,
		ticket.CreatorID,
		ticket.ClaimedByID,
		ticket.Status,
		ticket.OpenedAt,
		ticket.LastStaffResponseAt,
		ticket.LastUserResponseAt,
		ticket.LastMessageAt,
		ticket.ClosedAt,
		ticket.ClosureReason,
	).Scan(&ticket.Version)
	if err != nil {
		return apperrors.NewRepositoryError(err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewRepositoryError(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET claimed_by_id=$1, status=$2, last_staff_response_at=$3,
            last_user_response_at=$4, last_message_at=$5, closed_at=$6,
            closure_reason=$7, version=version+1
        WHERE id=$8 AND version=$9
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		ticket.ClaimedByID,
		ticket.Status,
		ticket.LastStaffResponseAt,
		ticket.LastUserResponseAt,
		ticket.LastMessageAt,
		ticket.ClosedAt,
		ticket.ClosureReason,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewWriteConflict("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.NewRepositoryError(err)
	}
	return nil
}

func (r *ticketRepository) ListOpen(ctx context.Context, scopeID string) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE scope_id=$1 AND status <> $2
        ORDER BY opened_at ASC`
	rows, err := r.pool.Query(ctx, query, scopeID, domain.TicketStatusClosed)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListInactiveSince(ctx context.Context, scopeID string, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE scope_id=$1 AND status <> $2
          AND GREATEST(opened_at,
                COALESCE(last_message_at, opened_at),
                COALESCE(last_staff_response_at, opened_at),
                COALESCE(last_user_response_at, opened_at)) <= $3
        ORDER BY opened_at ASC`
	rows, err := r.pool.Query(ctx, query, scopeID, domain.TicketStatusClosed, cutoff)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListClosedForStaff(ctx context.Context, scopeID, staffID string, since time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE scope_id=$1 AND claimed_by_id=$2 AND status=$3 AND closed_at >= $4
        ORDER BY opened_at ASC`
	rows, err := r.pool.Query(ctx, query, scopeID, staffID, domain.TicketStatusClosed, since)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListStaffWithClosedSince(ctx context.Context, scopeID string, since time.Time) ([]string, error) {
	const query = `
        SELECT DISTINCT claimed_by_id
        FROM tickets
        WHERE scope_id=$1 AND status=$2 AND closed_at >= $3 AND claimed_by_id IS NOT NULL
        ORDER BY claimed_by_id`
	rows, err := r.pool.Query(ctx, query, scopeID, domain.TicketStatusClosed, since)
	if err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var staffID string
		if err := rows.Scan(&staffID); err != nil {
			return nil, apperrors.NewRepositoryError(err)
		}
		result = append(result, staffID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.DisplayID,
		&ticket.ScopeID,
		&ticket.CategoryID,
		&ticket.CreatorID,
		&ticket.ClaimedByID,
		&ticket.Status,
		&ticket.OpenedAt,
		&ticket.LastStaffResponseAt,
		&ticket.LastUserResponseAt,
		&ticket.LastMessageAt,
		&ticket.ClosedAt,
		&ticket.ClosureReason,
		&ticket.Version,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, apperrors.NewRepositoryError(err)
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRepositoryError(err)
	}
	return result, nil
}
