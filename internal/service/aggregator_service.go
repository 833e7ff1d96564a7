package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// AggregatorDeps bundles the aggregator's collaborators.
type AggregatorDeps struct {
	Tickets repository.TicketRepository
	SLAs    repository.SLARepository
	Perf    repository.StaffPerformanceRepository
	Window  time.Duration
	Logger  *zap.Logger
	Now     func() time.Time
}

// AggregatorService recomputes per-staff performance records from the
// closed tickets of a rolling window. Refresh calls for the same
// (scope, staff) pair are serialized so the read-compute-write cycle
// never interleaves.
type AggregatorService struct {
	tickets repository.TicketRepository
	slas    repository.SLARepository
	perf    repository.StaffPerformanceRepository
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
	locks   keyedMutex
}

// NewAggregatorService creates the service. A non-positive window falls
// back to thirty days.
func NewAggregatorService(deps AggregatorDeps) *AggregatorService {
	window := deps.Window
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AggregatorService{
		tickets: deps.Tickets,
		slas:    deps.SLAs,
		perf:    deps.Perf,
		window:  window,
		logger:  deps.Logger,
		now:     now,
	}
}

// Refresh recomputes and stores the performance record for one staff
// member in one scope, returning the stored record.
//
// Tickets that never received a staff response are excluded from the
// response average. An empty window leaves previously stored averages
// untouched; a record is created lazily only when none exists yet.
func (s *AggregatorService) Refresh(ctx context.Context, scopeID, staffID string) (*domain.StaffPerformanceRecord, error) {
	unlock := s.locks.lock(scopeID + "/" + staffID)
	defer unlock()

	now := s.now()
	since := now.Add(-s.window)

	closed, err := s.tickets.ListClosedForStaff(ctx, scopeID, staffID, since)
	if err != nil {
		return nil, err
	}

	existing, err := s.perf.Get(ctx, scopeID, staffID)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	var record *domain.StaffPerformanceRecord
	if existing != nil {
		record = existing.Clone()
	} else {
		record = &domain.StaffPerformanceRecord{ScopeID: scopeID, StaffID: staffID}
	}

	if len(closed) == 0 {
		if existing != nil {
			return record, nil
		}
		record.LastUpdated = now
		if err := s.perf.Upsert(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	var (
		respTotal  float64
		respCount  int
		resTotal   float64
		resCount   int
		metBudget  int
		slaTracked int
	)
	defs := map[string]*domain.SLADefinition{}

	for i := range closed {
		t := &closed[i]
		if t.LastStaffResponseAt != nil {
			respTotal += t.LastStaffResponseAt.Sub(t.OpenedAt).Seconds()
			respCount++
		}
		if t.ClosedAt != nil {
			resTotal += t.ClosedAt.Sub(t.OpenedAt).Seconds()
			resCount++
		}

		def, ok := defs[t.CategoryID]
		if !ok {
			def, err = s.slas.GetByCategory(ctx, scopeID, t.CategoryID)
			if err != nil {
				if !apperrors.IsCode(err, apperrors.CodeNotFound) {
					s.logger.Warn("sla lookup failed during aggregation",
						zap.String("scope_id", scopeID),
						zap.String("category_id", t.CategoryID),
						zap.Error(err))
				}
				def = nil
			}
			defs[t.CategoryID] = def
		}
		// Compliance counts every tracked ticket; one that never got a
		// staff response failed its response SLA by definition.
		if def != nil && def.ResponseMinutes > 0 {
			slaTracked++
			budget := time.Duration(def.ResponseMinutes) * time.Minute
			if t.LastStaffResponseAt != nil && t.LastStaffResponseAt.Sub(t.OpenedAt) <= budget {
				metBudget++
			}
		}
	}

	record.TicketsHandled = len(closed)
	if respCount > 0 {
		avg := respTotal / float64(respCount)
		record.AvgResponseSeconds = &avg
	}
	if resCount > 0 {
		avg := resTotal / float64(resCount)
		record.AvgResolutionSeconds = &avg
	}
	if slaTracked > 0 {
		rate := float64(metBudget) / float64(slaTracked)
		record.SLAComplianceRate = &rate
	}
	record.LastUpdated = now

	if err := s.perf.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// keyedMutex serializes work per string key. Entries are retained for
// the process lifetime; the key space is bounded by staff membership.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
