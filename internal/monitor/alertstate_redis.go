package monitor

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// redisAlertState keeps alert severities in a Redis hash per ticket so
// the dedupe state survives monitor restarts. Keys expire after the TTL
// so abandoned tickets do not accumulate forever.
type redisAlertState struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAlertStateStore creates the Redis-backed store. A non-positive
// ttl falls back to seven days.
func NewRedisAlertStateStore(client *redis.Client, ttl time.Duration) AlertStateStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &redisAlertState{client: client, ttl: ttl}
}

func redisAlertKey(scopeID, ticketID string) string {
	return "sla:alerts:" + scopeID + ":" + ticketID
}

func (s *redisAlertState) LastLevel(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind) (domain.AlertLevel, error) {
	val, err := s.client.HGet(ctx, redisAlertKey(scopeID, ticketID), string(kind)).Result()
	if err == redis.Nil {
		return domain.AlertLevelOK, nil
	}
	if err != nil {
		return domain.AlertLevelOK, apperrors.NewRepositoryError(err)
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return domain.AlertLevelOK, nil
	}
	return domain.AlertLevel(parsed), nil
}

func (s *redisAlertState) Record(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel) error {
	key := redisAlertKey(scopeID, ticketID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, string(kind), strconv.Itoa(int(level)))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewRepositoryError(err)
	}
	return nil
}

func (s *redisAlertState) Clear(ctx context.Context, scopeID, ticketID string) error {
	if err := s.client.Del(ctx, redisAlertKey(scopeID, ticketID)).Err(); err != nil {
		return apperrors.NewRepositoryError(err)
	}
	return nil
}
