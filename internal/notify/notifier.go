package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// MaintenanceEvent distinguishes window start and end notices.
type MaintenanceEvent string

const (
	MaintenanceStarted MaintenanceEvent = "STARTED"
	MaintenanceEnded   MaintenanceEvent = "ENDED"
)

// Notifier is the alert dispatch collaborator consumed by the monitor.
// Failures are reported as NOTIFICATION_ERROR and never block a scan.
type Notifier interface {
	SendAlert(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel, details map[string]any) error
	SendMaintenanceNotice(ctx context.Context, scopeID string, window *domain.MaintenanceWindow, event MaintenanceEvent) error
}

// WebhookNotifier posts JSON payloads to a webhook. Scope configs may
// carry their own webhook URL; the configured default is the fallback.
// With no URL at all the notifier degrades to structured logging only.
type WebhookNotifier struct {
	client     *http.Client
	defaultURL string
	scopes     repository.ScopeRepository
	logger     *zap.Logger
}

// NewWebhookNotifier creates the notifier.
func NewWebhookNotifier(cfg config.NotifyConfig, scopes repository.ScopeRepository, logger *zap.Logger) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		client:     &http.Client{Timeout: timeout},
		defaultURL: cfg.WebhookURL,
		scopes:     scopes,
		logger:     logger,
	}
}

// SendAlert dispatches an SLA alert for one (ticket, kind) pair.
func (n *WebhookNotifier) SendAlert(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel, details map[string]any) error {
	n.logger.Info("sla alert",
		zap.String("scope_id", scopeID),
		zap.String("ticket_id", ticketID),
		zap.String("kind", string(kind)),
		zap.String("level", level.String()),
		zap.Any("details", details))

	payload := map[string]any{
		"event":     "sla_alert",
		"scope_id":  scopeID,
		"ticket_id": ticketID,
		"kind":      kind,
		"level":     level.String(),
		"details":   details,
	}
	return n.post(ctx, scopeID, payload)
}

// SendMaintenanceNotice announces a maintenance window starting or ending.
func (n *WebhookNotifier) SendMaintenanceNotice(ctx context.Context, scopeID string, window *domain.MaintenanceWindow, event MaintenanceEvent) error {
	n.logger.Info("maintenance notice",
		zap.String("scope_id", scopeID),
		zap.String("window_id", window.ID),
		zap.String("event", string(event)))

	payload := map[string]any{
		"event":       "maintenance_" + string(event),
		"scope_id":    scopeID,
		"window_id":   window.ID,
		"start_time":  window.StartTime,
		"end_time":    window.EndTime,
		"description": window.Description,
	}
	return n.post(ctx, scopeID, payload)
}

func (n *WebhookNotifier) post(ctx context.Context, scopeID string, payload map[string]any) error {
	url := n.resolveURL(ctx, scopeID)
	if url == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewNotificationError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewNotificationError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.NewNotificationError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewNotificationError(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}

func (n *WebhookNotifier) resolveURL(ctx context.Context, scopeID string) string {
	if n.scopes != nil {
		if scope, err := n.scopes.Get(ctx, scopeID); err == nil && scope.AlertWebhookURL != "" {
			return scope.AlertWebhookURL
		}
	}
	return n.defaultURL
}
