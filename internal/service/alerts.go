package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salaryman/internal/ledger"
)

const defaultAlertListLimit = 20

// AcknowledgeAlert confirms the user has seen an alert.
func (e *Engine) AcknowledgeAlert(ctx context.Context, alertID uuid.UUID, userID string) (*ledger.AlertRecord, error) {
	return e.transitionAlert(ctx, alertID, userID, ledger.AlertAcknowledged, nil)
}

// SnoozeAlert defers an alert until the given time. The alert becomes a
// fresh candidate once re-evaluated; the spam guard still applies.
func (e *Engine) SnoozeAlert(ctx context.Context, alertID uuid.UUID, userID string, until time.Time) (*ledger.AlertRecord, error) {
	if !until.After(e.now()) {
		return nil, &ledger.ValidationError{Field: "snoozed_until", Reason: "must be in the future"}
	}
	return e.transitionAlert(ctx, alertID, userID, ledger.AlertSnoozed, &until)
}

// DismissAlert retires an alert permanently.
func (e *Engine) DismissAlert(ctx context.Context, alertID uuid.UUID, userID string) (*ledger.AlertRecord, error) {
	return e.transitionAlert(ctx, alertID, userID, ledger.AlertDismissed, nil)
}

// ListRecentAlerts returns a user's newest alert records.
func (e *Engine) ListRecentAlerts(ctx context.Context, userID string, limit int) ([]ledger.AlertRecord, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if limit <= 0 {
		limit = defaultAlertListLimit
	}
	records, err := e.alerts.ListRecentAlerts(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	return records, nil
}

func (e *Engine) transitionAlert(ctx context.Context, alertID uuid.UUID, userID string, target ledger.AlertStatus, snoozedUntil *time.Time) (*ledger.AlertRecord, error) {
	if userID == "" {
		return nil, &ledger.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	record, err := e.alerts.GetAlertRecord(ctx, alertID, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("load alert record: %w", err)
	}

	if !record.Status.CanTransitionTo(target) {
		return nil, &ledger.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot move from %s to %s", record.Status, target),
		}
	}

	updated, err := e.alerts.UpdateAlertStatus(ctx, alertID, userID, target, snoozedUntil)
	if err != nil {
		return nil, fmt.Errorf("update alert status: %w", err)
	}

	e.logger.Info().Str("user_id", userID).
		Str("alert_id", alertID.String()).
		Str("status", string(target)).
		Msg("alert transitioned")
	return updated, nil
}
