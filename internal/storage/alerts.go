package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// SaveAlert persists a generated alert.
func (s *SQLiteStorage) SaveAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}

	details, err := json.Marshal(alert.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal alert details: %w", err)
	}
	actions, err := json.Marshal(alert.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal alert actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, type, level, title, message, status, details, actions, created_at, read_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, alert.ID, string(alert.Type), string(alert.Level), alert.Title, alert.Message,
		string(alert.Status), string(details), string(actions), alert.CreatedAt,
		alert.ReadAt, alert.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// GetAlert fetches one alert.
func (s *SQLiteStorage) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	alert, err := scanAlert(s.db.QueryRowContext(ctx, `
		SELECT id, type, level, title, message, status, details, actions, created_at, read_at, resolved_at
		FROM alerts WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// GetAlerts lists alerts, newest first, applying the filter. The minimum
// level filter uses the severity order, not string comparison.
func (s *SQLiteStorage) GetAlerts(ctx context.Context, filter service.AlertFilter) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, type, level, title, message, status, details, actions, created_at, read_at, resolved_at
		FROM alerts WHERE 1=1`
	args := []any{}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		if filter.MinLevel != nil && alert.Level.Severity() < filter.MinLevel.Severity() {
			continue
		}
		if filter.CardID != "" && alert.Details.CardID != filter.CardID {
			continue
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// UpdateAlertStatus applies a lifecycle transition. Transitions the state
// machine forbids fail; marking an already read or resolved alert as read
// is a no-op.
func (s *SQLiteStorage) UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus) error {
	alert, err := s.GetAlert(ctx, id)
	if err != nil {
		return err
	}

	if alert.Status == status {
		return nil
	}
	if status == model.AlertStatusRead && alert.Status == model.AlertStatusResolved {
		// Reading a resolved alert changes nothing.
		return nil
	}
	if !alert.Status.CanTransitionTo(status) {
		return fmt.Errorf("alert %s: illegal status transition %s -> %s", id, alert.Status, status)
	}

	now := time.Now()
	switch status {
	case model.AlertStatusRead:
		alert.MarkRead(now)
	case model.AlertStatusResolved:
		alert.Resolve(now)
	case model.AlertStatusUnread:
		return fmt.Errorf("alert %s: cannot return to UNREAD", id)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE alerts SET status = ?, read_at = ?, resolved_at = ? WHERE id = ?
	`, string(alert.Status), alert.ReadAt, alert.ResolvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	return nil
}

func scanAlert(row interface{ Scan(...any) error }) (*model.Alert, error) {
	var alert model.Alert
	var details, actions string
	var readAt, resolvedAt sql.NullTime

	err := row.Scan(&alert.ID, &alert.Type, &alert.Level, &alert.Title, &alert.Message,
		&alert.Status, &details, &actions, &alert.CreatedAt, &readAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(details), &alert.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert details: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &alert.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert actions: %w", err)
	}
	if readAt.Valid {
		alert.ReadAt = &readAt.Time
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}
	return &alert, nil
}
