// Package postgres - WebhookEventRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paybridge/ledgercore/internal/application/ports"
	"github.com/paybridge/ledgercore/internal/domain/entities"
	domainErrors "github.com/paybridge/ledgercore/internal/domain/errors"
)

// Compile-time check
var _ ports.WebhookEventRepository = (*WebhookEventRepository)(nil)

// WebhookEventRepository implements ports.WebhookEventRepository.
type WebhookEventRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookEventRepository creates a new WebhookEventRepository.
func NewWebhookEventRepository(pool *pgxpool.Pool) *WebhookEventRepository {
	return &WebhookEventRepository{pool: pool}
}

func (r *WebhookEventRepository) getQuerier(ctx context.Context) querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts a new webhook event. Relies on a unique index over
// event_id to make the insert itself the authoritative dedup guard -
// the Ingestor's FindByEventID check is a fast-path, not the only one.
func (r *WebhookEventRepository) Create(ctx context.Context, event *entities.WebhookEvent) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO webhook_events (
			id, event_id, event_type, payload, status, failure_reason,
			retry_count, created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		event.ID(),
		event.EventID(),
		event.EventType(),
		event.Payload(),
		string(event.Status()),
		event.FailureReason(),
		event.RetryCount(),
		event.CreatedAt(),
		event.ProcessedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "webhook_events_event_id_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"WEBHOOK_EVENT_DUPLICATE",
				"webhook event already recorded",
				map[string]interface{}{"event_id": event.EventID()},
			)
		}
		return fmt.Errorf("failed to create webhook event: %w", err)
	}

	return nil
}

// Update persists changes to an existing webhook event.
func (r *WebhookEventRepository) Update(ctx context.Context, event *entities.WebhookEvent) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE webhook_events SET
			status = $2, failure_reason = $3, retry_count = $4, processed_at = $5
		WHERE id = $1
	`

	_, err := q.Exec(ctx, query,
		event.ID(),
		string(event.Status()),
		event.FailureReason(),
		event.RetryCount(),
		event.ProcessedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}

	return nil
}

const webhookEventColumns = `id, event_id, event_type, payload, status, failure_reason, retry_count, created_at, processed_at`

// FindByID loads a webhook event by its internal id.
func (r *WebhookEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.WebhookEvent, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + webhookEventColumns + " FROM webhook_events WHERE id = $1"
	return scanWebhookEvent(q.QueryRow(ctx, query, id))
}

// FindByEventID finds a webhook event by the gateway's event id, the
// dedup key. Returns nil, nil if not found.
func (r *WebhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*entities.WebhookEvent, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + webhookEventColumns + " FROM webhook_events WHERE event_id = $1"

	event, err := scanWebhookEvent(q.QueryRow(ctx, query, eventID))
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// FindRetryable returns PENDING events, oldest first, for the periodic
// retry scan to re-enqueue. Events younger than a minute are skipped -
// their original enqueue is most likely still in flight.
func (r *WebhookEventRepository) FindRetryable(ctx context.Context, limit int) ([]*entities.WebhookEvent, error) {
	q := r.getQuerier(ctx)
	query := "SELECT " + webhookEventColumns + `
		FROM webhook_events
		WHERE status = $1 AND created_at < now() - INTERVAL '1 minute'
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, string(entities.WebhookEventStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find retryable webhook events: %w", err)
	}
	defer rows.Close()

	var events []*entities.WebhookEvent
	for rows.Next() {
		event, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook event rows: %w", err)
	}

	return events, nil
}

// PurgeProcessedBefore deletes PROCESSED events older than olderThan.
// FAILED rows are never touched, so a permanently failed delivery
// stays visible for investigation.
func (r *WebhookEventRepository) PurgeProcessedBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	q := r.getQuerier(ctx)
	query := `DELETE FROM webhook_events WHERE status = $1 AND created_at < $2`

	tag, err := q.Exec(ctx, query, string(entities.WebhookEventStatusProcessed), olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge processed webhook events: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanWebhookEvent(row interface {
	Scan(dest ...any) error
}) (*entities.WebhookEvent, error) {
	var (
		id                uuid.UUID
		eventID           string
		eventType         string
		payload           []byte
		statusStr         string
		failureReason     string
		retryCount        int
		createdAt         time.Time
		processedAt       *time.Time
	)

	err := row.Scan(&id, &eventID, &eventType, &payload, &statusStr, &failureReason, &retryCount, &createdAt, &processedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan webhook event: %w", err)
	}

	return entities.ReconstructWebhookEvent(
		id, eventID, eventType, payload,
		entities.WebhookEventStatus(statusStr),
		failureReason, retryCount, createdAt, processedAt,
	), nil
}
