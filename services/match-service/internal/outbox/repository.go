package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/meetmatch/libs/db"
	otelx "github.com/md-rashed-zaman/meetmatch/libs/otel"
)

// Repository stores slot confirmations in outbox_events inside the caller's
// transaction; the Publisher relays committed rows to Kafka and marks them.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert queues evt and returns the event id the consumer side dedupes on.
// The active trace is stored with the row so the publish span links back to
// the confirm request.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) (string, error) {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	var eventID string
	err := tx.QueryRow(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING event_id::text
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate).Scan(&eventID)
	if err != nil {
		return "", fmt.Errorf("insert %s for %s: %w", evt.EventType, evt.AggregateID, err)
	}
	return eventID, nil
}

// Record is a pending outbox row as the Publisher sees it.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

// FetchUnpublished locks up to limit pending rows so concurrent publishers
// never send the same row twice.
func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rcd Record
		if err := rows.Scan(&rcd.ID, &rcd.EventID, &rcd.AggregateType, &rcd.AggregateID, &rcd.EventType, &rcd.Payload, &rcd.Traceparent, &rcd.Tracestate, &rcd.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rcd)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// MarkPublished stamps rows after Kafka acknowledged them. A crash between the
// write and this call republishes them; consumers dedupe on event_id.
func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}
