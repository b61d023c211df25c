package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fundlift/fundlift/internal/funding/domain/event"
)

// appendEvent writes one ledger event inside an open mutation transaction.
// Sequence is assigned by the ledger_events rowid.
func appendEvent(ctx context.Context, tx *sql.Tx, evt event.Event, recordedAt time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO ledger_events (event_type, campaign_id, payload, recorded_at, dispatched)
		 VALUES (?, ?, ?, ?, 0)`,
		string(evt.Type),
		evt.CampaignID,
		string(evt.Payload),
		toMillis(recordedAt),
	)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

// ListUndispatchedEvents returns pending outbox events in global append order.
func (s *Store) ListUndispatchedEvents(ctx context.Context, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT sequence, event_type, campaign_id, payload, recorded_at, dispatched
		   FROM ledger_events
		  WHERE dispatched = 0
		  ORDER BY sequence ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list undispatched events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var evt event.Event
		var eventType string
		var payload string
		var recordedAt int64
		var dispatched int
		if err := rows.Scan(&evt.Sequence, &eventType, &evt.CampaignID, &payload, &recordedAt, &dispatched); err != nil {
			return nil, fmt.Errorf("list undispatched events: %w", err)
		}
		evt.Type = event.Type(eventType)
		evt.Payload = []byte(payload)
		evt.RecordedAt = fromMillis(recordedAt)
		evt.Dispatched = dispatched != 0
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list undispatched events: %w", err)
	}
	return events, nil
}

// MarkEventsDispatched flags delivered events so the relay never replays them.
func (s *Store) MarkEventsDispatched(ctx context.Context, sequences []uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(sequences) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(sequences))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(sequences))
	for _, seq := range sequences {
		args = append(args, seq)
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE ledger_events SET dispatched = 1 WHERE sequence IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("mark events dispatched: %w", err)
	}
	return nil
}
