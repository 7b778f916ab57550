package repo

import (
	"context"

	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
	"fitstudio/internal/sqlinline"
)

// EventSinkPG implements domain.EventSink using PostgreSQL. One row is
// inserted per finished generation operation; the stats endpoint aggregates
// them.
type EventSinkPG struct {
	sql infra.SQLExecutor
}

// NewEventSink constructs the sink.
func NewEventSink(sql infra.SQLExecutor) *EventSinkPG {
	return &EventSinkPG{sql: sql}
}

// Record inserts the event row.
func (s *EventSinkPG) Record(ctx context.Context, ev domain.Event) error {
	_, err := s.sql.Exec(ctx, sqlinline.QInsertGenerationEvent,
		string(ev.Kind),
		ev.Outcome,
		ev.SessionID,
		ev.Model,
		ev.Elapsed.Milliseconds(),
	)
	return err
}

// NopEventSink discards events. Used when no database is configured.
type NopEventSink struct{}

// Record implements domain.EventSink.
func (NopEventSink) Record(context.Context, domain.Event) error { return nil }

var (
	_ domain.EventSink = (*EventSinkPG)(nil)
	_ domain.EventSink = NopEventSink{}
)
