package domain

import (
	"context"
	"time"
)

// EventKind enumerates the operations the service reports on.
type EventKind string

const (
	EventComposite EventKind = "composite"
	EventAnimation EventKind = "animation"
)

// Event records the outcome of one finished generation operation.
type Event struct {
	Kind      EventKind
	Outcome   string
	SessionID string
	Model     string
	Elapsed   time.Duration
}

// OutcomeSucceeded marks a successful operation; failures report the
// classified error kind instead.
const OutcomeSucceeded = "succeeded"

// EventSink receives operation outcomes for reporting. Recording is
// best-effort; callers log failures and move on.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}
