package domain

// SessionState is the top-level orchestration status of a session. The
// animating flag is tracked separately: animation is a sub-operation layered
// on a succeeded composite, and its failure never leaves the succeeded state.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateGenerating SessionState = "generating"
	StateSucceeded  SessionState = "succeeded"
	StateFailed     SessionState = "failed"
)
