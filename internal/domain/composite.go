package domain

import "time"

// CompositeRequest carries the inputs for one try-on generation call.
// Built per call from the session's asset store, never retained.
type CompositeRequest struct {
	Garment Asset
	Subject Asset
	Scene   string
}

// Composite is a generated try-on image. A session owns at most one; it is
// discarded the moment a new generation request starts.
type Composite struct {
	ID        string
	Bytes     []byte
	MIME      string
	Model     string
	CreatedAt time.Time
}
