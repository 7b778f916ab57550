package studio

import (
	"context"
	"sync"
	"time"

	"fitstudio/internal/domain"
)

// Session is the unit of isolation for one try-on workflow. Every field is
// guarded by mu; callers outside the package only ever see snapshots.
type Session struct {
	mu sync.Mutex

	id        string
	assets    AssetBin
	state     domain.SessionState
	lastError string

	composite *domain.Composite

	animating       bool
	animation       *domain.AnimationJob
	cancelAnimation context.CancelFunc

	// deleted marks a session torn down while a provider call was still in
	// flight; settling code skips artifact spill for such sessions.
	deleted bool

	createdAt time.Time
	lastSeen  time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, state: domain.StateIdle, createdAt: now, lastSeen: now}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// cancelAnimationLocked stops an in-flight animation and detaches its job so
// the runner goroutine recognizes it was superseded.
func (s *Session) cancelAnimationLocked() {
	if s.cancelAnimation != nil {
		s.cancelAnimation()
		s.cancelAnimation = nil
	}
	s.animating = false
	s.animation = nil
}

// SessionView is a point-in-time snapshot of a session, safe to use after
// the session lock is released.
type SessionView struct {
	ID        string
	State     domain.SessionState
	Animating bool
	Ready     bool
	Scene     string
	Garment   *AssetView
	Subject   *AssetView
	Composite *CompositeView
	Animation *AnimationView
	LastError string
	CreatedAt time.Time
}

// AssetView summarizes an uploaded input without carrying its bytes.
type AssetView struct {
	ID   string
	MIME string
	Size int
}

// CompositeView summarizes the generated still image.
type CompositeView struct {
	ID        string
	MIME      string
	Size      int
	Model     string
	CreatedAt time.Time
}

// AnimationView summarizes the video job attached to the composite.
type AnimationView struct {
	ID        string
	Status    domain.JobStatus
	Notice    string
	MIME      string
	Size      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func assetView(a *domain.Asset) *AssetView {
	if a == nil {
		return nil
	}
	return &AssetView{ID: a.ID, MIME: a.MIME, Size: len(a.Bytes)}
}

func (s *Session) snapshotLocked() SessionView {
	view := SessionView{
		ID:        s.id,
		State:     s.state,
		Animating: s.animating,
		Ready:     s.assets.Ready(),
		Scene:     s.assets.Scene(),
		Garment:   assetView(s.assets.Get(domain.SlotGarment)),
		Subject:   assetView(s.assets.Get(domain.SlotSubject)),
		LastError: s.lastError,
		CreatedAt: s.createdAt,
	}
	if c := s.composite; c != nil {
		view.Composite = &CompositeView{ID: c.ID, MIME: c.MIME, Size: len(c.Bytes), Model: c.Model, CreatedAt: c.CreatedAt}
	}
	if j := s.animation; j != nil {
		view.Animation = &AnimationView{
			ID:        j.ID,
			Status:    j.Status,
			Notice:    j.Notice,
			MIME:      j.MIME,
			Size:      len(j.Video),
			CreatedAt: j.CreatedAt,
			UpdatedAt: j.UpdatedAt,
		}
	}
	return view
}

func (s *Session) snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
