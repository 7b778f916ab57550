// Package studio orchestrates virtual try-on sessions: two input images and
// a scene line go in, a composite still and optionally a short animation come
// out. All state lives in memory for the lifetime of a session.
package studio

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
	"fitstudio/internal/providers/image"
	"fitstudio/internal/providers/video"
	"fitstudio/internal/storage"
)

const (
	defaultSessionTTL     = 2 * time.Hour
	defaultComposeTimeout = 2 * time.Minute
)

// CredentialGate is the slice of the auth gate the studio needs: an
// availability check before starting work and invalidation after an
// upstream auth failure.
type CredentialGate interface {
	Check(ctx context.Context) bool
	Invalidate()
}

// Options carries the studio's dependencies.
type Options struct {
	Gate           CredentialGate
	Composer       image.Composer
	Animator       video.Animator
	Files          *storage.FileStore
	Events         domain.EventSink
	Logger         *infra.Logger
	SessionTTL     time.Duration
	ComposeTimeout time.Duration
}

// Studio coordinates sessions and drives the generation providers. Provider
// calls run outside session locks so status reads never block on upstream
// latency.
type Studio struct {
	sessions *Manager
	gate     CredentialGate
	composer image.Composer
	animator video.Animator
	files    *storage.FileStore
	events   domain.EventSink
	logger   *infra.Logger

	composeTimeout time.Duration
}

func New(opts Options) *Studio {
	if opts.Logger == nil {
		l := zerolog.New(io.Discard)
		opts.Logger = &l
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.ComposeTimeout <= 0 {
		opts.ComposeTimeout = defaultComposeTimeout
	}
	return &Studio{
		sessions:       NewManager(opts.SessionTTL),
		gate:           opts.Gate,
		composer:       opts.Composer,
		animator:       opts.Animator,
		files:          opts.Files,
		events:         opts.Events,
		logger:         opts.Logger,
		composeTimeout: opts.ComposeTimeout,
	}
}

// CreateSession registers a fresh, idle session.
func (s *Studio) CreateSession() SessionView {
	sess := s.sessions.Create(time.Now().UTC())
	s.logger.Info().Str("session_id", sess.id).Msg("studio: session created")
	return sess.snapshot()
}

// Snapshot returns the current view of a session.
func (s *Studio) Snapshot(id string) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	return sess.snapshot(), nil
}

// DeleteSession tears a session down: any running animation is cancelled
// and spilled artifacts are removed.
func (s *Studio) DeleteSession(ctx context.Context, id string) error {
	sess, ok := s.sessions.Remove(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.teardown(ctx, sess)
	s.logger.Info().Str("session_id", sess.id).Msg("studio: session deleted")
	return nil
}

// SessionCount reports the number of live sessions.
func (s *Studio) SessionCount() int {
	return s.sessions.Len()
}

// SetAsset validates and stores an input image in the given slot.
func (s *Studio) SetAsset(id string, slot domain.Slot, data []byte, mime string) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	asset, err := domain.NewAsset(uuid.NewString(), data, mime)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.assets.Set(slot, asset)
	return sess.snapshotLocked(), nil
}

// ClearAsset empties the given slot.
func (s *Studio) ClearAsset(id string, slot domain.Slot) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.assets.Clear(slot)
	return sess.snapshotLocked(), nil
}

// SetScene stores the scene description verbatim.
func (s *Studio) SetScene(id string, scene string) (SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.assets.SetScene(scene)
	return sess.snapshotLocked(), nil
}

// GenerateComposite runs one synchronous try-on generation. A second request
// while one is running is rejected, a request without a credential leaves
// the session untouched, and starting a new run discards the prior result
// along with any animation attached to it.
func (s *Studio) GenerateComposite(ctx context.Context, id string) (*domain.Composite, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.state == domain.StateGenerating {
		sess.mu.Unlock()
		return nil, domain.ErrGenerationInFlight
	}
	if !sess.assets.Ready() {
		sess.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	sess.mu.Unlock()

	if !s.gate.Check(ctx) {
		return nil, domain.ErrNoCredential
	}

	req, err := s.claimGeneration(ctx, sess)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.composeTimeout)
	defer cancel()
	started := time.Now()
	comp, err := s.composer.Compose(cctx, *req)
	elapsed := time.Since(started)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err != nil {
		kind := domain.Classify(err)
		sess.state = domain.StateFailed
		sess.lastError = err.Error()
		if kind == domain.KindAuth {
			s.gate.Invalidate()
		}
		s.record(ctx, domain.EventComposite, string(kind), sess.id, "", elapsed)
		s.logger.Warn().Err(err).Str("session_id", sess.id).Str("kind", string(kind)).Dur("elapsed", elapsed).Msg("studio: composite failed")
		return nil, err
	}
	sess.state = domain.StateSucceeded
	sess.lastError = ""
	sess.composite = comp
	if !sess.deleted {
		s.spill(ctx, sess.id, "composite"+extFromMIME(comp.MIME), comp.Bytes)
	}
	s.record(ctx, domain.EventComposite, domain.OutcomeSucceeded, sess.id, comp.Model, elapsed)
	s.logger.Info().Str("session_id", sess.id).Str("model", comp.Model).Dur("elapsed", elapsed).Msg("studio: composite ready")
	return comp, nil
}

// claimGeneration atomically moves the session into the generating state and
// captures the inputs for the provider call. The prior composite and any
// animation riding on it are discarded here.
func (s *Studio) claimGeneration(ctx context.Context, sess *Session) (*domain.CompositeRequest, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == domain.StateGenerating {
		return nil, domain.ErrGenerationInFlight
	}
	if !sess.assets.Ready() {
		return nil, domain.ErrNotReady
	}
	sess.cancelAnimationLocked()
	sess.composite = nil
	sess.state = domain.StateGenerating
	sess.lastError = ""
	if !sess.deleted {
		if err := s.files.RemoveAll(ctx, sess.id); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.id).Msg("studio: artifact cleanup failed")
		}
	}
	garment := sess.assets.Get(domain.SlotGarment)
	subject := sess.assets.Get(domain.SlotSubject)
	return &domain.CompositeRequest{Garment: *garment, Subject: *subject, Scene: sess.assets.Scene()}, nil
}

// Composite returns the generated still image.
func (s *Studio) Composite(id string) (*domain.Composite, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.composite == nil {
		return nil, domain.ErrNoComposite
	}
	return sess.composite, nil
}

// StartAnimation kicks off a background video job for the current composite
// and returns the pending job. The session state stays succeeded whatever
// the job's outcome.
func (s *Studio) StartAnimation(ctx context.Context, id string) (*domain.AnimationJob, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.animating {
		sess.mu.Unlock()
		return nil, domain.ErrAnimationInFlight
	}
	if sess.state != domain.StateSucceeded || sess.composite == nil {
		sess.mu.Unlock()
		return nil, domain.ErrNoComposite
	}
	sess.mu.Unlock()

	if !s.gate.Check(ctx) {
		return nil, domain.ErrNoCredential
	}

	sess.mu.Lock()
	if sess.animating {
		sess.mu.Unlock()
		return nil, domain.ErrAnimationInFlight
	}
	if sess.state != domain.StateSucceeded || sess.composite == nil {
		sess.mu.Unlock()
		return nil, domain.ErrNoComposite
	}
	now := time.Now().UTC()
	job := &domain.AnimationJob{ID: uuid.NewString(), Status: domain.JobStatusPending, CreatedAt: now, UpdatedAt: now}
	jobCtx, cancel := context.WithCancel(context.Background())
	sess.animation = job
	sess.animating = true
	sess.cancelAnimation = cancel
	req := video.AnimationRequest{Image: sess.composite.Bytes, MIME: sess.composite.MIME, Scene: sess.assets.Scene()}
	pending := *job
	sess.mu.Unlock()

	s.logger.Info().Str("session_id", sess.id).Str("job_id", job.ID).Msg("studio: animation started")
	go s.runAnimation(jobCtx, sess, job, req)
	return &pending, nil
}

// runAnimation drives the video provider to completion and settles the job.
// If the job was superseded by a newer generation while it ran, the result
// is dropped.
func (s *Studio) runAnimation(ctx context.Context, sess *Session, job *domain.AnimationJob, req video.AnimationRequest) {
	sess.mu.Lock()
	if sess.animation == job {
		job.Status = domain.JobStatusRunning
		job.UpdatedAt = time.Now().UTC()
	}
	sess.mu.Unlock()

	started := time.Now()
	result, err := s.animator.Animate(ctx, req)
	elapsed := time.Since(started)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.animation != job {
		return
	}
	sess.animating = false
	sess.cancelAnimation = nil
	job.UpdatedAt = time.Now().UTC()

	if err != nil {
		job.Status = domain.JobStatusFailed
		if ctx.Err() != nil {
			job.Notice = "animation cancelled"
			return
		}
		kind := domain.Classify(err)
		job.Notice = err.Error()
		if kind == domain.KindAuth {
			s.gate.Invalidate()
		}
		s.record(ctx, domain.EventAnimation, string(kind), sess.id, "", elapsed)
		s.logger.Warn().Err(err).Str("session_id", sess.id).Str("job_id", job.ID).Str("kind", string(kind)).Dur("elapsed", elapsed).Msg("studio: animation failed")
		return
	}

	job.Status = domain.JobStatusSucceeded
	job.Operation = result.Operation
	job.Video = result.Video
	job.MIME = result.MIME
	if !sess.deleted {
		s.spill(ctx, sess.id, "animation"+extFromMIME(result.MIME), result.Video)
	}
	s.record(ctx, domain.EventAnimation, domain.OutcomeSucceeded, sess.id, result.Model, elapsed)
	s.logger.Info().Str("session_id", sess.id).Str("job_id", job.ID).Int("polls", result.Polls).Dur("elapsed", elapsed).Msg("studio: animation ready")
}

// Animation returns a copy of the current video job.
func (s *Studio) Animation(id string) (*domain.AnimationJob, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.animation == nil {
		return nil, domain.ErrNoAnimation
	}
	job := *sess.animation
	return &job, nil
}

// RunJanitor periodically evicts idle sessions until the context ends.
func (s *Studio) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}

// SweepExpired tears down every session idle beyond the TTL and reports how
// many were evicted.
func (s *Studio) SweepExpired(ctx context.Context) int {
	expired := s.sessions.Sweep(time.Now())
	for _, sess := range expired {
		s.teardown(ctx, sess)
		s.logger.Info().Str("session_id", sess.id).Msg("studio: session expired")
	}
	return len(expired)
}

func (s *Studio) teardown(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	sess.deleted = true
	sess.cancelAnimationLocked()
	sess.mu.Unlock()
	if err := s.files.RemoveAll(ctx, sess.id); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.id).Msg("studio: artifact cleanup failed")
	}
}

func (s *Studio) spill(ctx context.Context, sessionID, name string, data []byte) {
	if s.files == nil {
		return
	}
	key := sessionID + "/" + name
	if _, err := s.files.Write(ctx, key, data); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("studio: artifact spill failed")
	}
}

func (s *Studio) record(ctx context.Context, kind domain.EventKind, outcome, sessionID, model string, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	ev := domain.Event{Kind: kind, Outcome: outcome, SessionID: sessionID, Model: model, Elapsed: elapsed}
	if err := s.events.Record(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("studio: event record failed")
	}
}

func extFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	}
	return ".bin"
}
