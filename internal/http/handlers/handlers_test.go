package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"fitstudio/internal/auth"
	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
	"fitstudio/internal/providers/video"
	"fitstudio/internal/studio"
)

type stubComposer struct {
	mu     sync.Mutex
	result domain.Composite
	err    error
	calls  int
}

func (s *stubComposer) Compose(ctx context.Context, req domain.CompositeRequest) (*domain.Composite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	comp := s.result
	comp.Bytes = append([]byte(nil), s.result.Bytes...)
	comp.CreatedAt = time.Now().UTC()
	return &comp, nil
}

func (s *stubComposer) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type stubAnimator struct {
	mu     sync.Mutex
	result video.AnimationResult
	err    error
	calls  int
}

func (s *stubAnimator) Animate(ctx context.Context, req video.AnimationRequest) (*video.AnimationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := s.result
	res.Video = append([]byte(nil), s.result.Video...)
	return &res, nil
}

func (s *stubAnimator) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type testApp struct {
	app      *App
	composer *stubComposer
	animator *stubAnimator
}

func newTestApp(t *testing.T, sources ...auth.Source) *testApp {
	t.Helper()
	logger := zerolog.Nop()
	if sources == nil {
		sources = []auth.Source{auth.StaticSource("test-key")}
	}
	gate := auth.NewGate(&logger, sources...)
	composer := &stubComposer{result: domain.Composite{
		ID:    "comp-1",
		Bytes: []byte("still"),
		MIME:  "image/png",
		Model: "image-model",
	}}
	animator := &stubAnimator{result: video.AnimationResult{
		Operation: "operations/op-1",
		Video:     []byte("clip"),
		MIME:      "video/mp4",
		Model:     "video-model",
		Polls:     2,
	}}
	st := studio.New(studio.Options{
		Gate:     gate,
		Composer: composer,
		Animator: animator,
		Logger:   &logger,
	})
	return &testApp{
		app: &App{
			Config: &infra.Config{MaxUploadBytes: 1 << 20},
			Logger: &logger,
			Gate:   gate,
			Studio: st,
		},
		composer: composer,
		animator: animator,
	}
}

// withRouteParams attaches chi URL parameters so handlers can be invoked
// without mounting the full router.
func withRouteParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sessionRequest(method, path, sessionID string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return withRouteParams(req, map[string]string{"session_id": sessionID})
}

// readySession creates a session with both slots filled and a scene set.
func (ta *testApp) readySession(t *testing.T) string {
	t.Helper()
	view := ta.app.Studio.CreateSession()
	if _, err := ta.app.Studio.SetAsset(view.ID, domain.SlotGarment, []byte("garment-bytes"), "image/png"); err != nil {
		t.Fatalf("SetAsset garment: %v", err)
	}
	if _, err := ta.app.Studio.SetAsset(view.ID, domain.SlotSubject, []byte("subject-bytes"), "image/jpeg"); err != nil {
		t.Fatalf("SetAsset subject: %v", err)
	}
	if _, err := ta.app.Studio.SetScene(view.ID, "rooftop at dusk"); err != nil {
		t.Fatalf("SetScene: %v", err)
	}
	return view.ID
}

// generatedSession additionally runs a successful composite generation.
func (ta *testApp) generatedSession(t *testing.T) string {
	t.Helper()
	id := ta.readySession(t)
	if _, err := ta.app.Studio.GenerateComposite(context.Background(), id); err != nil {
		t.Fatalf("GenerateComposite: %v", err)
	}
	return id
}

// waitForAnimation polls until the session's animation job settles.
func (ta *testApp) waitForAnimation(t *testing.T, sessionID string) *domain.AnimationJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := ta.app.Studio.Animation(sessionID)
		if err == nil && job.Done() {
			return job
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("animation did not settle in time")
	return nil
}

func decodeJSON(rr *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(rr.Body).Decode(v)
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) sessionPayload {
	t.Helper()
	var p sessionPayload
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode session payload: %v", err)
	}
	return p
}

func decodeErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code, envelope.Error.Message
}
