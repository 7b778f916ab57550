package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitstudio/internal/auth"
	"fitstudio/internal/domain"
)

// noKeySource simulates an exhausted credential chain.
func noKeySource() auth.Source {
	return auth.SourceFunc(func(context.Context) (string, error) { return "", nil })
}

func TestCompositeGenerateHandler(t *testing.T) {
	ta := newTestApp(t)
	id := ta.readySession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var p compositePayload
	if err := decodeJSON(rr, &p); err != nil {
		t.Fatalf("decode composite payload: %v", err)
	}
	if p.ID == "" || p.MIME != "image/png" || p.Model != "image-model" {
		t.Fatalf("payload = %+v", p)
	}
	if p.Bytes != len("still") {
		t.Fatalf("bytes = %d, want %d", p.Bytes, len("still"))
	}
	if p.CreatedAt.IsZero() || p.CreatedAt.After(time.Now().Add(time.Minute)) {
		t.Fatalf("created_at = %v", p.CreatedAt)
	}
}

func TestCompositeGenerateNotReady(t *testing.T) {
	ta := newTestApp(t)
	view := ta.app.Studio.CreateSession()

	rr := httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+view.ID+"/composite", view.ID))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
	if code, _ := decodeErrorEnvelope(t, rr); code != "not_ready" {
		t.Fatalf("error code = %q, want not_ready", code)
	}
	if ta.composer.calls != 0 {
		t.Fatalf("composer called %d times for an unready session", ta.composer.calls)
	}
}

func TestCompositeGenerateWithoutCredential(t *testing.T) {
	ta := newTestApp(t, noKeySource())
	id := ta.readySession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if code, _ := decodeErrorEnvelope(t, rr); code != "no_credential" {
		t.Fatalf("error code = %q, want no_credential", code)
	}
}

func TestCompositeGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "content refusal",
			err:        domain.NewRefusal("cannot depict real people in this scene"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "content_refused",
		},
		{
			name:       "auth failure",
			err:        domain.NewAuthError("genai: http 403: permission denied", nil),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "auth_failed",
		},
		{
			name:       "auth signature in plain error",
			err:        errors.New("rpc error: Requested entity was not found."),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "auth_failed",
		},
		{
			name:       "timeout",
			err:        domain.NewTimeoutError("video job still running after 60 polls"),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timeout",
		},
		{
			name:       "empty response",
			err:        domain.NewEmptyResponse(),
			wantStatus: http.StatusBadGateway,
			wantCode:   "empty_response",
		},
		{
			name:       "protocol error",
			err:        domain.NewProtocolError("missing operation name"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "protocol",
		},
		{
			name:       "plain transport error",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "upstream",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ta := newTestApp(t)
			ta.composer.fail(tc.err)
			id := ta.readySession(t)

			rr := httptest.NewRecorder()
			ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d; body=%s", rr.Code, tc.wantStatus, rr.Body.String())
			}
			if code, _ := decodeErrorEnvelope(t, rr); code != tc.wantCode {
				t.Fatalf("error code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestCompositeGenerateRefusalTextVerbatim(t *testing.T) {
	ta := newTestApp(t)
	refusal := "cannot depict real people in this scene"
	ta.composer.fail(domain.NewRefusal(refusal))
	id := ta.readySession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))

	if _, msg := decodeErrorEnvelope(t, rr); msg != refusal {
		t.Fatalf("message = %q, want the refusal text verbatim", msg)
	}
}

func TestCompositeGenerateAuthFailureDisconnectsGate(t *testing.T) {
	ta := newTestApp(t)
	ta.composer.fail(domain.NewAuthError("genai: http 401: API key not valid", nil))
	id := ta.readySession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	// The gate stays disconnected until an explicit reconnect.
	rr = httptest.NewRecorder()
	ta.app.AuthStatus(rr, httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil))
	var status authStatusResponse
	if err := decodeJSON(rr, &status); err != nil {
		t.Fatalf("decode auth status: %v", err)
	}
	if status.Connected {
		t.Fatalf("gate still connected after an auth failure")
	}

	rr = httptest.NewRecorder()
	ta.app.CompositeGenerate(rr, sessionRequest(http.MethodPost, "/v1/sessions/"+id+"/composite", id))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("retry status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if code, _ := decodeErrorEnvelope(t, rr); code != "no_credential" {
		t.Fatalf("retry error code = %q, want no_credential", code)
	}
}

func TestCompositeImageHandler(t *testing.T) {
	ta := newTestApp(t)
	id := ta.generatedSession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeImage(rr, sessionRequest(http.MethodGet, "/v1/sessions/"+id+"/composite", id))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q, want image/png", ct)
	}
	if rr.Body.String() != "still" {
		t.Fatalf("body = %q, want the composite bytes", rr.Body.String())
	}
}

func TestCompositeImageBeforeGenerate(t *testing.T) {
	ta := newTestApp(t)
	id := ta.readySession(t)

	rr := httptest.NewRecorder()
	ta.app.CompositeImage(rr, sessionRequest(http.MethodGet, "/v1/sessions/"+id+"/composite", id))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	if _, msg := decodeErrorEnvelope(t, rr); msg != "no composite generated yet" {
		t.Fatalf("message = %q", msg)
	}
}
