package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitstudio/internal/studio"
)

type assetPayload struct {
	ID    string `json:"id"`
	MIME  string `json:"mime"`
	Bytes int    `json:"bytes"`
}

type compositePayload struct {
	ID        string    `json:"id"`
	MIME      string    `json:"mime"`
	Bytes     int       `json:"bytes"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

type animationPayload struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Notice    string    `json:"notice,omitempty"`
	MIME      string    `json:"mime,omitempty"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type sessionPayload struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	Animating bool              `json:"animating"`
	Ready     bool              `json:"ready"`
	Scene     string            `json:"scene"`
	Garment   *assetPayload     `json:"garment"`
	Subject   *assetPayload     `json:"subject"`
	Composite *compositePayload `json:"composite"`
	Animation *animationPayload `json:"animation"`
	LastError string            `json:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func sessionPayloadFrom(view studio.SessionView) sessionPayload {
	p := sessionPayload{
		ID:        view.ID,
		State:     string(view.State),
		Animating: view.Animating,
		Ready:     view.Ready,
		Scene:     view.Scene,
		LastError: view.LastError,
		CreatedAt: view.CreatedAt,
	}
	if v := view.Garment; v != nil {
		p.Garment = &assetPayload{ID: v.ID, MIME: v.MIME, Bytes: v.Size}
	}
	if v := view.Subject; v != nil {
		p.Subject = &assetPayload{ID: v.ID, MIME: v.MIME, Bytes: v.Size}
	}
	if v := view.Composite; v != nil {
		p.Composite = &compositePayload{ID: v.ID, MIME: v.MIME, Bytes: v.Size, Model: v.Model, CreatedAt: v.CreatedAt}
	}
	if v := view.Animation; v != nil {
		p.Animation = &animationPayload{
			ID:        v.ID,
			Status:    string(v.Status),
			Notice:    v.Notice,
			MIME:      v.MIME,
			Bytes:     v.Size,
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		}
	}
	return p
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "session_id")
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	view := a.Studio.CreateSession()
	a.json(w, http.StatusCreated, sessionPayloadFrom(view))
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	view, err := a.Studio.Snapshot(sessionID(r))
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionPayloadFrom(view))
}

func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Studio.DeleteSession(r.Context(), sessionID(r)); err != nil {
		a.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SceneSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scene string `json:"scene"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	view, err := a.Studio.SetScene(sessionID(r), req.Scene)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionPayloadFrom(view))
}
