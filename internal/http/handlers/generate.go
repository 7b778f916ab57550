package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitstudio/internal/domain"
)

// CompositeGenerate runs the try-on image generation for the session. The
// call is synchronous; the response carries the result metadata and the
// image bytes are served from the composite endpoint.
func (a *App) CompositeGenerate(w http.ResponseWriter, r *http.Request) {
	comp, err := a.Studio.GenerateComposite(r.Context(), sessionID(r))
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, compositePayload{
		ID:        comp.ID,
		MIME:      comp.MIME,
		Bytes:     len(comp.Bytes),
		Model:     comp.Model,
		CreatedAt: comp.CreatedAt,
	})
}

// CompositeImage streams the generated still image.
func (a *App) CompositeImage(w http.ResponseWriter, r *http.Request) {
	comp, err := a.Studio.Composite(sessionID(r))
	if err != nil {
		if errors.Is(err, domain.ErrNoComposite) {
			a.error(w, http.StatusNotFound, "not_found", "no composite generated yet")
			return
		}
		a.sessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", comp.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(comp.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(comp.Bytes)
}
