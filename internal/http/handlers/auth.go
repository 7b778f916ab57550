package handlers

import (
	"errors"
	"net/http"

	"fitstudio/internal/domain"
)

type authStatusResponse struct {
	Connected bool `json:"connected"`
}

// AuthStatus reports whether a Gemini credential is currently usable.
func (a *App) AuthStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, authStatusResponse{Connected: a.Gate.Check(r.Context())})
}

// AuthConnect re-resolves the credential chain after an invalidation or a
// fresh deployment. Generation stays blocked until this succeeds.
func (a *App) AuthConnect(w http.ResponseWriter, r *http.Request) {
	if err := a.Gate.Connect(r.Context()); err != nil {
		if errors.Is(err, domain.ErrConnectUnavailable) {
			a.error(w, http.StatusServiceUnavailable, "connect_unavailable", "no credential source produced an API key")
			return
		}
		a.Logger.Error().Err(err).Msg("auth connect failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to connect credential")
		return
	}
	a.json(w, http.StatusOK, authStatusResponse{Connected: true})
}
