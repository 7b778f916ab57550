package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fitstudio/internal/auth"
	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
	"fitstudio/internal/studio"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Config *infra.Config
	Logger *infra.Logger
	Gate   *auth.Gate
	Studio *studio.Studio

	// SQL is nil when no database is configured; stats then report live
	// counters only.
	SQL infra.SQLExecutor
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": errCode, "message": message}})
}

// sessionError translates studio sentinels and provider failures into HTTP
// responses.
func (a *App) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrNotReady):
		a.error(w, http.StatusConflict, "not_ready", "both images and a scene description are required")
	case errors.Is(err, domain.ErrGenerationInFlight):
		a.error(w, http.StatusConflict, "generation_in_flight", "a generation is already running for this session")
	case errors.Is(err, domain.ErrAnimationInFlight):
		a.error(w, http.StatusConflict, "animation_in_flight", "an animation is already running for this session")
	case errors.Is(err, domain.ErrNoComposite):
		a.error(w, http.StatusConflict, "no_composite", "generate a composite first")
	case errors.Is(err, domain.ErrNoAnimation):
		a.error(w, http.StatusNotFound, "not_found", "no animation for this session")
	case errors.Is(err, domain.ErrNoCredential):
		a.error(w, http.StatusUnauthorized, "no_credential", "no Gemini API key is connected")
	case errors.Is(err, domain.ErrEmptyAsset):
		a.error(w, http.StatusBadRequest, "bad_request", "image payload is empty")
	case errors.Is(err, domain.ErrUnsupportedMIME):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media", "image must be png, jpeg or webp")
	default:
		a.upstreamError(w, err)
	}
}

// upstreamError maps classified generation failures onto status codes. The
// refusal text travels to the client verbatim so it can be shown as-is.
func (a *App) upstreamError(w http.ResponseWriter, err error) {
	switch domain.Classify(err) {
	case domain.KindAuth:
		a.error(w, http.StatusUnauthorized, "auth_failed", "the Gemini API rejected the credential")
	case domain.KindContentRefusal:
		a.error(w, http.StatusUnprocessableEntity, "content_refused", err.Error())
	case domain.KindTimeout:
		a.error(w, http.StatusGatewayTimeout, "timeout", "the generation did not finish in time")
	case domain.KindEmptyResponse:
		a.error(w, http.StatusBadGateway, "empty_response", "the model returned no usable output")
	case domain.KindProtocol:
		a.error(w, http.StatusBadGateway, "protocol", "unexpected reply from the generation service")
	default:
		a.error(w, http.StatusBadGateway, "upstream", "the generation service is unavailable")
	}
}
