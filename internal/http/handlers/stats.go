package handlers

import (
	"net/http"

	"fitstudio/internal/sqlinline"
)

// StatsSummary reports live session counts and, when a database is wired,
// aggregate generation outcomes.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"live_sessions": a.Studio.SessionCount(),
	}
	if a.SQL != nil {
		row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
		var compositeOK, compositeFail, animationOK, animationFail, composite24, animation24 int64
		if err := row.Scan(&compositeOK, &compositeFail, &animationOK, &animationFail, &composite24, &animation24); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
			return
		}
		out["composite_succeeded"] = compositeOK
		out["composite_failed"] = compositeFail
		out["animation_succeeded"] = animationOK
		out["animation_failed"] = animationFail
		out["composite_last_24h"] = composite24
		out["animation_last_24h"] = animation24
	}
	a.json(w, http.StatusOK, out)
}
