package handlers

import (
	"net/http"
	"strconv"

	"fitstudio/internal/domain"
)

func animationPayloadFrom(job *domain.AnimationJob) animationPayload {
	return animationPayload{
		ID:        job.ID,
		Status:    string(job.Status),
		Notice:    job.Notice,
		MIME:      job.MIME,
		Bytes:     len(job.Video),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// AnimationStart kicks off video generation from the current composite and
// returns immediately; clients poll the status endpoint for progress.
func (a *App) AnimationStart(w http.ResponseWriter, r *http.Request) {
	job, err := a.Studio.StartAnimation(r.Context(), sessionID(r))
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, animationPayloadFrom(job))
}

func (a *App) AnimationStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.Studio.Animation(sessionID(r))
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, animationPayloadFrom(job))
}

// AnimationVideo streams the finished clip.
func (a *App) AnimationVideo(w http.ResponseWriter, r *http.Request) {
	job, err := a.Studio.Animation(sessionID(r))
	if err != nil {
		a.sessionError(w, err)
		return
	}
	switch {
	case job.Status == domain.JobStatusFailed:
		a.error(w, http.StatusConflict, "animation_failed", job.Notice)
		return
	case job.Status != domain.JobStatusSucceeded || len(job.Video) == 0:
		a.error(w, http.StatusConflict, "animation_not_ready", "animation has not finished yet")
		return
	}
	w.Header().Set("Content-Type", job.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(job.Video)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(job.Video)
}
