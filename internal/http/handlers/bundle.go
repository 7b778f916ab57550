package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fitstudio/internal/domain"
	"fitstudio/pkg/zip"
)

// BundleDownload packs the session results into a zip archive: the composite
// image, the animation clip when one finished, the scene text, and a JSON
// manifest of the session.
func (a *App) BundleDownload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	view, err := a.Studio.Snapshot(id)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	comp, err := a.Studio.Composite(id)
	if err != nil {
		a.sessionError(w, err)
		return
	}

	entries := []zip.Entry{
		{Name: "composite" + bundleExt(comp.MIME), Data: comp.Bytes},
	}
	if job, err := a.Studio.Animation(id); err == nil && job.Status == domain.JobStatusSucceeded {
		entries = append(entries, zip.Entry{Name: "animation" + bundleExt(job.MIME), Data: job.Video})
	}
	if view.Scene != "" {
		entries = append(entries, zip.Entry{Name: "scene.txt", Data: []byte(view.Scene)})
	}
	manifest, err := json.MarshalIndent(sessionPayloadFrom(view), "", "  ")
	if err == nil {
		entries = append(entries, zip.Entry{Name: "session.json", Data: manifest})
	}

	archive, err := zip.Archive(entries, time.Now())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=session-%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func bundleExt(mime string) string {
	switch domain.NormalizeMIME(mime) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
