package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitstudio/internal/domain"
)

// AssetUpload stores a garment or subject image on the session. The payload
// is either a multipart form with a "file" field or the raw request body.
func (a *App) AssetUpload(w http.ResponseWriter, r *http.Request) {
	slot, ok := domain.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "slot must be garment or subject")
		return
	}

	data, mime, ok := a.readImagePayload(w, r)
	if !ok {
		return
	}

	view, err := a.Studio.SetAsset(sessionID(r), slot, data, mime)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionPayloadFrom(view))
}

func (a *App) AssetClear(w http.ResponseWriter, r *http.Request) {
	slot, ok := domain.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "slot must be garment or subject")
		return
	}
	view, err := a.Studio.ClearAsset(sessionID(r), slot)
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionPayloadFrom(view))
}

// readImagePayload extracts image bytes and a media type from the request,
// enforcing the configured upload cap. On failure it writes the error
// response itself and reports ok=false.
func (a *App) readImagePayload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(a.Config.MaxUploadBytes); err != nil {
			a.uploadError(w, err)
			return nil, "", false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "multipart form needs a file field")
			return nil, "", false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			a.uploadError(w, err)
			return nil, "", false
		}
		mime := header.Header.Get("Content-Type")
		if mime == "" || domain.NormalizeMIME(mime) == "application/octet-stream" {
			mime = http.DetectContentType(data)
		}
		return data, mime, true
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		a.uploadError(w, err)
		return nil, "", false
	}
	mime := contentType
	if mime == "" || domain.NormalizeMIME(mime) == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return data, mime, true
}

func (a *App) uploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "image exceeds the upload limit")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", "could not read upload payload")
}
