package domain

import "strings"

// Slot identifies which try-on input an asset occupies.
type Slot string

const (
	SlotGarment Slot = "garment"
	SlotSubject Slot = "subject"
)

// ParseSlot maps a path segment to a Slot.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(s)) {
	case SlotGarment:
		return SlotGarment, true
	case SlotSubject:
		return SlotSubject, true
	default:
		return "", false
	}
}

var supportedImageMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// NormalizeMIME lowercases a media type and strips parameters.
func NormalizeMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// SupportedImageMIME reports whether the generation endpoints accept mime.
func SupportedImageMIME(mime string) bool {
	return supportedImageMIME[NormalizeMIME(mime)]
}

// Asset is an uploaded source image occupying one slot. Replaced wholesale
// on re-upload, removed on clear or session end.
type Asset struct {
	ID    string
	Bytes []byte
	MIME  string
}

// NewAsset validates the payload and returns the asset ready for a slot.
func NewAsset(id string, data []byte, mime string) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, ErrEmptyAsset
	}
	norm := NormalizeMIME(mime)
	if !supportedImageMIME[norm] {
		return Asset{}, ErrUnsupportedMIME
	}
	return Asset{ID: id, Bytes: data, MIME: norm}, nil
}
