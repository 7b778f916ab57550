package handlers

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fitstudio/internal/middleware"
)

type scenePreset struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// scenePresetPrompts holds the curated scene descriptions per locale. The
// prompt is what the client writes into the session scene verbatim.
var scenePresetPrompts = map[string]map[string]string{
	"en": {
		"rooftop-bar":     "A rooftop bar at dusk, city lights in the background, warm golden hour glow",
		"city-street":     "A busy downtown street at midday, natural daylight, candid street style",
		"studio-minimal":  "A minimal photo studio with a seamless light grey backdrop and soft diffused lighting",
		"tropical-beach":  "A tropical beach at sunset, gentle waves, warm sand tones",
		"autumn-park":     "An autumn park with golden leaves, soft afternoon light filtering through the trees",
		"evening-gallery": "An art gallery opening in the evening, white walls, focused spotlights",
	},
	"id": {
		"rooftop-bar":     "Bar rooftop saat senja, lampu kota di latar belakang, cahaya keemasan yang hangat",
		"city-street":     "Jalan pusat kota yang ramai di siang hari, cahaya alami, gaya street candid",
		"studio-minimal":  "Studio foto minimalis dengan latar abu-abu terang dan pencahayaan lembut",
		"tropical-beach":  "Pantai tropis saat matahari terbenam, ombak tenang, pasir berwarna hangat",
		"autumn-park":     "Taman musim gugur dengan daun keemasan, cahaya sore yang lembut menembus pepohonan",
		"evening-gallery": "Pembukaan galeri seni di malam hari, dinding putih, lampu sorot terarah",
	},
}

var scenePresetOrder = []string{
	"rooftop-bar",
	"city-street",
	"studio-minimal",
	"tropical-beach",
	"autumn-park",
	"evening-gallery",
}

// Scenes lists the curated scene presets for the caller's locale.
func (a *App) Scenes(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	prompts, ok := scenePresetPrompts[locale]
	if !ok {
		prompts = scenePresetPrompts["en"]
	}
	titler := cases.Title(language.Und)
	presets := make([]scenePreset, 0, len(scenePresetOrder))
	for _, id := range scenePresetOrder {
		presets = append(presets, scenePreset{
			ID:     id,
			Title:  titler.String(strings.ReplaceAll(id, "-", " ")),
			Prompt: prompts[id],
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"locale":       locale,
		"scenes":       presets,
		"generated_at": time.Now(),
	})
}
