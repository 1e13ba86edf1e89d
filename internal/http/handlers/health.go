package handlers

import (
	"net/http"

	"github.com/AzrielTheHellrazor/Flicks/internal/app"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Presets feeds the example prompt chips in the web client.
func (a *App) Presets(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"placeholder": app.PlaceholderPrompt,
		"presets":     app.Presets(),
	})
}
