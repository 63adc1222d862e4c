package handlers

import (
	"net/http"

	"tournament-admin/internal/category"
)

// GetCategories lists the fixed category registry.
func (h *Handlers) GetCategories(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, map[string]interface{}{
		"categories": category.All(),
	})
}
