package handlers

import (
	"net/http"

	"tournament-admin/internal/category"
	"tournament-admin/internal/database"
	"tournament-admin/internal/logging"
)

// CategoryStatsEntry joins registry metadata with the stored counters.
type CategoryStatsEntry struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	database.CategoryStat
}

// GetDashboardStats returns the catalog-wide overview counters.
func (h *Handlers) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetDashboardStats(r.Context())
	if err != nil {
		logging.Error("Failed to compute dashboard stats: %v", err)
		writeJSONError(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}

// GetCategoryStats returns per-category counters for every registry
// category, zero-filled where no images exist yet.
func (h *Handlers) GetCategoryStats(w http.ResponseWriter, r *http.Request) {
	aggregates, err := h.db.CategoryAggregates(r.Context())
	if err != nil {
		logging.Error("Failed to compute category stats: %v", err)
		writeJSONError(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}

	entries := make([]CategoryStatsEntry, 0, len(category.All()))
	for _, c := range category.All() {
		entries = append(entries, CategoryStatsEntry{
			Key:          c.Key,
			DisplayName:  c.DisplayName,
			Color:        c.Color,
			Icon:         c.Icon,
			CategoryStat: aggregates[c.Key],
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"categories": entries,
	})
}
