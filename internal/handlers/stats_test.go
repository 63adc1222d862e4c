package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tournament-admin/internal/database"
)

func TestGetDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	seedImage(t, env.store, "cores", "a")
	seedImage(t, env.store, "cores", "b")
	id := seedImage(t, env.store, "estilos", "c")
	env.store.images[id].Approved = true

	rec := doRequest(http.HandlerFunc(env.h.GetDashboardStats),
		httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats database.DashboardStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if stats.TotalImages != 3 || stats.ApprovedImages != 1 || stats.PendingApproval != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.CategoriesCount != 2 {
		t.Errorf("expected 2 categories, got %d", stats.CategoriesCount)
	}
}

func TestGetDashboardStatsError(t *testing.T) {
	env := newTestEnv(t)
	env.store.failOn = "dashboard_stats"

	rec := doRequest(http.HandlerFunc(env.h.GetDashboardStats),
		httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestGetCategoryStatsZeroFillsRegistry(t *testing.T) {
	env := newTestEnv(t)
	seedImage(t, env.store, "cores", "a")

	rec := doRequest(http.HandlerFunc(env.h.GetCategoryStats),
		httptest.NewRequest(http.MethodGet, "/api/stats/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Categories []CategoryStatsEntry `json:"categories"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Categories) != 10 {
		t.Fatalf("expected all 10 registry categories, got %d", len(resp.Categories))
	}

	byKey := make(map[string]CategoryStatsEntry)
	for _, e := range resp.Categories {
		byKey[e.Key] = e
	}
	if byKey["cores"].TotalImages != 1 {
		t.Errorf("expected 1 cores image, got %d", byKey["cores"].TotalImages)
	}
	if byKey["bolsas"].TotalImages != 0 {
		t.Errorf("empty categories must zero-fill, got %d", byKey["bolsas"].TotalImages)
	}
	if byKey["cores"].DisplayName == "" || byKey["cores"].Color == "" {
		t.Error("registry metadata missing from entry")
	}
}
