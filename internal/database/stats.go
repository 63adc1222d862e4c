package database

import (
	"context"
	"fmt"
	"time"

	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
)

// CategoryAggregates computes per-category moderation counters. Only
// categories with at least one row appear in the result.
func (d *Database) CategoryAggregates(ctx context.Context) (map[string]CategoryStat, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("category_stats", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.pool.Query(queryCtx, `
		SELECT
			category,
			COUNT(*) AS total_images,
			COUNT(*) FILTER (WHERE active) AS active_images,
			COUNT(*) FILTER (WHERE approved) AS approved_images,
			AVG(win_rate) FILTER (WHERE approved) AS avg_win_rate,
			COALESCE(SUM(total_views), 0) AS total_views,
			COALESCE(SUM(total_selections), 0) AS total_selections,
			COUNT(*) FILTER (WHERE upload_date >= NOW() - INTERVAL '7 days') AS recent_uploads,
			COUNT(*) FILTER (WHERE upload_date >= NOW() - INTERVAL '30 days') AS monthly_uploads
		FROM tournament_images
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		err = fmt.Errorf("failed to query category stats: %w", err)
		logging.Error("CategoryAggregates failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]CategoryStat)
	for rows.Next() {
		var category string
		var s CategoryStat
		if scanErr := rows.Scan(
			&category, &s.TotalImages, &s.ActiveImages, &s.ApprovedImages,
			&s.AvgWinRate, &s.TotalViews, &s.TotalSelections,
			&s.RecentUploads, &s.MonthlyUploads,
		); scanErr != nil {
			err = fmt.Errorf("failed to scan category stats: %w", scanErr)
			return nil, err
		}
		stats[category] = s
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to read category stats: %w", err)
		return nil, err
	}

	return stats, nil
}

// GetDashboardStats computes the catalog-wide overview counters.
func (d *Database) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("dashboard_stats", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s DashboardStats
	err = d.pool.QueryRow(queryCtx, `
		SELECT
			COUNT(*) AS total_images,
			COUNT(*) FILTER (WHERE active) AS active_images,
			COUNT(*) FILTER (WHERE approved) AS approved_images,
			COUNT(*) FILTER (WHERE active AND NOT approved) AS pending_approval,
			COALESCE(SUM(total_views), 0) AS total_views,
			COALESCE(SUM(total_selections), 0) AS total_selections,
			COUNT(*) FILTER (WHERE upload_date >= NOW() - INTERVAL '7 days') AS recent_uploads,
			COUNT(DISTINCT category) AS categories_count
		FROM tournament_images`).Scan(
		&s.TotalImages, &s.ActiveImages, &s.ApprovedImages, &s.PendingApproval,
		&s.TotalViews, &s.TotalSelections, &s.RecentUploads, &s.CategoriesCount,
	)
	if err != nil {
		err = fmt.Errorf("failed to query dashboard stats: %w", err)
		logging.Error("GetDashboardStats failed: %v", err)
		return nil, err
	}

	return &s, nil
}
