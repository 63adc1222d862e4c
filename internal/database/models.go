package database

import "time"

// TournamentImage is one persisted catalog row.
type TournamentImage struct {
	ID              int64      `json:"id"`
	Category        string     `json:"category"`
	ImageURL        *string    `json:"imageUrl"`
	ThumbnailURL    *string    `json:"thumbnailUrl"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Tags            []string   `json:"tags"`
	Active          bool       `json:"active"`
	Approved        bool       `json:"approved"`
	FileSize        int64      `json:"fileSize"`
	ImageWidth      int        `json:"imageWidth"`
	ImageHeight     int        `json:"imageHeight"`
	MimeType        string     `json:"mimeType"`
	TotalViews      int64      `json:"totalViews"`
	TotalSelections int64      `json:"totalSelections"`
	WinRate         float64    `json:"winRate"`
	ApprovedBy      *string    `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	UploadDate      time.Time  `json:"uploadDate"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewImageRecord carries the fields set at ingestion time. Physical
// properties (size, dimensions, MIME type) are immutable after insert.
type NewImageRecord struct {
	Category     string
	ImageURL     *string
	ThumbnailURL *string
	Title        string
	Description  string
	Tags         []string
	Active       bool
	Approved     bool
	FileSize     int64
	ImageWidth   int
	ImageHeight  int
	MimeType     string
}

// ImageUpdate is a partial update; nil fields are left untouched.
// updated_at is stamped on every update regardless of which fields
// changed.
type ImageUpdate struct {
	Category    *string
	Title       *string
	Description *string
	Tags        *[]string
	Active      *bool
	Approved    *bool
	ApprovedBy  *string
}

// QueryFilters narrows image listings. Zero values mean "no filter".
type QueryFilters struct {
	Category     string
	ActiveOnly   bool
	ApprovedOnly bool
	SearchTerm   string
}

// CategoryStat is one row of the per-category aggregate view.
type CategoryStat struct {
	TotalImages     int64    `json:"totalImages"`
	ActiveImages    int64    `json:"activeImages"`
	ApprovedImages  int64    `json:"approvedImages"`
	AvgWinRate      *float64 `json:"avgWinRate"`
	TotalViews      int64    `json:"totalViews"`
	TotalSelections int64    `json:"totalSelections"`
	RecentUploads   int64    `json:"recentUploads"`  // last 7 days
	MonthlyUploads  int64    `json:"monthlyUploads"` // last 30 days
}

// DashboardStats is the headline counter set for the dashboard page.
type DashboardStats struct {
	TotalImages     int64 `json:"totalImages"`
	ActiveImages    int64 `json:"activeImages"`
	ApprovedImages  int64 `json:"approvedImages"`
	PendingApproval int64 `json:"pendingApproval"`
	TotalViews      int64 `json:"totalViews"`
	TotalSelections int64 `json:"totalSelections"`
	RecentUploads   int64 `json:"recentUploads"`
	CategoriesCount int64 `json:"categoriesCount"`
}
