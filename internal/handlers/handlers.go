package handlers

import (
	"context"

	"tournament-admin/internal/auth"
	"tournament-admin/internal/database"
	"tournament-admin/internal/images"
	"tournament-admin/internal/startup"
)

// Store is the storage gateway surface the handlers depend on.
type Store interface {
	Insert(ctx context.Context, rec database.NewImageRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*database.TournamentImage, error)
	Query(ctx context.Context, f database.QueryFilters, limit, offset int) ([]database.TournamentImage, error)
	Update(ctx context.Context, id int64, u database.ImageUpdate) error
	SetApproval(ctx context.Context, id int64, approved bool, approvedBy string) error
	BulkSetApproval(ctx context.Context, ids []int64, approved bool, approvedBy string) error
	BulkSetActive(ctx context.Context, ids []int64, active bool) (int, error)
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	CategoryAggregates(ctx context.Context) (map[string]database.CategoryStat, error)
	GetDashboardStats(ctx context.Context) (*database.DashboardStats, error)
	Ping(ctx context.Context) error
}

type Handlers struct {
	db       Store
	auth     *auth.Manager
	pipeline *images.Pipeline
	cfg      *startup.Config
}

func New(db Store, authManager *auth.Manager, pipeline *images.Pipeline, cfg *startup.Config) *Handlers {
	return &Handlers{
		db:       db,
		auth:     authManager,
		pipeline: pipeline,
		cfg:      cfg,
	}
}
