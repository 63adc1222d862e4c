package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tournament-admin/internal/auth"
	"tournament-admin/internal/database"
	"tournament-admin/internal/handlers"
	"tournament-admin/internal/images"
	"tournament-admin/internal/logging"
	"tournament-admin/internal/middleware"
	"tournament-admin/internal/startup"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Connect to PostgreSQL and verify the schema contract
	ctx := context.Background()
	dbStart := time.Now()
	db, err := database.New(ctx, config.Database.DSN())
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Session auth
	authManager := auth.NewManager(config)

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		for range ticker.C {
			authManager.CleanExpiredSessions()
		}
	}()

	// Keep the pool gauge current
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		for range ticker.C {
			db.UpdatePoolMetrics()
		}
	}()

	// Image ingestion pipeline
	pipeline := images.NewPipeline(config)

	// Initialize handlers
	h := handlers.New(db, authManager, pipeline, config)

	// Setup router
	router := setupRouter(h, config)

	// Apply metrics middleware
	instrumented := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	handler := middleware.Logger(loggingConfig)(instrumented)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port so the scrape endpoint never
	// shares the public listener
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, db)

	// Start server
	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth routes
	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.HandleFunc("/login", h.Login).Methods("POST")
	authRoutes.HandleFunc("/logout", h.Logout).Methods("POST")
	authRoutes.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Read endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", h.RequirePermission(auth.PermRead, h.GetCategories)).Methods("GET")
	api.HandleFunc("/images", h.RequirePermission(auth.PermRead, h.ListImages)).Methods("GET")
	api.HandleFunc("/images/{id:[0-9]+}", h.RequirePermission(auth.PermRead, h.GetImage)).Methods("GET")
	api.HandleFunc("/stats/dashboard", h.RequirePermission(auth.PermRead, h.GetDashboardStats)).Methods("GET")
	api.HandleFunc("/stats/categories", h.RequirePermission(auth.PermRead, h.GetCategoryStats)).Methods("GET")

	// Moderation endpoints
	api.HandleFunc("/images", h.RequirePermission(auth.PermWrite, h.UploadImage)).Methods("POST")
	api.HandleFunc("/images/{id:[0-9]+}", h.RequirePermission(auth.PermWrite, h.UpdateImage)).Methods("PATCH")
	api.HandleFunc("/images/{id:[0-9]+}/approve", h.RequirePermission(auth.PermWrite, h.ApproveImage)).Methods("POST")
	api.HandleFunc("/images/{id:[0-9]+}/reject", h.RequirePermission(auth.PermWrite, h.RejectImage)).Methods("POST")
	api.HandleFunc("/images/bulk/approval", h.RequirePermission(auth.PermWrite, h.BulkApproval)).Methods("POST")
	api.HandleFunc("/images/bulk/active", h.RequirePermission(auth.PermWrite, h.BulkActive)).Methods("POST")

	// Destructive endpoints
	api.HandleFunc("/images/{id:[0-9]+}", h.RequirePermission(auth.PermDelete, h.DeleteImage)).Methods("DELETE")

	// Stored artifacts
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.UploadBaseDir))))

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownStep("Closing database pool")
	db.Close()

	startup.LogShutdownComplete()
}
