package startup

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tournament-admin/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// DSN returns the pgx connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name)
}

// MaintenanceDSN returns a connection string against the postgres
// maintenance database, used by the bootstrap CLI before the application
// database exists.
func (d DatabaseConfig) MaintenanceDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port)
}

// UploadConfig holds the image ingestion constraints.
type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
	MinWidth          int
	MinHeight         int
	MaxWidth          int
	MaxHeight         int
	ThumbnailSize     int
	Quality           int
}

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Upload   UploadConfig

	Port           string
	MetricsPort    string
	MetricsEnabled bool
	LogStaticFiles bool

	SessionTimeout    time.Duration
	AdminPassword     string
	ModeratorPassword string

	// Derived paths
	UploadBaseDir string
	ImagesDir     string
	ThumbnailsDir string
}

// Upload URL prefixes; the filesystem layout under UploadBaseDir mirrors
// these shapes.
const (
	ImageURLPrefix     = "/uploads/tournament-images/"
	ThumbnailURLPrefix = "/uploads/tournament-images/thumbnails/"
)

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	// A .env file is optional; real environments set variables directly.
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded configuration from .env file")
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "matchit_db"),
			User:     getEnv("DB_USER", "matchit"),
			Password: getEnv("DB_PASSWORD", ""),
		},
		Upload: UploadConfig{
			MaxBytes:          getEnvInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
			AllowedExtensions: getEnvList("UPLOAD_ALLOWED_EXTENSIONS", []string{".jpg", ".jpeg", ".png", ".webp"}),
			MinWidth:          getEnvInt("UPLOAD_MIN_WIDTH", 200),
			MinHeight:         getEnvInt("UPLOAD_MIN_HEIGHT", 200),
			MaxWidth:          getEnvInt("UPLOAD_MAX_WIDTH", 2048),
			MaxHeight:         getEnvInt("UPLOAD_MAX_HEIGHT", 2048),
			ThumbnailSize:     getEnvInt("UPLOAD_THUMBNAIL_SIZE", 150),
			Quality:           getEnvInt("UPLOAD_QUALITY", 85),
		},
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogStaticFiles:    getEnvBool("LOG_STATIC_FILES", false),
		SessionTimeout:    time.Duration(getEnvInt("SESSION_TIMEOUT", 3600)) * time.Second,
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		ModeratorPassword: getEnv("MODERATOR_PASSWORD", ""),
	}

	uploadBase := getEnv("UPLOAD_DIR", "/uploads")

	logging.Info("  DB_HOST:             %s", cfg.Database.Host)
	logging.Info("  DB_PORT:             %s", cfg.Database.Port)
	logging.Info("  DB_NAME:             %s", cfg.Database.Name)
	logging.Info("  DB_USER:             %s", cfg.Database.User)
	logging.Info("  UPLOAD_DIR:          %s", uploadBase)
	logging.Info("  UPLOAD_MAX_BYTES:    %d", cfg.Upload.MaxBytes)
	logging.Info("  UPLOAD_EXTENSIONS:   %s", strings.Join(cfg.Upload.AllowedExtensions, ","))
	logging.Info("  UPLOAD_DIMENSIONS:   %dx%d min, %dx%d max",
		cfg.Upload.MinWidth, cfg.Upload.MinHeight, cfg.Upload.MaxWidth, cfg.Upload.MaxHeight)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  SESSION_TIMEOUT:     %v", cfg.SessionTimeout)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if cfg.Upload.MinWidth > cfg.Upload.MaxWidth || cfg.Upload.MinHeight > cfg.Upload.MaxHeight {
		return nil, fmt.Errorf("invalid upload dimension constraints: min %dx%d exceeds max %dx%d",
			cfg.Upload.MinWidth, cfg.Upload.MinHeight, cfg.Upload.MaxWidth, cfg.Upload.MaxHeight)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	uploadBase, err := filepath.Abs(uploadBase)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	logging.Info("  Upload directory (absolute): %s", uploadBase)

	cfg.UploadBaseDir = uploadBase
	cfg.ImagesDir = filepath.Join(uploadBase, "tournament-images")
	cfg.ThumbnailsDir = filepath.Join(cfg.ImagesDir, "thumbnails")

	for _, dir := range []string{cfg.ImagesDir, cfg.ThumbnailsDir} {
		if err := ensureDirectory(dir); err != nil {
			return nil, fmt.Errorf("upload directory error for %s: %w", dir, err)
		}
		if err := testWriteAccess(dir); err != nil {
			return nil, fmt.Errorf("upload directory %s is not writable: %w", dir, err)
		}
	}
	logging.Info("  [OK] Upload directories are writable")

	return cfg, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database connected and schema verified in %v", duration)
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(port, metricsPort string, metricsEnabled bool, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", port)
	if metricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", metricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  MatchIt Tournament Admin")
	logging.Info("============================================================")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("  Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless.
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList parses a comma-separated environment variable, lower-casing
// and trimming each entry.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
