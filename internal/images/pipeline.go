package images

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tournament-admin/internal/startup"
)

// Pipeline converts uploaded binaries into validated, normalized image
// artifacts on disk. A single Pipeline is constructed at process start
// and shared by all handlers; it holds no mutable state.
type Pipeline struct {
	cfg           startup.UploadConfig
	imagesDir     string
	thumbnailsDir string

	// Injectable for tests.
	now       func() time.Time
	randomHex func() string
}

// NewPipeline builds the ingestion pipeline from loaded configuration.
func NewPipeline(cfg *startup.Config) *Pipeline {
	return &Pipeline{
		cfg:           cfg.Upload,
		imagesDir:     cfg.ImagesDir,
		thumbnailsDir: cfg.ThumbnailsDir,
		now:           time.Now,
		randomHex:     func() string { return uuid.NewString()[:8] },
	}
}

// GenerateFilename derives a collision-resistant storage filename:
//
//	{category}_{YYYYMMDD_HHMMSS}_{8-hex-random}{lowercased original extension}
//
// Only the extension of the original name survives, so unsafe characters
// and path components in user-supplied names never reach the filesystem.
func (p *Pipeline) GenerateFilename(originalName, category string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := p.now().Format("20060102_150405")
	return category + "_" + timestamp + "_" + p.randomHex() + ext
}
