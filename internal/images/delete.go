package images

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
	"tournament-admin/internal/startup"
)

// DeleteArtifacts removes the full-size and thumbnail files referenced
// by the given URLs, best effort. URLs outside the managed upload
// prefixes are ignored, missing files are not an error, and filesystem
// failures are logged rather than propagated: moderation actions never
// block on cleanup.
func (p *Pipeline) DeleteArtifacts(imageURL, thumbnailURL string) {
	// Thumbnail first: its URL prefix is a superset of the image prefix,
	// so the image branch must not see thumbnail URLs.
	if thumbnailURL != "" {
		if strings.HasPrefix(thumbnailURL, startup.ThumbnailURLPrefix) {
			p.removeArtifact(filepath.Join(p.thumbnailsDir, path.Base(thumbnailURL)))
		} else {
			metrics.ArtifactDeletesTotal.WithLabelValues("skipped").Inc()
			logging.Debug("Skipping artifact outside managed prefix: %s", thumbnailURL)
		}
	}

	if imageURL != "" {
		if strings.HasPrefix(imageURL, startup.ImageURLPrefix) && !strings.HasPrefix(imageURL, startup.ThumbnailURLPrefix) {
			p.removeArtifact(filepath.Join(p.imagesDir, path.Base(imageURL)))
		} else {
			metrics.ArtifactDeletesTotal.WithLabelValues("skipped").Inc()
			logging.Debug("Skipping artifact outside managed prefix: %s", imageURL)
		}
	}
}

func (p *Pipeline) removeArtifact(fsPath string) {
	err := os.Remove(fsPath)
	switch {
	case err == nil:
		metrics.ArtifactDeletesTotal.WithLabelValues("removed").Inc()
		logging.Info("Removed artifact: %s", fsPath)
	case os.IsNotExist(err):
		metrics.ArtifactDeletesTotal.WithLabelValues("missing").Inc()
		logging.Debug("Artifact already gone: %s", fsPath)
	default:
		metrics.ArtifactDeletesTotal.WithLabelValues("error").Inc()
		logging.Warn("Failed to remove artifact %s: %v", fsPath, err)
	}
}
