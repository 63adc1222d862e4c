package images

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"tournament-admin/internal/metrics"
	"tournament-admin/internal/startup"
)

// maxOptimizedDimension is the longer-side cap applied when optimize is
// requested. Uploads within this bound are stored at their native size.
const maxOptimizedDimension = 1024

// thumbnailQuality is fixed independently of the configured full-size
// quality.
const thumbnailQuality = 85

// OutputMimeType is the MIME type of every persisted artifact. The
// pipeline always re-encodes to JPEG.
const OutputMimeType = "image/jpeg"

// ProcessedImage describes the artifacts written by a successful Process
// call. The caller is responsible for recording these in storage; files
// already on disk from a failed run are never referenced.
type ProcessedImage struct {
	Filename         string    `json:"filename"`
	ImagePath        string    `json:"imagePath"`
	ThumbnailPath    string    `json:"thumbnailPath"`
	ImageURL         string    `json:"imageUrl"`
	ThumbnailURL     string    `json:"thumbnailUrl"`
	OriginalFilename string    `json:"originalFilename"`
	FileSize         int64     `json:"fileSize"`
	Width            int       `json:"imageWidth"`
	Height           int       `json:"imageHeight"`
	MimeType         string    `json:"mimeType"`
	OriginalWidth    int       `json:"originalWidth"`
	OriginalHeight   int       `json:"originalHeight"`
	ProcessedAt      time.Time `json:"processedAt"`
}

// ProcessingError wraps a decode/encode/filesystem failure inside the
// pipeline. The stage names which step failed; the cause is preserved
// for logs, not for the actor.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("image processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Process decodes the upload, normalizes it (orientation correction from
// EXIF, alpha and palette modes flattened onto white), optionally
// downscales so the longer side is at most 1024 px, and persists a
// full-size JPEG plus a 150x150-bounded thumbnail.
//
// On failure no artifacts are reported to the caller; files from a
// partially completed run may remain on disk and are not cleaned up
// here.
func (p *Pipeline) Process(r io.ReadSeeker, originalName, category string, optimize bool) (*ProcessedImage, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &ProcessingError{Stage: "decode", Err: err}
	}

	// Orientation correction happens at decode time, before any resize
	// math sees the pixels.
	decodeStart := time.Now()
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ProcessingError{Stage: "decode", Err: err}
	}
	metrics.ObserveProcessingPhase("decode", decodeStart)

	// JPEG has no alpha channel; composite everything onto an opaque
	// white background so previously-transparent regions are
	// deterministic.
	normalizeStart := time.Now()
	flat := flattenOntoWhite(img)
	metrics.ObserveProcessingPhase("normalize", normalizeStart)

	originalWidth := flat.Bounds().Dx()
	originalHeight := flat.Bounds().Dy()

	out := flat
	if optimize && (originalWidth > maxOptimizedDimension || originalHeight > maxOptimizedDimension) {
		resizeStart := time.Now()
		out = imaging.Fit(flat, maxOptimizedDimension, maxOptimizedDimension, imaging.Lanczos)
		metrics.ObserveProcessingPhase("resize", resizeStart)
	}

	filename := p.GenerateFilename(originalName, category)
	imagePath := filepath.Join(p.imagesDir, filename)
	thumbnailFilename := "thumb_" + filename
	thumbnailPath := filepath.Join(p.thumbnailsDir, thumbnailFilename)

	encodeStart := time.Now()
	if err := saveJPEG(imagePath, out, p.cfg.Quality); err != nil {
		return nil, &ProcessingError{Stage: "encode", Err: err}
	}
	metrics.ObserveProcessingPhase("encode", encodeStart)

	thumbStart := time.Now()
	thumb := imaging.Fit(out, p.cfg.ThumbnailSize, p.cfg.ThumbnailSize, imaging.Lanczos)
	if err := saveJPEG(thumbnailPath, thumb, thumbnailQuality); err != nil {
		return nil, &ProcessingError{Stage: "thumbnail", Err: err}
	}
	metrics.ObserveProcessingPhase("thumbnail", thumbStart)

	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, &ProcessingError{Stage: "stat", Err: err}
	}
	metrics.ImageBytesWritten.WithLabelValues("full").Add(float64(info.Size()))
	if thumbInfo, err := os.Stat(thumbnailPath); err == nil {
		metrics.ImageBytesWritten.WithLabelValues("thumbnail").Add(float64(thumbInfo.Size()))
	}

	return &ProcessedImage{
		Filename:         filename,
		ImagePath:        imagePath,
		ThumbnailPath:    thumbnailPath,
		ImageURL:         startup.ImageURLPrefix + filename,
		ThumbnailURL:     startup.ThumbnailURLPrefix + thumbnailFilename,
		OriginalFilename: originalName,
		FileSize:         info.Size(),
		Width:            out.Bounds().Dx(),
		Height:           out.Bounds().Dy(),
		MimeType:         OutputMimeType,
		OriginalWidth:    originalWidth,
		OriginalHeight:   originalHeight,
		ProcessedAt:      p.now(),
	}, nil
}

// flattenOntoWhite composites src onto an opaque white canvas of the
// same size. Opaque inputs come through unchanged; palette and alpha
// modes lose their transparency against white.
func flattenOntoWhite(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

func saveJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
