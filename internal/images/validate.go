package images

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	// Image format decoders for validation and processing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

// ValidationKind identifies why an upload was rejected.
type ValidationKind string

const (
	// FileTooLarge means the stream is missing or exceeds the byte limit.
	FileTooLarge ValidationKind = "file_too_large"
	// UnsupportedFormat means the filename extension is not allowed.
	UnsupportedFormat ValidationKind = "unsupported_format"
	// CorruptImage means the stream did not decode as a raster image.
	CorruptImage ValidationKind = "corrupt_image"
	// TooSmall means the pixel dimensions are below the minimum.
	TooSmall ValidationKind = "too_small"
	// TooLarge means the pixel dimensions are above the maximum.
	TooLarge ValidationKind = "too_large"
)

// ValidationError is a recoverable upload rejection. The message is safe
// to surface to the actor as a corrective hint.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}

// Validate checks an uploaded stream against the configured constraints.
// Checks run in order and stop at the first failure. The reader position
// is restored to the start on exit regardless of outcome.
//
// Returns nil for a valid upload, or a *ValidationError.
func (p *Pipeline) Validate(r io.ReadSeeker, size int64, filename string) error {
	if r != nil {
		defer func() {
			if _, err := r.Seek(0, io.SeekStart); err != nil {
				// The caller's next read will fail; nothing more to do here.
				_ = err
			}
		}()
	}

	if r == nil {
		return &ValidationError{Kind: FileTooLarge, Message: "no file provided"}
	}
	if size > p.cfg.MaxBytes {
		return &ValidationError{
			Kind:    FileTooLarge,
			Message: fmt.Sprintf("file too large: maximum is %.1f MB", float64(p.cfg.MaxBytes)/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !p.extensionAllowed(ext) {
		return &ValidationError{
			Kind:    UnsupportedFormat,
			Message: fmt.Sprintf("unsupported format %q: use %s", ext, strings.Join(p.cfg.AllowedExtensions, ", ")),
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return &ValidationError{Kind: CorruptImage, Message: "file is not a valid image"}
	}
	config, _, err := image.DecodeConfig(r)
	if err != nil {
		return &ValidationError{Kind: CorruptImage, Message: "file is not a valid image"}
	}

	if config.Width < p.cfg.MinWidth || config.Height < p.cfg.MinHeight {
		return &ValidationError{
			Kind:    TooSmall,
			Message: fmt.Sprintf("image too small: minimum is %dx%d px", p.cfg.MinWidth, p.cfg.MinHeight),
		}
	}
	if config.Width > p.cfg.MaxWidth || config.Height > p.cfg.MaxHeight {
		return &ValidationError{
			Kind:    TooLarge,
			Message: fmt.Sprintf("image too large: maximum is %dx%d px", p.cfg.MaxWidth, p.cfg.MaxHeight),
		}
	}

	return nil
}

func (p *Pipeline) extensionAllowed(ext string) bool {
	for _, allowed := range p.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
