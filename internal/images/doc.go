// Package images implements the image ingestion pipeline: validation of
// uploaded files against size and dimension constraints, normalization
// (orientation, color mode), resizing, thumbnail derivation, and
// best-effort artifact cleanup.
//
// The pipeline writes two artifacts per accepted upload: a full-size
// JPEG under the tournament-images directory and a thumb_-prefixed
// preview under its thumbnails subdirectory. Output is always JPEG
// regardless of the upload format; transparent regions are composited
// onto a white background before encoding.
package images
