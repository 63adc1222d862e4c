// Package handlers implements the HTTP API: session authentication,
// the category listing, image upload and moderation endpoints, and the
// statistics dashboards.
package handlers
