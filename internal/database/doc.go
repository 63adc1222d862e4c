// Package database provides PostgreSQL storage operations for the
// tournament image catalog.
//
// It handles storage and retrieval of:
//   - Tournament image records and their moderation state
//   - Bulk approval and activation operations
//   - Per-category and dashboard aggregate statistics
//
// A connection pool is created once at startup and injected into every
// component that needs it. The schema contract is verified once at
// startup against information_schema; a missing required column is a
// fatal configuration error, not something to paper over per query.
package database
