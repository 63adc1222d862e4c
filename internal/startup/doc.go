// Package startup handles configuration loading and the structured
// startup/shutdown logging for the tournament admin service.
//
// Configuration is environment-driven (a .env file is honored when
// present). LoadConfig validates directories up front: the upload
// directories must exist and be writable before the server accepts
// uploads, and failures there are fatal rather than discovered on the
// first request.
package startup
