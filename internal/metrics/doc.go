// Package metrics defines the Prometheus collectors exported by the
// tournament admin service: HTTP request metrics, database query metrics,
// image ingestion pipeline metrics and authentication counters.
//
// Collectors are registered via promauto at package load; the metrics
// endpoint itself is served from main on a dedicated port.
package metrics
