// Package handler implements the NetDash HTTP API.
//
// DeviceHandler exposes device CRUD, discovery, live status, the metrics
// window, configuration push and on-demand refresh under /api/devices.
// NewRouter also mounts the SSE stream on /events, Prometheus metrics on
// /metrics and a liveness probe on /healthz.
//
// Errors are returned as JSON with an {error, details} structure. Missing
// devices map to 404 and validation failures to 400.
package handler
