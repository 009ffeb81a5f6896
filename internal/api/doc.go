// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - POST /v1/inspections inspects one URL and stores a new record version.
//   - GET /v1/weblinks and /v1/weblinks/latest read stored versions by URL.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
