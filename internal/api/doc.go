// Package api hosts the HTTP server, middleware, and REST handlers for operator
// access. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/runs to run an extraction and receive the catalog.
//   - the reverse-proxy passthrough, mounted under its configured prefix.
package api
