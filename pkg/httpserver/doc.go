// Package httpserver runs an http.Server with graceful shutdown on context
// cancellation or SIGINT/SIGTERM, plus a combined liveness/readiness probe
// handler.
package httpserver
