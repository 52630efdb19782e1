// Package server exposes the analyzer over HTTP.
//
// The server is thin glue: it checks the shape of a request, forwards it to
// the pipeline and maps *errs.AppError kinds onto status codes. Prometheus
// metrics are served at /metrics.
package server
