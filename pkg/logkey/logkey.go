// Package logkey holds the attribute keys used for structured logging so
// log queries stay consistent across the whole service.
package logkey

const (
	TraceID = "TRACE ID"
	ERROR   = "ERROR"
)
