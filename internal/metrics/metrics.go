// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Status values used as metric labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)

	// Users endpoint
	ObserveUsersQuery(status string, rows int, duration time.Duration)

	// Startup sequence
	ObserveInitPhase(phase, status string, duration time.Duration)
	SetDatabaseReady(ready bool)
}
