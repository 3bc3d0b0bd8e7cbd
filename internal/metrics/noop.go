package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}

// ObserveUsersQuery is a no-op.
func (n *NoopRecorder) ObserveUsersQuery(status string, rows int, duration time.Duration) {}

// ObserveInitPhase is a no-op.
func (n *NoopRecorder) ObserveInitPhase(phase, status string, duration time.Duration) {}

// SetDatabaseReady is a no-op.
func (n *NoopRecorder) SetDatabaseReady(ready bool) {}
