// Package startup runs the one-time initialization that follows the HTTP
// listener coming up: resolve the connection descriptor from Secret Manager,
// connect to Spanner, and publish the database handle.
//
// Initialization is strictly sequential and never retried. Any failure is
// returned to the caller, which is expected to terminate the process and
// leave restarts to the orchestrator.
package startup
