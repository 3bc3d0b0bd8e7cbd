package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptor is returned when a connection descriptor does not name
// both an instance and a database.
var ErrInvalidDescriptor = errors.New("invalid connection descriptor")

// Descriptor identifies one database inside one Spanner instance.
type Descriptor struct {
	InstanceID string
	DatabaseID string
}

// ParseDescriptor extracts the instance and database ids from a hierarchical
// path such as projects/<p>/instances/<i>/databases/<d>. The ids are the
// segments immediately following the literal "instances" and "databases"
// tokens. Any project segment is ignored; the client is scoped to the
// configured project instead.
func ParseDescriptor(text string) (Descriptor, error) {
	parts := strings.Split(strings.TrimSpace(text), "/")

	instanceID, ok := segmentAfter(parts, "instances")
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: missing instances segment", ErrInvalidDescriptor)
	}

	databaseID, ok := segmentAfter(parts, "databases")
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: missing databases segment", ErrInvalidDescriptor)
	}

	return Descriptor{InstanceID: instanceID, DatabaseID: databaseID}, nil
}

// segmentAfter returns the segment following the first occurrence of token.
func segmentAfter(parts []string, token string) (string, bool) {
	for i, p := range parts {
		if p != token {
			continue
		}
		if i+1 >= len(parts) || parts[i+1] == "" {
			return "", false
		}
		return parts[i+1], true
	}
	return "", false
}

// DatabaseName returns the fully-qualified Spanner database name in projectID.
func (d Descriptor) DatabaseName(projectID string) string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", projectID, d.InstanceID, d.DatabaseID)
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return fmt.Sprintf("instances/%s/databases/%s", d.InstanceID, d.DatabaseID)
}
