// Package secret resolves configuration values stored in Google Secret Manager.
package secret

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf8"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// Common errors for secret resolution.
var (
	ErrMissingProject   = errors.New("project id is required")
	ErrMissingSecret    = errors.New("secret id is required")
	ErrEmptyPayload     = errors.New("secret version has no payload")
	ErrInvalidPayload   = errors.New("secret payload is not valid UTF-8")
	ErrChecksumMismatch = errors.New("secret payload checksum mismatch")
)

// LatestVersion is the version alias every lookup resolves.
const LatestVersion = "latest"

// Accessor is the subset of the Secret Manager client used by Resolver.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Resolver fetches secret payloads as text.
type Resolver struct {
	accessor Accessor
	closeFn  func() error
}

// New creates a Resolver backed by a Secret Manager client.
// Credentials come from Application Default Credentials unless opts override them.
func New(ctx context.Context, opts ...option.ClientOption) (*Resolver, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &Resolver{accessor: client, closeFn: client.Close}, nil
}

// NewWithAccessor creates a Resolver around an existing accessor.
func NewWithAccessor(accessor Accessor) *Resolver {
	return &Resolver{accessor: accessor}
}

// VersionName returns the fully-qualified name of the latest version of a secret.
func VersionName(projectID, secretID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, secretID, LatestVersion)
}

// Resolve returns the latest payload of secretID in projectID.
// Store errors are returned as-is (wrapped); there is no retry.
func (r *Resolver) Resolve(ctx context.Context, projectID, secretID string) (string, error) {
	if projectID == "" {
		return "", ErrMissingProject
	}
	if secretID == "" {
		return "", ErrMissingSecret
	}

	name := VersionName(projectID, secretID)
	resp, err := r.accessor.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}

	payload := resp.GetPayload()
	if payload == nil {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyPayload)
	}

	data := payload.GetData()
	if payload.DataCrc32C != nil {
		sum := int64(crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli)))
		if sum != payload.GetDataCrc32C() {
			return "", fmt.Errorf("%s: %w", name, ErrChecksumMismatch)
		}
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", name, ErrInvalidPayload)
	}

	// Payloads added with `gcloud secrets versions add --data-file` keep the
	// trailing newline of the source file.
	return strings.TrimSpace(string(data)), nil
}

// Close releases the underlying client, if the Resolver owns one.
func (r *Resolver) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}
