// Package repository provides database access layer.
package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const livenessQuery = "SELECT 1"

// rowIterator is the subset of *spanner.RowIterator used by the repository.
type rowIterator interface {
	Next() (*spanner.Row, error)
	Stop()
}

// querier runs a read-only statement.
type querier interface {
	query(ctx context.Context, stmt spanner.Statement) rowIterator
}

type clientQuerier struct {
	client *spanner.Client
}

func (q clientQuerier) query(ctx context.Context, stmt spanner.Statement) rowIterator {
	return q.client.Single().Query(ctx, stmt)
}

// Repository provides database access methods.
type Repository struct {
	client     *spanner.Client
	q          querier
	descriptor Descriptor
}

// New opens a Spanner client for the database named by descriptorText,
// scoped to projectID, and verifies it with a liveness query.
func New(ctx context.Context, projectID, descriptorText string, opts ...option.ClientOption) (*Repository, error) {
	descriptor, err := ParseDescriptor(descriptorText)
	if err != nil {
		return nil, err
	}

	client, err := spanner.NewClient(ctx, descriptor.DatabaseName(projectID), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create spanner client: %w", err)
	}

	repo := &Repository{
		client:     client,
		q:          clientQuerier{client: client},
		descriptor: descriptor,
	}

	// Verify connection
	if err := repo.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return repo, nil
}

// Ping checks database connectivity with a trivial query.
func (r *Repository) Ping(ctx context.Context) error {
	iter := r.q.query(ctx, spanner.Statement{SQL: livenessQuery})
	defer iter.Stop()

	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Descriptor returns the parsed connection descriptor.
func (r *Repository) Descriptor() Descriptor {
	return r.descriptor
}

// Close closes the Spanner client and its session pool.
func (r *Repository) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
