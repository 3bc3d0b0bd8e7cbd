package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/api/option"

	"github.com/ramzan118/gke-node-backend/internal/metrics"
	"github.com/ramzan118/gke-node-backend/internal/repository"
	"github.com/ramzan118/gke-node-backend/internal/secret"
)

// Phase names reported to metrics and logs.
const (
	PhaseSecret  = "secret"
	PhaseConnect = "connect"
)

// ErrClosed is returned by Run when Close was called before the database
// connection was published.
var ErrClosed = errors.New("initializer closed")

// SecretResolver returns the text payload of a secret.
type SecretResolver interface {
	Resolve(ctx context.Context, projectID, secretID string) (string, error)
}

// Database is a connected store that can be closed on shutdown.
type Database interface {
	repository.Store
	Close()
}

// Connector opens a Database from a connection descriptor.
type Connector interface {
	Connect(ctx context.Context, projectID, descriptor string) (Database, error)
}

// Initializer wires the secret resolver, the connector and the handle.
type Initializer struct {
	ProjectID string
	SecretID  string
	Resolver  SecretResolver
	Connector Connector
	Handle    *repository.Handle
	Recorder  metrics.Recorder
	Logger    *slog.Logger
	// Timeout bounds the whole sequence. Zero means no deadline.
	Timeout time.Duration

	mu     sync.Mutex
	db     Database
	closed bool
}

// Run performs initialization once. It is safe to use as a server.StartTask.
func (i *Initializer) Run(ctx context.Context) error {
	if i.ProjectID == "" {
		return secret.ErrMissingProject
	}
	if i.SecretID == "" {
		return secret.ErrMissingSecret
	}

	if i.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	var descriptorText string
	err := i.phase(PhaseSecret, func() error {
		var err error
		descriptorText, err = i.Resolver.Resolve(ctx, i.ProjectID, i.SecretID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to resolve connection descriptor: %w", err)
	}

	descriptor, err := repository.ParseDescriptor(descriptorText)
	if err != nil {
		i.Recorder.ObserveInitPhase(PhaseConnect, metrics.StatusError, 0)
		return err
	}
	i.Logger.Info("retrieved spanner connection descriptor",
		slog.String("instance", descriptor.InstanceID),
		slog.String("database", descriptor.DatabaseID),
	)

	var db Database
	err = i.phase(PhaseConnect, func() error {
		var err error
		db, err = i.Connector.Connect(ctx, i.ProjectID, descriptorText)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to spanner: %w", err)
	}

	// Shutdown may have started while Connect was in flight. The connection
	// is then released here since Close has already run.
	i.mu.Lock()
	defer i.mu.Unlock()
	if ctxErr := ctx.Err(); i.closed || ctxErr != nil {
		db.Close()
		if ctxErr != nil {
			return fmt.Errorf("initialization abandoned: %w", ctxErr)
		}
		return ErrClosed
	}
	i.db = db

	if err := i.Handle.Set(db); err != nil {
		return err
	}
	i.Recorder.SetDatabaseReady(true)
	i.Logger.Info("successfully connected to spanner")

	return nil
}

func (i *Initializer) phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	i.Recorder.ObserveInitPhase(name, status, time.Since(start))
	i.Logger.Debug("init phase finished",
		slog.String("phase", name),
		slog.String("status", status),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return err
}

// Close releases the database, if one was opened. A Run still in progress
// releases its connection itself. Matches server.ShutdownFunc.
func (i *Initializer) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	if i.db != nil {
		i.db.Close()
		i.db = nil
	}
	return nil
}

// ManagedSecrets resolves secrets with a Secret Manager client opened for the
// lookup and closed afterwards.
type ManagedSecrets struct {
	Options []option.ClientOption
}

// Resolve implements SecretResolver.
func (m ManagedSecrets) Resolve(ctx context.Context, projectID, secretID string) (string, error) {
	r, err := secret.New(ctx, m.Options...)
	if err != nil {
		return "", err
	}

	defer r.Close()

	return r.Resolve(ctx, projectID, secretID)
}

// SpannerConnector opens repositories backed by Cloud Spanner.
type SpannerConnector struct {
	Options []option.ClientOption
}

// Connect implements Connector.
func (c SpannerConnector) Connect(ctx context.Context, projectID, descriptor string) (Database, error) {
	repo, err := repository.New(ctx, projectID, descriptor, c.Options...)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
