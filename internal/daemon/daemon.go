// Package daemon runs pipewright as a long-lived service: webhook-triggered
// runs, scheduled verification, a status page, and a Prometheus metrics
// endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/pipewright/pipewright/internal/cache"
	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/eventstore"
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/gitops"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/metrics"
	"github.com/pipewright/pipewright/internal/notify"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/queue"
	"github.com/pipewright/pipewright/internal/registry"
	"github.com/pipewright/pipewright/internal/step"
)

// Daemon wires the engine, queue, event store, scheduler, and HTTP server.
type Daemon struct {
	cfg        *config.Config
	store      eventstore.Store
	queue      *queue.RunQueue
	scheduler  *Scheduler
	server     *http.Server
	notifier   *notify.Publisher
	registry   *prom.Registry
	httpErrors *founderrors.HTTPErrorAdapter
}

// New assembles a daemon from configuration.
func New(cfg *config.Config) (*Daemon, error) {
	dataDir := cfg.Daemon.DataDir
	if dataDir == "" {
		dataDir = "./pipewright-data"
	}
	store, err := eventstore.NewSQLiteStore(filepath.Join(dataDir, "runs.db"))
	if err != nil {
		return nil, fmt.Errorf("open run event store: %w", err)
	}

	promRegistry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(promRegistry)

	deps := step.Deps{
		Commands: step.ExecRunner{},
		Checkout: gitops.NewClient(cfg.Repository.URL),
	}
	if cfg.Cache.Enabled {
		cacheStore, err := cache.NewStore(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("open cache store: %w", err)
		}
		deps.Cache = cacheStore
	}
	if cfg.Publish.Enabled {
		deps.Publisher = registry.NewClient(cfg.Publish.RegistryURL)
	}

	emitters := pipeline.MultiEmitter{eventstore.NewRecorder(store)}

	var notifier *notify.Publisher
	if cfg.Daemon.NATSUrl != "" {
		notifier, err = notify.Connect(cfg.Daemon.NATSUrl, cfg.Daemon.NATSSubject)
		if err != nil {
			// The daemon stays useful without the broker.
			slog.Warn("nats connection failed, run notifications disabled",
				logfields.URL(cfg.Daemon.NATSUrl), logfields.Error(err))
		} else {
			emitters = append(emitters, notifier)
		}
	}

	engine := pipeline.New(cfg, deps,
		pipeline.WithRecorder(recorder),
		pipeline.WithEmitter(emitters),
		pipeline.WithWorkspaceBase(filepath.Join(dataDir, "workspaces")),
	)

	runQueue := queue.New(100, 1, engine)

	d := &Daemon{
		cfg:        cfg,
		store:      store,
		queue:      runQueue,
		notifier:   notifier,
		registry:   promRegistry,
		httpErrors: founderrors.NewHTTPErrorAdapter(slog.Default()),
	}
	d.scheduler, err = NewScheduler(cfg, runQueue)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.server = &http.Server{
		Addr:              cfg.Daemon.Listen,
		Handler:           d.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// Run starts all components and blocks until ctx is canceled, then shuts
// down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	d.queue.Start(ctx)
	d.scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("daemon listening", slog.String("addr", d.cfg.Daemon.Listen))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("daemon shutting down")
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", logfields.Error(err))
	}
	if err := d.scheduler.Stop(shutdownCtx); err != nil {
		slog.Warn("scheduler shutdown failed", logfields.Error(err))
	}
	d.queue.Stop(shutdownCtx)
	if d.notifier != nil {
		d.notifier.Close()
	}
	return d.store.Close()
}
