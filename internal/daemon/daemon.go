// Package daemon wires the orchestrator's components together and manages
// their lifecycle: the document database client, the manuscript service, the
// NLP extraction service, events, auditing, archiving, the scheduler, and the
// HTTP servers.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/revlogica/orchestrator/internal/archive"
	"github.com/revlogica/orchestrator/internal/audit"
	"github.com/revlogica/orchestrator/internal/config"
	"github.com/revlogica/orchestrator/internal/events"
	"github.com/revlogica/orchestrator/internal/existdb"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
	"github.com/revlogica/orchestrator/internal/manuscript"
	"github.com/revlogica/orchestrator/internal/metrics"
	"github.com/revlogica/orchestrator/internal/nlp"
	"github.com/revlogica/orchestrator/internal/retry"
	"github.com/revlogica/orchestrator/internal/server/handlers"
	"github.com/revlogica/orchestrator/internal/server/httpserver"
	smw "github.com/revlogica/orchestrator/internal/server/middleware"
	"github.com/revlogica/orchestrator/internal/server/responses"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon is the main service. It owns every component and coordinates
// startup, reload, and shutdown.
type Daemon struct {
	config         *config.Config
	configFilePath string
	status         atomic.Value // Status
	startTime      time.Time
	mu             sync.RWMutex

	// Core components
	recorder      *metrics.PrometheusRecorder
	existClient   *existdb.Client
	manuscripts   *manuscript.Service
	nlpService    *nlp.Service
	eventsClient  *events.Client
	auditStore    audit.Store
	archiver      *archive.Archiver
	scheduler     *Scheduler
	configWatcher *ConfigWatcher
	httpServer    *httpserver.Server

	// Health probe state
	existHealthy atomic.Bool
	lastProbe    atomic.Value // time.Time
}

// New creates a daemon and wires all components from configuration.
func New(cfg *config.Config, configFilePath string) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{
		config:         cfg,
		configFilePath: configFilePath,
	}
	d.status.Store(StatusStopped)
	d.lastProbe.Store(time.Time{})

	registry := metrics.NewRegistry()
	d.recorder = metrics.NewPrometheusRecorder(registry)

	policy := retry.FromConfig(cfg.Retry)
	d.existClient = existdb.New(cfg.ExistDB, policy).WithRecorder(d.recorder)

	// Audit trail
	store, err := audit.NewSQLiteStore(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}
	d.auditStore = store
	sinks := []manuscript.EventSink{audit.NewRecorder(store)}

	// Events (optional)
	if cfg.Events.Enabled {
		client, err := events.Connect(cfg.Events)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect event publisher: %w", err)
		}
		d.eventsClient = client.WithRecorder(d.recorder)
		sinks = append(sinks, d.eventsClient)
	}

	d.manuscripts = manuscript.NewService(d.existClient).
		WithEventSink(manuscript.FanOut(sinks...))

	// NLP extraction with optional JetStream KV cache
	nlpClient := nlp.NewClient(cfg.NLP, policy).WithRecorder(d.recorder)
	d.nlpService = nlp.NewService(d.manuscripts, nlpClient)
	if d.eventsClient != nil {
		d.nlpService = d.nlpService.WithCache(d.eventsClient)
	}

	// Archive (optional)
	if cfg.Archive.Enabled {
		d.archiver = archive.New(cfg.Archive, d.manuscripts).WithRecorder(d.recorder)
	}

	d.scheduler, err = NewScheduler()
	if err != nil {
		_ = d.closeStores()
		return nil, err
	}

	// HTTP servers
	chain := smw.Chain(slog.Default(), ferrors.NewHTTPErrorAdapter(slog.Default()),
		d.recorder, cfg.Server.AllowedOrigins)
	var archiveTrigger handlers.ArchiveTrigger
	if d.archiver != nil {
		archiveTrigger = d.archiver
	}
	d.httpServer = httpserver.New(cfg, httpserver.Options{
		Manuscripts:    handlers.NewManuscriptHandlers(d.manuscripts),
		NLP:            handlers.NewNLPHandlers(d.nlpService),
		Monitoring:     handlers.NewMonitoringHandlers(d),
		Admin:          handlers.NewAdminHandlers(d.auditStore, archiveTrigger),
		MetricsHandler: metrics.HTTPHandler(registry),
		Chain:          chain,
	})

	// Config watcher (only when started from a config file)
	if configFilePath != "" {
		d.configWatcher, err = NewConfigWatcher(configFilePath, d)
		if err != nil {
			_ = d.closeStores()
			return nil, err
		}
	}

	return d, nil
}

// Start brings the daemon up: initial health probe, scheduled jobs, config
// watcher, and HTTP servers.
func (d *Daemon) Start(ctx context.Context) error {
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	// Initial probe so readiness reflects reality immediately.
	d.probeExistDB(ctx)

	if _, err := d.scheduler.SchedulePeriodic("existdb-health-probe",
		d.config.Health.ProbeInterval, func() {
			probeCtx, cancel := context.WithTimeout(context.Background(), d.config.ExistDB.Timeout)
			defer cancel()
			d.probeExistDB(probeCtx)
		}); err != nil {
		d.status.Store(StatusError)
		return err
	}

	if d.archiver != nil {
		if _, err := d.scheduler.SchedulePeriodic("archive-snapshot",
			d.config.Archive.Interval, func() {
				snapCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if err := d.archiver.Snapshot(snapCtx); err != nil {
					slog.Error("Scheduled archive snapshot failed", logfields.Error(err))
				}
			}); err != nil {
			d.status.Store(StatusError)
			return err
		}
	}
	d.scheduler.Start(ctx)

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			d.status.Store(StatusError)
			return err
		}
	}

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		return err
	}

	d.status.Store(StatusRunning)
	slog.Info("Daemon started",
		slog.Int("api_port", d.config.Server.Port),
		slog.Int("admin_port", d.config.Server.AdminPort),
		logfields.URL(d.config.ExistDB.URL))
	return nil
}

// Stop shuts the daemon down in reverse startup order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.status.Store(StatusStopping)

	var errs []error
	if d.httpServer != nil {
		if err := d.httpServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.closeStores(); err != nil {
		errs = append(errs, err)
	}

	d.status.Store(StatusStopped)
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	slog.Info("Daemon stopped")
	return nil
}

func (d *Daemon) closeStores() error {
	var errs []error
	if d.eventsClient != nil {
		if err := d.eventsClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.auditStore != nil {
		if err := d.auditStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("store close errors: %v", errs)
	}
	return nil
}

// probeExistDB pings the document database and records the outcome.
func (d *Daemon) probeExistDB(ctx context.Context) {
	err := d.existClient.Ping(ctx)
	d.existHealthy.Store(err == nil)
	d.lastProbe.Store(time.Now().UTC())
	if err != nil {
		slog.Warn("Document database health probe failed", logfields.Error(err))
	}
}

// ReloadConfig applies a changed configuration. Settings that require a
// rebind (ports) or a reconnect (database, NATS) only take effect after a
// restart; a warning is logged when they differ.
func (d *Daemon) ReloadConfig(ctx context.Context, newConfig *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.config
	if newConfig.Server.Port != current.Server.Port ||
		newConfig.Server.AdminPort != current.Server.AdminPort {
		slog.Warn("HTTP port changes detected - restart required for full effect")
	}
	if newConfig.ExistDB != current.ExistDB {
		slog.Warn("Document database settings changed - restart required for full effect")
	}
	if newConfig.Events != current.Events {
		slog.Warn("Event settings changed - restart required for full effect")
	}

	d.config = newConfig
	return nil
}

// GetStatus returns the daemon status string.
func (d *Daemon) GetStatus() string {
	return string(d.status.Load().(Status))
}

// GetStartTime returns when the daemon was started.
func (d *Daemon) GetStartTime() time.Time { return d.startTime }

// ExistDBHealthy reports the last probe outcome.
func (d *Daemon) ExistDBHealthy() bool { return d.existHealthy.Load() }

// LastProbeTime returns when the document database was last probed.
func (d *Daemon) LastProbeTime() time.Time {
	t, _ := d.lastProbe.Load().(time.Time)
	return t
}

// EventsEnabled reports whether event publishing is active.
func (d *Daemon) EventsEnabled() bool { return d.eventsClient != nil }

// ArchiveEnabled reports whether periodic archiving is active.
func (d *Daemon) ArchiveEnabled() bool { return d.archiver != nil }

// ConfigSummary returns a sanitized view of the running configuration.
func (d *Daemon) ConfigSummary() responses.ConfigSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cfg := d.config
	return responses.ConfigSummary{
		Port:           cfg.Server.Port,
		AdminPort:      cfg.Server.AdminPort,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ExistDBURL:     cfg.ExistDB.URL,
		ExistDBUser:    cfg.ExistDB.User,
		NLPURL:         cfg.NLP.URL,
		EventsEnabled:  cfg.Events.Enabled,
		EventsSubject:  cfg.Events.Subject,
		ArchiveEnabled: cfg.Archive.Enabled,
		ArchiveDir:     cfg.Archive.Directory,
		FusekiURL:      cfg.Services.FusekiURL,
		ElasticURL:     cfg.Services.ElasticsearchURL,
		LogLevel:       cfg.Logging.Level,
	}
}

var _ handlers.DaemonInterface = (*Daemon)(nil)
