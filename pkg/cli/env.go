package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rolevault/rolevault/pkg/assignments"
	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/config"
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/items"
	"github.com/rolevault/rolevault/pkg/observability"
	"github.com/rolevault/rolevault/pkg/rules"
)

// env bundles the configured stores every subcommand works against
type env struct {
	cfg         *config.Config
	logger      *logrus.Logger
	metrics     *observability.Metrics
	items       items.Storage
	assignments assignments.Storage
	rules       *rules.Store
	trail       audit.Recorder
}

// openEnv builds the store stack from environment configuration. The
// concurrency toggle decides whether subcommands see the plain stores or
// their guarded decorators.
func openEnv() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stderr)

	// Each invocation gets its own registry so repeated construction in one
	// process never double-registers collectors. A nil *Metrics is a no-op
	// everywhere, so the disabled case needs no branching downstream.
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	codec := filestore.NewCodec(filestore.WithLogger(logger), filestore.WithMetrics(metrics))

	var trail audit.Recorder
	if cfg.Audit.Enabled {
		trail, err = audit.NewFileRecorder(audit.FileRecorderConfig{
			Dir:      cfg.Audit.Dir,
			Rotate:   cfg.Audit.Rotate,
			MaxSize:  cfg.Audit.MaxSize,
			MaxFiles: cfg.Audit.MaxFiles,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open audit trail: %w", err)
		}
	}

	ruleOpts := []rules.Option{rules.WithLogger(logger), rules.WithMetrics(metrics)}
	if trail != nil {
		ruleOpts = append(ruleOpts, rules.WithAudit(trail))
	}
	ruleStore, err := rules.NewStore(cfg.Storage.Dir, cfg.Storage.RulesFile, codec, ruleOpts...)
	if err != nil {
		return nil, err
	}

	itemOpts := []items.Option{
		items.WithRules(ruleStore),
		items.WithLogger(logger),
		items.WithMetrics(metrics),
		items.WithClosureCache(cfg.Concurrency.ClosureCacheSize, cfg.Concurrency.ClosureCacheTTL),
	}
	if trail != nil {
		itemOpts = append(itemOpts, items.WithAudit(trail))
	}
	itemStore, err := items.NewStore(cfg.Storage.Dir, cfg.Storage.ItemsFile, codec, itemOpts...)
	if err != nil {
		return nil, err
	}

	assignOpts := []assignments.Option{assignments.WithLogger(logger), assignments.WithMetrics(metrics)}
	if trail != nil {
		assignOpts = append(assignOpts, assignments.WithAudit(trail))
	}
	assignStore, err := assignments.NewStore(cfg.Storage.Dir, cfg.Storage.AssignmentsFile, codec, assignOpts...)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		items:       itemStore,
		assignments: assignStore,
		rules:       ruleStore,
		trail:       trail,
	}
	if cfg.Concurrency.Enabled {
		e.items = items.NewConcurrentStore(itemStore, filestore.NewGuard(true))
		e.assignments = assignments.NewConcurrentStore(assignStore, filestore.NewGuard(true))
	}
	return e, nil
}

func (e *env) close() {
	if e.trail != nil {
		if err := e.trail.Close(); err != nil {
			e.logger.WithError(err).Warn("failed to close audit trail")
		}
	}
}
