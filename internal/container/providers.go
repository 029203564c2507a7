// Package container provides dependency injection and lifecycle management
// for the approval workflow service.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/application/dispatcher"
	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/application/service"
	"github.com/garyjia/approval-workflow/internal/config"
	"github.com/garyjia/approval-workflow/internal/infrastructure/metrics"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/memory"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/approval-workflow/internal/interfaces/http"
	"github.com/garyjia/approval-workflow/pkg/database"
)

// DatabaseBundle holds database-related components.
// DB is nil for the memory driver.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr port.TransactionManager
	Repos          *RepositoryBundle
}

// MetricsBundle holds the Prometheus registry and its exposition handler.
type MetricsBundle struct {
	Registry *prometheus.Registry
	Recorder *metrics.Recorder
	Handler  http.Handler
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Publisher service.EventPublisher
	Logger    *zap.Logger
}

// ProvideDatabase opens the configured store. For sqlite it runs the
// embedded migrations when AutoMigrate is set.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == config.DriverMemory {
		store := memory.New()
		logger.Info("Using in-memory store")
		return &DatabaseBundle{
			TransactionMgr: store,
			Repos: &RepositoryBundle{
				Workflow: store.Workflows(),
				Request:  store.Requests(),
				Action:   store.Actions(),
			},
		}, nil
	}

	db, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := database.NewMigrator(db, logger).Run(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	repos, err := ProvideRepositories(db.DB, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
		Repos:          repos,
	}, nil
}

// ProvideRepositories creates the SQL repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Workflow: repository.NewWorkflowRepository(sqlDB, logger),
		Request:  repository.NewRequestRepository(sqlDB, logger),
		Action:   repository.NewActionRepository(sqlDB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ProvideMetrics registers the approval metrics on a private registry and
// subscribes the recorder to disp. It returns nil when metrics are disabled.
func ProvideMetrics(cfg *config.MetricsConfig, disp dispatcher.Dispatcher) (*MetricsBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("metrics config is required")
	}
	if !cfg.Enabled {
		return nil, nil
	}
	if disp == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	recorder := metrics.NewRecorder(metrics.Config{
		Namespace: cfg.Namespace,
		Registry:  reg,
	})
	recorder.Attach(disp)

	return &MetricsBundle{
		Registry: reg,
		Recorder: recorder,
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, nil
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger.Named("service")}

	return &ServiceBundle{
		Workflow: service.NewWorkflowService(
			deps.Repos.Workflow,
			deps.TxManager,
			deps.Publisher,
			logger,
		),
		Approval: service.NewApprovalService(
			deps.Repos.Workflow,
			deps.Repos.Request,
			deps.Repos.Action,
			deps.Publisher,
			logger,
		),
	}, nil
}

// ProvideWorkflowSeeds loads the seed file and creates its definitions for
// organizations that have none yet. An empty path seeds nothing.
func ProvideWorkflowSeeds(ctx context.Context, path string, workflows service.WorkflowService, logger *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}

	seeds, err := config.LoadWorkflowSeeds(path)
	if err != nil {
		return 0, err
	}

	inputs := make([]service.CreateWorkflowInput, 0, len(seeds))
	for _, seed := range seeds {
		inputs = append(inputs, service.CreateWorkflowInput{
			OrganizationID: seed.OrganizationID,
			Name:           seed.Name,
			EntityType:     seed.EntityType,
			Conditions:     seed.Conditions,
			Steps:          seed.Steps,
			Active:         seed.Active,
		})
	}

	created, err := workflows.SeedDefinitions(ctx, inputs)
	if err != nil {
		return created, fmt.Errorf("failed to seed workflows from %s: %w", path, err)
	}

	logger.Info("Workflow seeds applied",
		zap.String("path", path),
		zap.Int("seeds", len(seeds)),
		zap.Int("created", created),
	)
	return created, nil
}

// ProvideHTTPServer creates the HTTP adapter over the services.
func ProvideHTTPServer(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, services *ServiceBundle,
	metricsBundle *MetricsBundle, logger *zap.Logger, extra ...httpapi.Option) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	var opts []httpapi.Option
	if metricsBundle != nil {
		opts = append(opts, httpapi.WithMetrics(metricsBundle.Recorder, metricsCfg.Path, metricsBundle.Handler))
	}
	opts = append(opts, extra...)

	return httpapi.NewServer(
		httpapi.ServerConfig{
			Address:         cfg.Address(),
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		services.Workflow,
		services.Approval,
		&zapLoggerAdapter{logger: logger.Named("http")},
		opts...,
	), nil
}
