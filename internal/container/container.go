package container

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/application/dispatcher"
	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/application/service"
	"github.com/garyjia/approval-workflow/internal/config"
	"github.com/garyjia/approval-workflow/internal/domain/event"
	"github.com/garyjia/approval-workflow/internal/infrastructure/metrics"
	httpapi "github.com/garyjia/approval-workflow/internal/interfaces/http"
	"github.com/garyjia/approval-workflow/pkg/database"
)

const auditLogSubscriber = "audit-log"

// Container manages all application dependencies and lifecycle.
// Components are initialized in order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db           *database.DB
	txManager    port.TransactionManager
	repositories *RepositoryBundle

	// Application
	dispatcher dispatcher.Dispatcher
	metrics    *MetricsBundle
	services   *ServiceBundle

	// Interfaces
	server *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Workflow port.WorkflowRepository
	Request  port.RequestRepository
	Action   port.ActionRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Workflow service.WorkflowService
	Approval service.ApprovalService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth = httpapi.ComponentHealth

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Event dispatcher and metrics
// 3. Application services
// 4. Workflow seeds
// 5. HTTP server
//
// The server is built but not started; call Server().Start.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	if err := c.initDispatcherAndMetrics(); err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized", zap.Bool("metrics", c.metrics != nil))

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if _, err := ProvideWorkflowSeeds(ctx, c.config.Workflows.SeedFile, c.services.Workflow, c.logger); err != nil {
		return fmt.Errorf("failed to seed workflows: %w", err)
	}

	server, err := ProvideHTTPServer(&c.config.Server, &c.config.Metrics, c.services, c.metrics, c.logger,
		httpapi.WithHealthCheck(c.serveHealth))
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}
	c.server = server

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop http server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.health()
}

// serveHealth backs GET /health. It skips the container lock because Close
// holds it while draining the server, and the components it reads are fixed
// before the server is built.
func (c *Container) serveHealth() (bool, map[string]ComponentHealth) {
	status := c.health()
	return status.Overall, status.Components
}

func (c *Container) health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, healthy bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: message}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db != nil:
		if err := c.db.Ping(); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	case c.txManager != nil:
		set("database", true, "in-memory")
	default:
		set("database", false, "not initialized")
	}

	if c.dispatcher != nil {
		healthy, message := c.dispatcherHealth()
		set("dispatcher", healthy, message)
	} else {
		set("dispatcher", false, "not initialized")
	}

	if c.repositories != nil {
		set("repositories", true, "")
	} else {
		set("repositories", false, "not initialized")
	}

	return status
}

// dispatcherHealth checks that the container's own subscribers are attached
func (c *Container) dispatcherHealth() (bool, string) {
	required := []string{auditLogSubscriber}
	if c.metrics != nil {
		required = append(required, metrics.SubscriberName)
	}

	// Wildcard subscribers are listed under every event type
	attached := make(map[string]bool)
	names := make([]string, 0)
	for _, h := range c.dispatcher.ListHandlers(event.TypeRequestCreated) {
		attached[h.Name] = true
		names = append(names, h.Name)
	}

	var missing []string
	for _, name := range required {
		if !attached[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, "missing subscribers: " + strings.Join(missing, ", ")
	}
	return true, "subscribers: " + strings.Join(names, ", ")
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr
	c.repositories = bundle.Repos
	return nil
}

func (c *Container) initDispatcherAndMetrics() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	bundle, err := ProvideMetrics(&c.config.Metrics, disp)
	if err != nil {
		return err
	}
	c.metrics = bundle

	disp.SubscribeAll(auditLogSubscriber, c.logEvent)
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.txManager,
		Publisher: c.dispatcher,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

// Getters for accessing container components

// TransactionManager returns the transaction manager.
func (c *Container) TransactionManager() port.TransactionManager {
	return c.txManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Metrics returns the metrics bundle, nil when metrics are disabled.
func (c *Container) Metrics() *MetricsBundle {
	return c.metrics
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Server returns the HTTP server.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
