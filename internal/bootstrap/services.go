package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fixpoint/repair-api/config"
	"github.com/fixpoint/repair-api/internal/adapters/mailrelay"
	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data"
	"github.com/fixpoint/repair-api/internal/mail"
	"github.com/fixpoint/repair-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Requests      *service.RequestService
	Employees     *service.EmployeeService
	Notifications *service.NotificationService
	Notifier      *service.NotifierService
	Mailer        *service.MailerService
	Outbox        *service.OutboxService
	Auth          *service.AuthService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB               *sql.DB
	Redis            redis.UniversalClient
	RequestRepo      *data.RequestRepo
	EmployeeRepo     *data.EmployeeRepo
	CustomerRepo     *data.CustomerRepo
	AdminRepo        *data.AdminRepo
	NotificationRepo *data.NotificationRepo
	EmailRepo        *data.EmailRepo
	OutboxRepo       *data.OutboxRepo
	AccountRepo      *data.AccountRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redis redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:               db,
		Redis:            redis,
		RequestRepo:      data.NewRequestRepo(db),
		EmployeeRepo:     data.NewEmployeeRepo(db),
		CustomerRepo:     data.NewCustomerRepo(db),
		AdminRepo:        data.NewAdminRepo(db),
		NotificationRepo: data.NewNotificationRepo(db),
		EmailRepo:        data.NewEmailRepo(db),
		OutboxRepo:       data.NewOutboxRepo(db),
		AccountRepo:      data.NewAccountRepo(db),
	}
}

// newEmailSender picks the outbound transport. Without a configured relay the
// mailer logs deliveries, which is the development default.
//
//nolint:ireturn // transport selection happens at runtime.
func newEmailSender(cfg config.MailRelayConfig, logger *slog.Logger) (core.EmailSender, error) {
	if !cfg.IsEnabled() {
		logger.Info("mail relay disabled, email deliveries will be logged")
		return &mailrelay.LogSender{Logger: logger}, nil
	}

	client, err := mailrelay.NewClient(mailrelay.Config{
		WebhookURL: cfg.WebhookURL,
		From:       cfg.From,
		Timeout:    cfg.Timeout,
		RetryLimit: cfg.RetryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("build mail relay client: %w", err)
	}
	return client, nil
}

func newAuthService(cfg config.AuthConfig, repos *serviceRepositories, logger *slog.Logger) *service.AuthService {
	return BuildAuthService(AuthConfig{
		Auth:        cfg,
		RedisClient: repos.Redis,
		Accounts:    repos.AccountRepo,
		Logger:      logger,
	})
}

// DomainServicesOptions groups inputs for buildDomainServices.
type DomainServicesOptions struct {
	Repos  *serviceRepositories
	Config *config.AppConfig
	Logger *slog.Logger
}

// buildDomainServices wires business services using repositories and adapters.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil {
		return ServiceContainer{}, errors.New("domain services options are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}

	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	requestService := service.NewRequestService(service.RequestServiceOptions{
		Requests:  opts.Repos.RequestRepo,
		Employees: opts.Repos.EmployeeRepo,
		Customers: opts.Repos.CustomerRepo,
		Logger:    svcLogger,
	})

	sender, err := newEmailSender(appCfg.MailRelay, svcLogger)
	if err != nil {
		return ServiceContainer{}, err
	}

	mailerService, err := service.NewMailerService(service.MailerServiceOptions{
		Emails:   opts.Repos.EmailRepo,
		Sender:   sender,
		Renderer: mail.NewRenderer(appCfg.HTTP.BaseURL),
		Config:   appCfg.Mailer,
		Logger:   svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build mailer service: %w", err)
	}

	// The mailer doubles as the notifier's email dispatcher: lifecycle events
	// write email rows and deliver them in the same fan-out pass.
	notifierService := service.NewNotifierService(service.NotifierServiceOptions{
		Notifications: opts.Repos.NotificationRepo,
		Customers:     opts.Repos.CustomerRepo,
		Employees:     opts.Repos.EmployeeRepo,
		Admins:        opts.Repos.AdminRepo,
		Dispatcher:    mailerService,
		Logger:        svcLogger,
	})

	outboxService, err := service.NewOutboxService(service.OutboxServiceOptions{
		Outbox:   opts.Repos.OutboxRepo,
		Notifier: notifierService,
		Config:   appCfg.Outbox,
		Logger:   svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build outbox service: %w", err)
	}

	return ServiceContainer{
		Requests:      requestService,
		Employees:     service.NewEmployeeService(opts.Repos.EmployeeRepo),
		Notifications: service.NewNotificationService(opts.Repos.NotificationRepo),
		Notifier:      notifierService,
		Mailer:        mailerService,
		Outbox:        outboxService,
		Auth:          newAuthService(appCfg.Auth, opts.Repos, svcLogger),
	}, nil
}

// NewServices builds the full service container from shared dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)
	return buildDomainServices(&DomainServicesOptions{
		Repos:  repos,
		Config: deps.Config,
		Logger: logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newOutboxBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeOutbox,
		name: "outbox drainer",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Outbox == nil {
				return nil
			}
			return deps.cfg.Services.Outbox.Run(ctx)
		},
	}
}

func newMailerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeMailer,
		name: "mailer retry sweep",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Mailer == nil {
				return nil
			}
			return deps.cfg.Services.Mailer.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newOutboxBackgroundService(deps),
		newMailerBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		// Create a timeout context for HTTP shutdown
		shutdownCtx, cancel := context.WithTimeout(cfg.ctx, shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
