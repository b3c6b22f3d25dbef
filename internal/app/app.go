// Package app wires the notification engine from configuration. The
// notifier, jobs and event-worker binaries share this composition root and
// differ only in how they drive it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"outagealert/internal/config"
	"outagealert/internal/db"
	"outagealert/internal/external"
	"outagealert/internal/i18n"
	"outagealert/internal/logging"
	"outagealert/internal/notifications/core"
	"outagealert/internal/notifications/email"
	"outagealert/internal/notifications/push"
	"outagealert/internal/notifications/sms"
	"outagealert/internal/notifications/whatsapp"
	"outagealert/internal/scheduler"
	"outagealert/internal/types"
)

// App holds the wired engine and the resources it owns.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client // nil when REDIS_ADDR is unset

	Outages       *db.OutageRepository
	Users         *db.UserRepository
	Notifications *db.NotificationRepository

	Store        *core.RecordStore
	Renderer     *core.Renderer
	Dispatcher   *core.Dispatcher
	Orchestrator *core.Orchestrator

	Advance *scheduler.AdvanceNoticeService
	Retry   *scheduler.RetryService
	Jobs    *scheduler.JobRunner

	// Prometheus is the registry behind MetricsHandler; nil unless
	// METRICS_BACKEND=prometheus.
	Prometheus *prometheus.Registry
}

// LoadAWSConfig loads the shared AWS configuration for region, pointing every
// client at endpoint when set (LocalStack).
func LoadAWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(endpoint))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	return awsCfg, nil
}

// New connects to Postgres (and Redis when configured) and wires every
// component. Callers must Close the App.
func New(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.Connect(ctx, db.PoolConfig{
		URL:               cfg.Database.URL.Unmask(),
		MaxConns:          int32(cfg.Database.MaxConns),
		MinConns:          int32(cfg.Database.MinConns),
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connection established")

	a := &App{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Outages:       db.NewOutageRepository(pool),
		Users:         db.NewUserRepository(pool),
		Notifications: db.NewNotificationRepository(pool),
	}

	if cfg.Redis.Addr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password.Unmask(),
			DB:       cfg.Redis.DB,
		})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	}

	if err := a.wireEngine(awsCfg); err != nil {
		a.Close()
		return nil, err
	}
	a.wireJobs()
	return a, nil
}

func (a *App) wireEngine(awsCfg aws.Config) error {
	cfg := a.Config
	tlog := logging.Adapt(a.Logger)
	clock := types.RealClock{}

	providers := external.NewClientRegistry(cfg, awsCfg, a.Logger)

	a.Renderer = core.NewRenderer(i18n.NewCatalogue(), nil)
	templates, err := email.NewTemplates(a.Renderer)
	if err != nil {
		return fmt.Errorf("parsing email templates: %w", err)
	}

	registry := core.NewRegistry(
		email.NewChannel(email.ChannelConfig{
			Provider:    providers.Email,
			Templates:   templates,
			FromName:    cfg.Email.FromName,
			FromAddress: cfg.Email.FromAddress,
			Clock:       clock,
			Logger:      tlog.With("channel", "email"),
		}),
		sms.NewChannel(providers.SMS, tlog.With("channel", "sms")),
		whatsapp.NewChannel(providers.WhatsApp, tlog.With("channel", "whatsapp")),
		push.NewChannel(providers.Push, db.NewDeviceTokenRepository(a.Pool), tlog.With("channel", "push")),
	)

	a.Dispatcher = core.NewDispatcher(core.DispatcherConfig{
		Registry:    registry,
		SendTimeout: cfg.Dispatch.SendTimeout,
		Metrics:     a.metrics(awsCfg, tlog),
		Logger:      tlog.With("component", "dispatcher"),
	})
	a.Store = core.NewRecordStore(a.Notifications, clock, tlog.With("component", "record_store"))
	a.Orchestrator = core.NewOrchestrator(core.OrchestratorConfig{
		Resolver: core.NewResolver(a.Users, tlog.With("component", "resolver")),
		Planner: core.NewPlanner(clock, core.PlannerConfig{
			DefaultLead:      cfg.Scheduler.DefaultLeadTime,
			DefaultTolerance: cfg.Scheduler.DefaultLeadTolerance,
			AdvanceTolerance: cfg.Scheduler.AdvanceTolerance,
		}),
		Renderer:   a.Renderer,
		Store:      a.Store,
		Dispatcher: a.Dispatcher,
		Clock:      clock,
		Logger:     tlog.With("component", "orchestrator"),
	})
	return nil
}

func (a *App) metrics(awsCfg aws.Config, tlog types.Logger) core.NotificationMetrics {
	switch a.Config.Observability.MetricsBackend {
	case "cloudwatch":
		return core.NewCloudWatchNotificationMetrics(
			cloudwatch.NewFromConfig(awsCfg),
			a.Config.Observability.MetricNamespace,
			tlog.With("component", "metrics"),
		)
	case "prometheus":
		a.Prometheus = prometheus.NewRegistry()
		a.Prometheus.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return core.NewPrometheusNotificationMetrics(a.Prometheus)
	default:
		return core.NoopMetrics{}
	}
}

func (a *App) wireJobs() {
	sc := a.Config.Scheduler
	jobLogger := a.Logger.With("component", "scheduler")

	a.Advance = scheduler.NewAdvanceNoticeService(a.Outages, a.Orchestrator, sc.AdvanceWindow, jobLogger)
	a.Retry = scheduler.NewRetryService(scheduler.RetryServiceDeps{
		Store:    a.Store,
		Outages:  a.Outages,
		Users:    a.Users,
		Renderer: a.Renderer,
		Sender:   a.Dispatcher,
	}, scheduler.RetryConfig{
		Delay:          sc.RetryDelay,
		MaxAttempts:    sc.MaxRetryAttempts,
		BatchSize:      sc.RetryBatchSize,
		PendingTimeout: sc.RetryDelay + a.Config.Dispatch.SendTimeout,
	}, jobLogger)

	// Redis holds the lease when configured; the job_locks table otherwise.
	var lock scheduler.Locker = db.NewJobLockRepository(a.Pool)
	if a.Redis != nil {
		lock = scheduler.NewRedisLocker(a.Redis)
	}

	a.Jobs = &scheduler.JobRunner{
		Jobs: map[scheduler.TaskType]scheduler.Job{
			scheduler.TaskAdvanceNotice: a.Advance,
			scheduler.TaskRetryFailed:   a.Retry,
		},
		Lock:     lock,
		History:  db.NewJobHistoryRepository(a.Pool),
		WorkerID: fmt.Sprintf("%s-%s", a.Config.Service, uuid.NewString()),
		LockTTL:  sc.LockTTL,
		Logger:   jobLogger,
	}
}

// MetricsHandler serves the Prometheus registry, or nil for other backends.
func (a *App) MetricsHandler() http.Handler {
	if a.Prometheus == nil {
		return nil
	}
	return promhttp.HandlerFor(a.Prometheus, promhttp.HandlerOpts{Registry: a.Prometheus})
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis client", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
