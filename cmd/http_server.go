package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/activity"
	activitypostgres "github.com/frahmantamala/leave-management/internal/activity/postgres"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
	leavepostgres "github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/metrics"
	"github.com/frahmantamala/leave-management/internal/notification"
	notificationpostgres "github.com/frahmantamala/leave-management/internal/notification/postgres"
	"github.com/frahmantamala/leave-management/internal/report"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/frahmantamala/leave-management/internal/user"
	userpostgres "github.com/frahmantamala/leave-management/internal/user/postgres"
	"github.com/frahmantamala/leave-management/internal/webhook"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	GormDB   *gorm.DB
	DB       *sqlx.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Webhook  *webhook.Client
	Metrics  *metrics.Service
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr, "env", deps.Config.Env)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	deps.Logger.Info("server stopped")
}

// Close drains pending side effects before releasing the database.
func (d *Dependencies) Close() {
	d.EventBus.Wait()
	if d.Webhook != nil {
		d.Webhook.Shutdown()
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.GormDB

	location, err := cfg.Leave.Location()
	if err != nil {
		return err
	}
	holidays, err := holidayCalendar(cfg.Leave)
	if err != nil {
		return err
	}

	userRepo := userpostgres.NewUserRepository(db)
	leaveRepo := leavepostgres.NewLeaveRepository(db)
	notificationRepo := notificationpostgres.NewNotificationRepository(db)
	activityRepo := activitypostgres.NewActivityRepository(db)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(userRepo, tokenGen, cfg.Security.BCryptCost, lg)
	userService := user.NewService(userRepo, authService, deps.EventBus, cfg.Leave.Allowance(), lg)

	var leaveOpts []leave.ServiceOption
	if deps.Metrics != nil {
		leaveOpts = append(leaveOpts, leave.WithRecorder(deps.Metrics))
	}
	validator := leave.NewValidator(calendar.NewCounter(holidays, cfg.Leave.ExcludeHolidays), calendar.SystemClock{}, location)
	leaveService := leave.NewService(leaveRepo, validator, deps.EventBus, lg, leaveOpts...)

	var notificationService *notification.Service
	if deps.Webhook != nil {
		notificationService = notification.NewService(notificationRepo, deps.Webhook, lg)
	} else {
		notificationService = notification.NewService(notificationRepo, nil, lg)
	}
	notification.NewEventHandler(notificationService, lg).RegisterEventHandlers(deps.EventBus)

	activityService := activity.NewService(activityRepo, map[activity.TargetType]activity.Resolver{
		activity.TargetLeave: activitypostgres.NewLeaveResolver(db),
		activity.TargetUser:  activitypostgres.NewUserResolver(db),
	}, lg)
	activity.NewEventHandler(activityService, lg).RegisterEventHandlers(deps.EventBus)

	reportService := report.NewService(deps.DB)

	opts := rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPISpec:    cfg.Server.OpenAPISpec,
		Metrics:        deps.Metrics,
		MetricsPath:    cfg.Observability.Metrics.Path,
	}
	if cfg.Server.ValidateRequests {
		v, err := middleware.NewRequestValidator(cfg.Server.OpenAPISpec, rest.APIPrefix, lg)
		if err != nil {
			return fmt.Errorf("failed to load openapi spec: %w", err)
		}
		opts.Validator = v
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, rest.Handlers{
		Auth:         auth.NewHandler(authService),
		User:         user.NewHandler(userService),
		Leave:        leave.NewHandler(leaveService),
		Notification: notification.NewHandler(notificationService),
		Activity:     activity.NewHandler(activityService),
		Report:       report.NewHandler(reportService),
	}, opts, lg)

	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	gormDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		GormDB:   gormDB,
		DB:       db,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
		Logger:   lg,
	}

	if config.Observability.Metrics.Enabled {
		deps.Metrics = metrics.NewService()
	}

	if config.Notification.WebhookURL != "" {
		deps.Webhook = webhook.NewClient(webhook.Config{
			URL:          config.Notification.WebhookURL,
			Timeout:      config.Notification.Timeout,
			MaxWorkers:   config.Notification.MaxWorkers,
			JobQueueSize: config.Notification.JobQueueSize,
		}, lg)
		lg.Info("notification webhook enabled",
			"max_workers", config.Notification.MaxWorkers,
			"job_queue_size", config.Notification.JobQueueSize)
	}

	return deps, nil
}

// initDB opens the gorm connection and shares its pool with sqlx for the
// read-only report queries.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	var (
		dialector  gorm.Dialector
		sqlxDriver string
	)
	switch cfg.DriverName() {
	case "sqlite":
		dialector = sqlite.Open(cfg.Source)
		sqlxDriver = "sqlite3"
	default:
		dialector = postgres.Open(cfg.Source)
		sqlxDriver = "pgx"
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := pingDB(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, sqlxDriver), nil
}

func pingDB(db *sql.DB) error {
	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func holidayCalendar(cfg internal.LeaveConfig) (*calendar.HolidayCalendar, error) {
	extra := make([]calendar.Holiday, 0, len(cfg.ExtraHolidays))
	for _, s := range cfg.ExtraHolidays {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid extra holiday %q: %w", s, err)
		}
		extra = append(extra, calendar.Holiday{Date: d})
	}
	return calendar.NewHolidayCalendar(extra...), nil
}
