package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/admin"
	adminpg "github.com/helpdeskhq/helpdesk-portal/internal/admin/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/auth"
	"github.com/helpdeskhq/helpdesk-portal/internal/core/events"
	"github.com/helpdeskhq/helpdesk-portal/internal/equipment"
	equipmentpg "github.com/helpdeskhq/helpdesk-portal/internal/equipment/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/news"
	newspg "github.com/helpdeskhq/helpdesk-portal/internal/news/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/notification"
	notificationpg "github.com/helpdeskhq/helpdesk-portal/internal/notification/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/realtime"
	"github.com/helpdeskhq/helpdesk-portal/internal/request"
	requestpg "github.com/helpdeskhq/helpdesk-portal/internal/request/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/software"
	softwarepg "github.com/helpdeskhq/helpdesk-portal/internal/software/postgres"
	"github.com/helpdeskhq/helpdesk-portal/internal/telegram"
	"github.com/helpdeskhq/helpdesk-portal/internal/transport/rest"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
	userpg "github.com/helpdeskhq/helpdesk-portal/internal/user/postgres"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
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
	Config    *internal.Config
	DB        *gorm.DB
	Router    *chi.Mux
	Hub       *realtime.Hub
	LogStream *realtime.LogStream
	Bus       *events.EventBus
	Logger    *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

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
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Hub.Close()
		deps.LogStream.Close()
		if sqlDB, err := deps.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				deps.Logger.Error("database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Observability.Logging.Format == "json" {
		logger.Init("production")
	} else {
		logger.Init("development")
	}
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap database handle: %w", err)
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	bus := events.NewEventBus(log)
	policy := auth.DefaultPolicy()

	// Repositories.
	userRepo := userpg.NewUserRepository(db)
	requestRepo := requestpg.NewRequestRepository(db)
	equipmentRepo := equipmentpg.NewEquipmentRepository(db)
	softwareRepo := softwarepg.NewSoftwareRepository(db)
	newsRepo := newspg.NewNewsRepository(db)
	notificationRepo := notificationpg.NewNotificationRepository(db)
	auditRepo := adminpg.NewAuditLogRepository(db)
	adminRepo := adminpg.NewAdminRepository(db)

	// Realtime fan-out targets and the telegram relay.
	hub := realtime.NewHub(log)
	logStream := realtime.NewLogStream(log)
	tgClient := telegram.NewClient(cfg.Telegram, userRepo, log)

	// Services.
	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenDuration)
	authSvc := auth.NewService(userRepo, tokenGen, log)
	userSvc := user.NewService(userRepo, bus, cfg.Security.BCryptCost, log)
	auditLogger := admin.NewAuditLogger(auditRepo, log)
	notificationSvc := notification.NewService(notificationRepo, userRepo, hub, tgClient, log)
	requestSvc := request.NewService(requestRepo, userRepo, bus, log)
	equipmentSvc := equipment.NewService(equipmentRepo, notificationSvc, tgClient, auditLogger, cfg.Security.BCryptCost, log)
	softwareSvc := software.NewService(softwareRepo, notificationSvc, log)
	newsSvc := news.NewService(newsRepo, notificationSvc, log)
	adminSvc := admin.NewService(adminRepo, auditRepo, log)

	// Domain events drive every side-effect channel from one place.
	subscriber := notification.NewSubscriber(notificationSvc, tgClient, tgClient, logStream, userRepo, auditLogger, log)
	subscriber.Register(bus)

	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authSvc, cfg.Security.TokenDuration),
		Guard:        auth.NewGuard(policy, log),
		User:         user.NewHandler(userSvc),
		Equipment:    equipment.NewHandler(equipmentSvc),
		Software:     software.NewHandler(softwareSvc),
		News:         news.NewHandler(newsSvc),
		Request:      request.NewHandler(requestSvc, cfg.Uploads),
		Notification: notification.NewHandler(notificationSvc),
		Admin:        admin.NewHandler(adminSvc),
		Realtime:     realtime.NewHandler(hub, logStream, authSvc, policy),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlx.NewDb(sqlDB, "pgx"), cfg, handlers, log)

	return &Dependencies{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Hub:       hub,
		LogStream: logStream,
		Bus:       bus,
		Logger:    log,
	}, nil
}

// initDB opens the database connection and configures the pool.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap db connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
