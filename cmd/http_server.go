package cmd

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

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/audit"
	auditPostgres "github.com/frahmantamala/digital-notary/internal/audit/postgres"
	"github.com/frahmantamala/digital-notary/internal/auth"
	"github.com/frahmantamala/digital-notary/internal/company"
	companyPostgres "github.com/frahmantamala/digital-notary/internal/company/postgres"
	"github.com/frahmantamala/digital-notary/internal/contract"
	contractPostgres "github.com/frahmantamala/digital-notary/internal/contract/postgres"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	mandatePostgres "github.com/frahmantamala/digital-notary/internal/mandate/postgres"
	"github.com/frahmantamala/digital-notary/internal/office"
	officePostgres "github.com/frahmantamala/digital-notary/internal/office/postgres"
	"github.com/frahmantamala/digital-notary/internal/seed"
	"github.com/frahmantamala/digital-notary/internal/transport/middleware"
	"github.com/frahmantamala/digital-notary/internal/transport/rest"
	"github.com/frahmantamala/digital-notary/internal/transport/swagger"
	"github.com/frahmantamala/digital-notary/internal/user"
	userPostgres "github.com/frahmantamala/digital-notary/internal/user/postgres"
	"github.com/frahmantamala/digital-notary/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
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
	Config   *internal.Config
	DB       *gorm.DB
	SQL      *sql.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Warn("Pending event deliveries dropped", "error", err)
		}
		if err := deps.SQL.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.DB

	users := user.NewService(userPostgres.NewUserRepository(db), lg)
	companyRepo := companyPostgres.NewCompanyRepository(db)
	mandates := mandate.NewService(mandatePostgres.NewMandateRepository(db), companyRepo, users, deps.EventBus, lg,
		mandate.WithValidityEnforcement(cfg.Security.EnforceMandateValidity))

	audits := audit.NewService(auditPostgres.NewAuditRepository(sqlx.NewDb(deps.SQL, sqlxDriver(cfg.Database.Driver))), lg)
	audit.NewEventHandler(audits, lg).RegisterEventHandlers(deps.EventBus)

	companies := company.NewService(companyRepo, company.NewMockRegistry(), mandates, audits, deps.EventBus, lg)

	contractRepo := contractPostgres.NewContractRepository(db)
	contracts := contract.NewService(contractRepo, deps.EventBus, lg)
	offices := office.NewService(officePostgres.NewOfficeRepository(db), users, contractRepo, companyRepo, mandates, deps.EventBus, lg)
	contracts.SetSharedAccess(offices)

	tokens := auth.NewJWTTokenGenerator(cfg.Security.SessionSecret, cfg.Security.SessionDuration)
	authService := auth.NewService(users, mandates, tokens, lg)

	var metrics *middleware.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = middleware.NewMetrics()
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:     auth.NewHandler(authService, cfg.Security.CookieSecure),
		Company:  company.NewHandler(companies),
		Mandate:  mandate.NewHandler(mandates),
		Contract: contract.NewHandler(contracts),
		Office:   office.NewHandler(offices),
		Seed:     seed.NewHandler(seed.NewService(db, lg), cfg.Security.AllowDataReset),
	}, rest.Options{
		DB:          deps.SQL,
		Driver:      cfg.Database.Driver,
		Origins:     cfg.Server.Origins(),
		RateLimiter: middleware.NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst),
		Metrics:     metrics,
		MetricsPath: cfg.Observability.Metrics.Path,
	}, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, err
	}

	db, err := database.Open(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if config.Database.SeedOnStart {
		if err := seed.Reset(context.Background(), db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		lg.Info("demo data loaded")
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		SQL:      sqlDB,
		Router:   chi.NewRouter(),
		EventBus: events.NewEventBus(lg),
		Logger:   lg,
	}, nil
}

// sqlxDriver names the driver sqlx uses to pick its bind style.
func sqlxDriver(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}
