package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/swasthya/setu/internal/config"
	"github.com/swasthya/setu/internal/domain/directory"
	"github.com/swasthya/setu/internal/domain/emergency"
	"github.com/swasthya/setu/internal/domain/identity"
	"github.com/swasthya/setu/internal/domain/notification"
	"github.com/swasthya/setu/internal/domain/records"
	"github.com/swasthya/setu/internal/domain/scheduling"
	"github.com/swasthya/setu/internal/jobs"
	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/internal/platform/db"
	"github.com/swasthya/setu/internal/platform/middleware"
	"github.com/swasthya/setu/internal/platform/websocket"
	"github.com/swasthya/setu/internal/seed"
)

const version = "0.1.0"

// Everything but report uploads is small JSON.
const defaultBodyLimit = 1 << 20

func main() {
	rootCmd := &cobra.Command{
		Use:   "setu-server",
		Short: "Swasthya Setu telehealth API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, dir).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, dir).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(os.Stdout, statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo directory, accounts and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				setupLogger(cfg.Env)
				dirSvc := directory.NewService(directory.NewRepoPG(pool))
				recordsSvc := records.NewService(
					records.NewMedicationRepoPG(pool),
					records.NewEventRepoPG(pool),
					records.NewReportRepoPG(pool),
					cfg.MaxReportBytes,
				)
				seeder := seed.NewSeeder(
					dirSvc,
					identity.NewUserRepoPG(pool),
					recordsSvc,
					scheduling.NewAppointmentRepoPG(pool),
					notification.NewRepoPG(pool),
					db.NewTxRunner(pool),
				)
				res, err := seeder.Run(ctx)
				if err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}
				fmt.Printf("Seeded %d doctor(s), %d user(s), %d appointment(s), %d report(s).\n",
					res.Doctors, res.Users, res.Appointments, res.Reports)
				return nil
			})
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := setupLogger(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	e := newEcho(cfg, logger)
	e.GET("/health/db", db.PoolHealthHandler(pool))
	api := apiGroup(e, cfg, tokens)

	tx := db.NewTxRunner(pool)
	var sched *scheduling.Service
	hub := websocket.NewHub(websocket.NewTopicGuard(func(ctx context.Context, userID, role, appointmentID string) bool {
		return sched.IsParticipant(ctx, userID, role, appointmentID)
	}))

	dirSvc := directory.NewService(directory.NewRepoPG(pool))
	recordsSvc := records.NewService(
		records.NewMedicationRepoPG(pool),
		records.NewEventRepoPG(pool),
		records.NewReportRepoPG(pool),
		cfg.MaxReportBytes,
	)
	notifSvc := notification.NewService(notification.NewRepoPG(pool), hub)
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool), dirSvc, recordsSvc, tokens, tx)
	sched = scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		dirSvc, identitySvc, recordsSvc, notifSvc, hub, tx,
	)

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	dirHandler := directory.NewHandler(dirSvc)
	dirHandler.RegisterRoutes(api)
	if cfg.IsDev() {
		dirHandler.RegisterDevRoutes(api)
	}
	scheduling.NewHandler(sched).RegisterRoutes(api)
	records.NewHandler(recordsSvc).RegisterRoutes(api)
	notification.NewHandler(notifSvc).RegisterRoutes(api)
	emergency.NewHandler(emergency.NewStore(cfg.SOSCountdown), identitySvc).RegisterRoutes(api)
	websocket.NewWebSocketHandler(hub, cfg.CORSOrigins).RegisterRoutes(api)

	runner := jobs.NewRunner(time.Local)
	if err := runner.ScheduleMedicationReset(cfg.MedicationResetAt, recordsSvc); err != nil {
		return err
	}
	runner.Start()
	defer runner.Stop()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// setupLogger writes JSON to stdout, or a console format in development,
// and installs the result as the global logger.
func setupLogger(env string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	log.Logger = logger
	return logger
}

// newEcho builds the server with the global middleware chain and the
// process health check.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(defaultBodyLimit, uploadLimit(cfg.MaxReportBytes), "/api/reports"))

	health := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	}
	e.GET("/health", health)
	e.GET("/api/health", health)
	return e
}

// apiGroup mounts /api behind session auth and rate limiting. Development
// accepts anonymous requests as an admin.
func apiGroup(e *echo.Echo, cfg *config.Config, tokens *auth.TokenIssuer) *echo.Group {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}

	jwtCfg := tokens.Config()
	jwtCfg.Skipper = auth.AuthSkipper

	api := e.Group("/api")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		api.Use(auth.JWTMiddleware(jwtCfg))
	}
	// After auth so signed-in users get their own bucket.
	api.Use(middleware.RateLimit(rl))
	return api
}

// uploadLimit leaves room for base64 expansion and the JSON envelope
// around a report of maxReportBytes.
func uploadLimit(maxReportBytes int) int64 {
	return int64(maxReportBytes)/3*4 + 64<<10
}

// withPool opens a pool for one CLI command.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
