package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/emiadi/emiadi/internal/config"
	"github.com/emiadi/emiadi/internal/domain/identity"
	"github.com/emiadi/emiadi/internal/domain/insurance"
	"github.com/emiadi/emiadi/internal/domain/medicalrecord"
	"github.com/emiadi/emiadi/internal/domain/person"
	"github.com/emiadi/emiadi/internal/domain/scheduling"
	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
	"github.com/emiadi/emiadi/internal/platform/db"
	"github.com/emiadi/emiadi/internal/platform/middleware"
)

// seedAppointmentTypes is the default lookup data loaded by the seed command.
var seedAppointmentTypes = []string{"Consultation", "Follow-up", "Referral"}

func main() {
	rootCmd := &cobra.Command{
		Use:   "emiadi-server",
		Short: "Clinic administration API server",
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

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load default appointment types",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			types := scheduling.NewTypeRepoPG(pool)
			for _, name := range seedAppointmentTypes {
				t := &scheduling.AppointmentType{Name: name}
				if err := types.Create(ctx, t); err != nil {
					return fmt.Errorf("seed appointment type %q: %w", name, err)
				}
				fmt.Printf("Seeded appointment type %q (id %d)\n", t.Name, t.ID)
			}
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		// Development only; Validate rejects this outside dev. Tokens do
		// not survive a restart with a generated secret.
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate dev secret")
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn().Msg("JWT_SECRET not set, using a random development secret")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	userRepo := identity.NewUserRepoPG(pool)
	patientRepo := person.NewPatientRepoPG(pool)
	providerRepo := person.NewProviderRepoPG(pool)
	appointmentRepo := scheduling.NewAppointmentRepoPG(pool)
	typeRepo := scheduling.NewTypeRepoPG(pool)
	recordRepo := medicalrecord.NewRepoPG(pool)
	insuranceRepo := insurance.NewRepoPG(pool)
	revocations := auth.NewPGRevocationStore(pool)

	// Services
	identitySvc := identity.NewService(userRepo, revocations, secret, cfg.TokenTTL(), logger)
	personSvc := person.NewService(patientRepo, providerRepo, logger)
	schedulingSvc := scheduling.NewService(appointmentRepo, typeRepo, logger)
	recordSvc := medicalrecord.NewService(recordRepo, appointmentRepo, logger)
	insuranceSvc := insurance.NewService(insuranceRepo, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Handlers
	identityHandler := identity.NewHandler(identitySvc)
	personHandler := person.NewHandler(personSvc)
	schedulingHandler := scheduling.NewHandler(schedulingSvc)
	recordHandler := medicalrecord.NewHandler(recordSvc)
	insuranceHandler := insurance.NewHandler(insuranceSvc)

	// Open routes: registration, login and the health probe.
	public := e.Group("")
	identityHandler.RegisterPublicRoutes(public)
	personHandler.RegisterPublicRoutes(public)
	e.GET("/health", db.HealthHandler(pool))

	// Everything else requires a valid credential.
	api := e.Group("", auth.Middleware(secret, revocations))
	identityHandler.RegisterRoutes(api)
	personHandler.RegisterRoutes(api)
	schedulingHandler.RegisterRoutes(api)
	recordHandler.RegisterRoutes(api)
	insuranceHandler.RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
