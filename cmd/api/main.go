package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/capilarmax/clinic-api/internal/config"
	"github.com/capilarmax/clinic-api/internal/handler"
	consenthandler "github.com/capilarmax/clinic-api/internal/handler/consent"
	patienthandler "github.com/capilarmax/clinic-api/internal/handler/patient"
	sessionhandler "github.com/capilarmax/clinic-api/internal/handler/session"
	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/internal/repository/memory"
	"github.com/capilarmax/clinic-api/internal/router"
	"github.com/capilarmax/clinic-api/internal/service/access"
	"github.com/capilarmax/clinic-api/internal/service/audit"
	consentService "github.com/capilarmax/clinic-api/internal/service/consent"
	"github.com/capilarmax/clinic-api/internal/service/event"
	patientService "github.com/capilarmax/clinic-api/internal/service/patient"
	sessionService "github.com/capilarmax/clinic-api/internal/service/session"
	"github.com/capilarmax/clinic-api/pkg/auth"
	"github.com/capilarmax/clinic-api/pkg/logger"
	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/messaging/redis"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Capilar Max clinic core service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml")
	root.AddCommand(serveCmd(), usersCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// usersCmd prints the accounts that can be used with POST /api/v1/session.
func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the seeded user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, u := range memory.SeedUsers() {
				scope := "all clinics"
				if !u.IsAllClinics {
					scope = fmt.Sprintf("%v", u.ClinicIDs)
				}
				fmt.Fprintf(out, "%-4s %-20s %-12s %s\n", u.ID, u.Name, u.Role, scope)
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	auditor, err := audit.NewFromConfig(audit.Config{Level: cfg.Audit.Level, OutputPaths: cfg.Audit.Outputs})
	if err != nil {
		return fmt.Errorf("failed to create audit logger: %w", err)
	}
	defer auditor.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	broker, checks, err := newBroker(cfg)
	if err != nil {
		return err
	}
	defer broker.Close()

	// Repositories
	patients := memory.NewPatientStore(cfg.Access.FallbackClinic)
	patients.Load(memory.SeedPatients())
	directory := memory.NewDirectory(memory.SeedUsers(), memory.SeedClinics())

	// Services
	resolver := access.NewResolver(access.Options{ScopeToActiveClinic: cfg.Access.ScopeToActiveClinic})
	events := event.NewPublisher(broker, cfg.Events.ChannelPrefix, m)
	jwtSvc, err := auth.NewJWTService(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		return err
	}
	sessionSvc := sessionService.NewService(directory, resolver, jwtSvc, auditor, cfg.Session.TTL)
	patientSvc := patientService.NewService(patients, directory, resolver, events, auditor, m)
	consentSvc := consentService.NewService(patientSvc, patients, events, auditor, m, cfg.Consent.DraftTTL)

	routerCfg := router.RouterConfig{
		Mode: cfg.Server.Mode,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins: cfg.CORS.AllowOrigins,
			MaxAge:       cfg.CORS.MaxAge,
		},
		Metrics:          m,
		MaxBodySize:      cfg.Server.MaxBodySize,
		MaxSignatureSize: cfg.Server.MaxSignatureSize,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		}
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(sessionSvc),
		handler.NewHandler(reg, checks),
		sessionhandler.NewHandler(sessionSvc),
		patienthandler.NewHandler(patientSvc),
		consenthandler.NewHandler(consentSvc),
		routerCfg,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("mode", gin.Mode()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// newBroker connects to Redis when a URL is configured and falls back to the
// in-process broker otherwise.
func newBroker(cfg *config.Config) (messaging.Broker, map[string]handler.ReadinessCheck, error) {
	checks := map[string]handler.ReadinessCheck{}
	if cfg.Redis.URL == "" {
		log.Warn().Msg("redis.url not set; events stay in process")
		return messaging.NewMemoryBroker(), checks, nil
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Logger)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := broker.(pinger); ok {
		checks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return p.Ping(ctx)
		}
	}
	return broker, checks, nil
}
