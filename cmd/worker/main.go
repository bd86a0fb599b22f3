package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/capilarmax/clinic-api/internal/config"
	"github.com/capilarmax/clinic-api/internal/email"
	"github.com/capilarmax/clinic-api/internal/service/event"
	"github.com/capilarmax/clinic-api/internal/worker"
	"github.com/capilarmax/clinic-api/pkg/logger"
	"github.com/capilarmax/clinic-api/pkg/messaging/redis"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

func main() {
	var (
		configPath string
		healthAddr string
	)
	cmd := &cobra.Command{
		Use:          "clinic-worker",
		Short:        "Mail signed consent forms to patients",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, healthAddr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yml")
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "address for health and metrics endpoints")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
}

func run(ctx context.Context, cfg *config.Config, healthAddr string) error {
	l := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Redis.URL == "" {
		return errors.New("redis.url must be set for the worker")
	}
	mailCfg := email.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}
	if !mailCfg.Enabled() {
		return errors.New("mail.host and mail.from must be set for the worker")
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, l)
	if err != nil {
		return err
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)
	startHealthServer(healthAddr, reg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer := worker.NewConsentMailer(broker, email.NewService(mailCfg), worker.ConsentMailerConfig{
		Channel:       cfg.Events.ChannelPrefix + string(event.ConsentCompleted),
		RetryAttempts: 3,
		RetryDelay:    5 * time.Second,
	}, l, m)
	return mailer.Start(ctx)
}

func startHealthServer(addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server failed")
		}
	}()
}
