package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/capilarmax/clinic-api/internal/email"
	"github.com/capilarmax/clinic-api/internal/service/event"
	"github.com/capilarmax/clinic-api/internal/service/export"
	"github.com/capilarmax/clinic-api/pkg/messaging"
	"github.com/capilarmax/clinic-api/pkg/metrics"
)

var ErrNoRecipient = errors.New("patient has no email address")

type ConsentMailerConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// ConsentMailer sends every patient a PDF copy of the consent form they
// signed, as announced on the consent.completed channel.
type ConsentMailer struct {
	broker  messaging.Broker
	mailer  email.Service
	config  ConsentMailerConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewConsentMailer(
	broker messaging.Broker,
	mailer email.Service,
	config ConsentMailerConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *ConsentMailer {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	return &ConsentMailer{
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger.With().Str("component", "consent-mailer").Logger(),
		metrics: m,
	}
}

// Start consumes messages until ctx is cancelled or the subscription closes.
func (w *ConsentMailer) Start(ctx context.Context) error {
	messages, err := w.broker.Subscribe(ctx, w.config.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	w.logger.Info().Str("channel", w.config.Channel).Msg("Starting consent mailer")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down consent mailer")
			return nil
		case data, ok := <-messages:
			if !ok {
				w.logger.Warn().Msg("Subscription closed")
				return nil
			}
			if err := w.Handle(ctx, data); err != nil {
				w.logger.Error().Err(err).Msg("Failed to process consent event")
			}
		}
	}
}

// Handle renders and mails one consent.completed message.
func (w *ConsentMailer) Handle(ctx context.Context, data []byte) error {
	env, signed, err := event.DecodeConsentSigned(data)
	if err != nil {
		w.metrics.MailsFailed.Inc()
		return err
	}
	if signed.Record == nil {
		w.metrics.MailsFailed.Inc()
		return fmt.Errorf("event %s carries no consent record", env.ID)
	}
	if signed.PatientEmail == "" {
		w.metrics.MailsFailed.Inc()
		return fmt.Errorf("patient %s: %w", signed.PatientID, ErrNoRecipient)
	}

	var buf bytes.Buffer
	if err := export.ConsentPDF(&buf, signed.PatientName, signed.Record); err != nil {
		w.metrics.MailsFailed.Inc()
		return fmt.Errorf("failed to render consent: %w", err)
	}
	filename := export.Filename(signed.PatientName, signed.Record.Date)

	err = retry(ctx, w.config.RetryAttempts, w.config.RetryDelay, func() error {
		return w.mailer.SendConsentCopy(ctx, signed.PatientEmail, signed.PatientName, filename, buf.Bytes())
	})
	if err != nil {
		w.metrics.MailsFailed.Inc()
		return err
	}

	w.metrics.MailsSent.Inc()
	w.logger.Info().
		Str("event_id", env.ID).
		Str("patient_id", signed.PatientID).
		Str("consent_id", signed.Record.ID).
		Msg("Consent copy sent")
	return nil
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
