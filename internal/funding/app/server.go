// Package app wires the funding ledger service: storage, ledger, outbox
// relay, and the HTTP API, with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"

	fundinghttp "github.com/fundlift/fundlift/internal/funding/api/http"
	"github.com/fundlift/fundlift/internal/funding/ledger"
	"github.com/fundlift/fundlift/internal/funding/outbox"
	"github.com/fundlift/fundlift/internal/funding/storage/sqlite"
	"github.com/fundlift/fundlift/internal/platform/timeouts"
)

// Config holds the funding service settings.
type Config struct {
	Port         int           `env:"FUNDLIFT_FUNDING_PORT" envDefault:"8080"`
	DBPath       string        `env:"FUNDLIFT_FUNDING_DB_PATH" envDefault:"funding.db"`
	AuthSecret   string        `env:"FUNDLIFT_AUTH_SECRET"`
	OutboxPeriod time.Duration `env:"FUNDLIFT_OUTBOX_PERIOD" envDefault:"500ms"`
}

// Server hosts the funding ledger service.
type Server struct {
	cfg      Config
	store    *sqlite.Store
	ledger   *ledger.Service
	relay    *outbox.Relay
	bus      evbus.Bus
	httpSrv  *http.Server
	logger   zerolog.Logger
	transfer ledger.Transfer
}

// Option configures a Server before wiring.
type Option func(*Server)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTransfer sets the funds release mechanism used for withdrawals.
func WithTransfer(transfer ledger.Transfer) Option {
	return func(s *Server) {
		s.transfer = transfer
	}
}

// New creates a configured funding server.
func New(cfg Config, opts ...Option) (*Server, error) {
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return nil, fmt.Errorf("auth secret is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("port must be greater than zero")
	}

	s := &Server{
		cfg:      cfg,
		logger:   zerolog.New(os.Stderr).With().Timestamp().Str("service", "funding").Logger(),
		transfer: ledger.NoopTransfer{},
	}
	for _, opt := range opts {
		opt(s)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.store = store

	s.ledger = ledger.New(store,
		ledger.WithLogger(s.logger.With().Str("component", "ledger").Logger()),
		ledger.WithTransfer(s.transfer),
	)

	s.bus = evbus.New()
	s.relay = outbox.New(store, s.bus,
		outbox.WithInterval(cfg.OutboxPeriod),
		outbox.WithLogger(s.logger.With().Str("component", "outbox").Logger()),
	)

	router := fundinghttp.NewRouter(s.ledger, []byte(cfg.AuthSecret), s.logger.With().Str("component", "http").Logger())
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Ledger exposes the application service, mainly for embedding and tests.
func (s *Server) Ledger() *ledger.Service {
	return s.ledger
}

// Bus exposes the event bus so embedders can subscribe to ledger events.
func (s *Server) Bus() evbus.Bus {
	return s.bus
}

// Run serves until ctx is cancelled, then drains and shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = s.relay.Run(relayCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Int("port", s.cfg.Port).Msg("funding service listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		stopRelay()
		<-relayDone
		_ = s.store.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("http shutdown failed")
	}
	<-serveErr

	stopRelay()
	<-relayDone

	// Final drain so committed events are delivered before exit.
	if _, err := s.relay.DrainOnce(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("final outbox drain failed")
	}

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
