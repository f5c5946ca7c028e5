package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/config"
	"github.com/suPer8Hu/pocket-chat/internal/httpapi"
	"github.com/suPer8Hu/pocket-chat/internal/logger"
	"github.com/suPer8Hu/pocket-chat/internal/relay"
	"github.com/suPer8Hu/pocket-chat/internal/store/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, closer := newServer(cfg, log)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("relay shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newServer builds the relay. Usage events are optional: without RABBIT_URL,
// or with RabbitMQ down, the relay runs without them.
func newServer(cfg config.Config, log zerolog.Logger) (*http.Server, io.Closer) {
	reg := relay.NewRegistry(cfg)
	opts := []relay.Option{relay.WithStubDelay(cfg.RelayStubDelay)}

	var closer io.Closer = nopCloser{}
	events := false
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Warn().Err(err).Msg("rabbit unavailable, usage events disabled")
		} else {
			closer = pub
			events = true
			opts = append(opts, relay.WithEvents(pub))
		}
	}

	svc := relay.NewService(reg, cfg.AIProvider, log, opts...)
	log.Info().
		Str("addr", cfg.RelayAddr).
		Str("provider", svc.Provider()).
		Strs("providers", reg.Names()).
		Bool("usage_events", events).
		Msg("relay listening: POST /chat, GET /health")

	return &http.Server{
		Addr:              cfg.RelayAddr,
		Handler:           httpapi.NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}, closer
}
