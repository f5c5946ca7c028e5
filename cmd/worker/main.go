package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/config"
	"github.com/suPer8Hu/pocket-chat/internal/db"
	"github.com/suPer8Hu/pocket-chat/internal/logger"
	"github.com/suPer8Hu/pocket-chat/internal/metrics"
	"github.com/suPer8Hu/pocket-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/pocket-chat/internal/usage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
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
	if cfg.RabbitURL == "" {
		return errors.New("RABBIT_URL is required")
	}

	gdb, err := db.Open(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close(gdb)

	repo := usage.NewRepo(gdb)
	if err := repo.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logSummary(context.Background(), repo, log)

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, concurrency, cfg.WorkerRetryDelay)
	if err != nil {
		return err
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	pool := &rabbitmq.Pool{
		Concurrency: concurrency,
		MaxAttempts: cfg.WorkerMaxAttempts,
		Handle:      storeEvent(repo),
		Retrier:     consumer,
		Log:         log,
	}
	pool.Run(ctx, msgs)
	return nil
}

// logSummary reports what is already stored before consuming resumes.
func logSummary(ctx context.Context, repo *usage.Repo, log zerolog.Logger) {
	counts, err := repo.CountByMode(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count stored events")
		return
	}
	ev := log.Info().
		Int64("provider", counts[usage.ModeProvider]).
		Int64("demo", counts[usage.ModeDemo])
	if recent, err := repo.Recent(ctx, 1); err == nil && len(recent) == 1 {
		ev = ev.Time("last_event_at", recent[0].At)
	}
	ev.Msg("stored relay events")
}

func storeEvent(repo *usage.Repo) rabbitmq.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		e, err := usage.Decode(body)
		if err != nil {
			metrics.WorkerEventsTotal.WithLabelValues("invalid").Inc()
			return fmt.Errorf("%w: %v", rabbitmq.ErrMalformed, err)
		}

		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repo.Insert(cctx, &e); err != nil {
			metrics.WorkerEventsTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		metrics.WorkerEventsTotal.WithLabelValues("stored").Inc()
		return nil
	}
}
