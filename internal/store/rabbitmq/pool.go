package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrMalformed marks deliveries that can never succeed. They go straight to
// the DLQ without a retry.
var ErrMalformed = errors.New("rabbitmq: malformed message")

type HandlerFunc func(ctx context.Context, body []byte) error

type Retrier interface {
	Retry(ctx context.Context, d amqp.Delivery, attempt int) error
}

// Pool fans deliveries out to a fixed number of workers.
type Pool struct {
	Concurrency int
	MaxAttempts int
	Handle      HandlerFunc
	Retrier     Retrier
	Log         zerolog.Logger
}

// Run blocks until ctx is done or msgs is closed, then waits for in-flight
// deliveries to finish.
func (p *Pool) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	jobs := make(chan amqp.Delivery, concurrency*2)
	// in-flight work finishes even after shutdown starts
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				p.process(workCtx, workerID, d)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			p.Log.Info().Msg("worker shutting down")
			return
		case d, ok := <-msgs:
			if !ok {
				p.Log.Warn().Msg("delivery channel closed")
				return
			}
			select {
			case jobs <- d:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}
	}
}

func (p *Pool) process(ctx context.Context, workerID int, d amqp.Delivery) {
	log := p.Log.With().Int("worker", workerID).Str("message_id", d.MessageId).Logger()

	start := time.Now()
	err := p.Handle(ctx, d.Body)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Error().Err(err).Msg("ack failed")
		}
		return
	}

	if errors.Is(err, ErrMalformed) {
		log.Warn().Err(err).Msg("bad message")
		_ = d.Nack(false, false)
		return
	}

	next := Attempt(d) + 1
	if p.Retrier != nil && next < p.MaxAttempts {
		rerr := p.Retrier.Retry(ctx, d, next)
		if rerr == nil {
			log.Warn().Err(err).Int("attempt", next).Dur("cost", time.Since(start)).Msg("handler failed, retrying")
			_ = d.Ack(false)
			return
		}
		log.Error().Err(rerr).Msg("retry publish failed")
	}

	log.Error().Err(err).Int("attempt", next).Dur("cost", time.Since(start)).Msg("handler failed, dead-lettering")
	_ = d.Nack(false, false)
}
