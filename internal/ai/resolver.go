package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCompletionTimeout bounds the single remote attempt.
const DefaultCompletionTimeout = 30 * time.Second

// Resolver always produces a reply: the remote completion when a credential
// is present and the call works, a synthesized one otherwise.
type Resolver struct {
	completer Completer
	synth     *Synthesizer
	timeout   time.Duration
	log       zerolog.Logger
}

func NewResolver(completer Completer, synth *Synthesizer, timeout time.Duration, log zerolog.Logger) *Resolver {
	if synth == nil {
		synth = NewSynthesizer()
	}
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &Resolver{
		completer: completer,
		synth:     synth,
		timeout:   timeout,
		log:       log.With().Str("component", "resolver").Logger(),
	}
}

func (r *Resolver) Resolve(ctx context.Context, message, credential string) string {
	credential = strings.TrimSpace(credential)
	if credential != "" && r.completer != nil {
		reply, err := r.complete(ctx, message, credential)
		if err == nil {
			return reply
		}
		r.log.Warn().Err(err).Msg("completion failed, using local reply")
	}
	return r.synth.Reply(ctx, message)
}

// MaxLatency is the longest Resolve can take.
func (r *Resolver) MaxLatency() time.Duration {
	return r.timeout + r.synth.MaxDelay()
}

func (r *Resolver) complete(ctx context.Context, message, credential string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reply, err := r.completer.Complete(cctx, message, credential)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyCompletion
	}
	r.log.Debug().Dur("latency", time.Since(start)).Msg("completion ok")
	return reply, nil
}
