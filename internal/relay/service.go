package relay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/ai"
	"github.com/suPer8Hu/pocket-chat/internal/common"
	"github.com/suPer8Hu/pocket-chat/internal/metrics"
	"github.com/suPer8Hu/pocket-chat/internal/usage"
)

// DefaultStubDelay is how long a demo reply is held back.
const DefaultStubDelay = time.Second

var ErrMessageRequired = errors.New("relay: message is required")

// StubReplies are the demo-mode templates; %s is the user's message.
var StubReplies = []string{
	`I understand you said: "%s". This is a demo response since no valid API key was provided.`,
	`Echo: %s`,
	`Thanks for your message: "%s". I'm currently running in demo mode.`,
	`Demo response to: "%s". To get real AI responses, please add your OpenAI API key in settings.`,
	`I received your message: "%s". This is a placeholder response.`,
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, e usage.Event) error
}

type Outcome struct {
	Text    string
	Mode    usage.Mode
	Latency time.Duration
}

type Service struct {
	registry *ai.Registry
	provider string
	stubs    []string
	delay    time.Duration
	events   EventPublisher
	now      func() time.Time
	log      zerolog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Service)

func WithStubDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithStubs(stubs []string) Option {
	return func(s *Service) {
		if len(stubs) > 0 {
			s.stubs = stubs
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(s *Service) { s.rnd = rand.New(rand.NewPCG(seed, seed)) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(registry *ai.Registry, provider string, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		provider: provider,
		stubs:    StubReplies,
		delay:    DefaultStubDelay,
		now:      time.Now,
		log:      log.With().Str("component", "relay").Logger(),
		rnd:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Provider() string { return s.provider }

// Reply answers one /chat request. With an apiKey it makes a single upstream
// attempt; any upstream failure is logged and answered in demo mode. The only
// error is a blank message or a cancelled request.
func (s *Service) Reply(ctx context.Context, message, apiKey string) (Outcome, error) {
	if strings.TrimSpace(message) == "" {
		metrics.RelayRequestsTotal.WithLabelValues("rejected").Inc()
		return Outcome{}, ErrMessageRequired
	}

	start := s.now()
	if strings.TrimSpace(apiKey) != "" && s.registry != nil {
		text, err := s.complete(ctx, message, apiKey)
		if err == nil {
			out := Outcome{Text: text, Mode: usage.ModeProvider, Latency: s.now().Sub(start)}
			s.record(ctx, message, out)
			return out, nil
		}
		metrics.ProviderErrorsTotal.WithLabelValues(s.provider).Inc()
		s.log.Warn().Err(err).Str("provider", s.provider).Msg("provider call failed, answering in demo mode")
	}

	text := s.stub(message)
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			metrics.RelayRequestsTotal.WithLabelValues("failed").Inc()
			return Outcome{}, ctx.Err()
		case <-t.C:
		}
	}

	out := Outcome{Text: text, Mode: usage.ModeDemo, Latency: s.now().Sub(start)}
	s.record(ctx, message, out)
	return out, nil
}

func (s *Service) complete(ctx context.Context, message, apiKey string) (string, error) {
	p, err := s.registry.Get(ctx, s.provider, apiKey)
	if err != nil {
		return "", err
	}
	text, err := p.Chat(ctx, ai.Prompt(message))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyCompletion
	}
	return text, nil
}

func (s *Service) stub(message string) string {
	s.mu.Lock()
	i := s.rnd.IntN(len(s.stubs))
	s.mu.Unlock()
	return fmt.Sprintf(s.stubs[i], message)
}

func (s *Service) record(ctx context.Context, message string, out Outcome) {
	metrics.RelayRequestsTotal.WithLabelValues(string(out.Mode)).Inc()
	metrics.RelayReplyDuration.WithLabelValues(string(out.Mode)).Observe(out.Latency.Seconds())

	if s.events == nil {
		return
	}
	at := s.now().UTC()
	id, err := common.NewULIDAt(at)
	if err != nil {
		s.log.Error().Err(err).Msg("event id")
		return
	}
	e := usage.Event{
		ID:        id,
		Mode:      out.Mode,
		LatencyMS: out.Latency.Milliseconds(),
		Chars:     utf8.RuneCountInString(message),
		At:        at,
	}
	if out.Mode == usage.ModeProvider {
		e.Provider = s.provider
	}
	// the reply is already decided; a late cancel must not drop the event
	if err := s.events.PublishEvent(context.WithoutCancel(ctx), e); err != nil {
		metrics.EventPublishErrorsTotal.Inc()
		s.log.Warn().Err(err).Str("event_id", id).Msg("publish usage event failed")
	}
}
