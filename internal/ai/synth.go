package ai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// ClockLayout formats the wall-clock time in the "time" reply.
const ClockLayout = "3:04:05 PM"

const (
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second
)

// Input is what a reply template sees.
type Input struct {
	Text string
	Now  time.Time
}

type Template func(in Input) string

// Rule maps a predicate over the lower-cased message to a pool of replies.
type Rule struct {
	Name    string
	Match   func(lower string) bool
	Replies []Template
}

func containsAny(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if !strings.Contains(lower, w) {
				return false
			}
		}
		return true
	}
}

func text(s string) Template {
	return func(Input) string { return s }
}

func echo(format string) Template {
	return func(in Input) string { return fmt.Sprintf(format, in.Text) }
}

// DefaultRules are checked in order; the first match wins.
var DefaultRules = []Rule{
	{
		Name:    "greeting",
		Match:   containsAny("hello", "hi", "hey"),
		Replies: []Template{text("Hello! I'm your chat assistant. How can I help you today? 👋")},
	},
	{
		Name:    "how-are-you",
		Match:   containsAny("how are you"),
		Replies: []Template{text("I'm doing great! I'm a demo assistant running without a backend. What would you like to talk about?")},
	},
	{
		Name:    "name",
		Match:   containsAll("what", "your", "name"),
		Replies: []Template{text("I'm Pocket Chat, a demo AI assistant! 🤖")},
	},
	{
		Name:    "help",
		Match:   containsAny("help"),
		Replies: []Template{text("I'm here to help! You can ask me questions, have conversations, or just chat. This is a demo version with smart responses. 💬")},
	},
	{
		Name:    "weather",
		Match:   containsAny("weather"),
		Replies: []Template{text("I don't have access to real weather data in demo mode, but I hope you're having a great day! ☀️")},
	},
	{
		Name:  "time",
		Match: containsAny("time"),
		Replies: []Template{func(in Input) string {
			return fmt.Sprintf("The current time is %s. Is there anything else I can help you with? ⏰", in.Now.Format(ClockLayout))
		}},
	},
	{
		Name:    "firebase",
		Match:   containsAny("firebase"),
		Replies: []Template{text("In this build the transcript lives in a local store; a hosted backend can be swapped in behind the same interface. 🔥")},
	},
	{
		Name:    "react-native",
		Match:   containsAny("react native"),
		Replies: []Template{text("The original app was built with React Native, a framework for cross-platform mobile development. 📱")},
	},
	{
		Name:    "thanks",
		Match:   containsAny("thank"),
		Replies: []Template{text("You're welcome! I'm happy to help. Feel free to ask me anything else! 😊")},
	},
	{
		Name:    "goodbye",
		Match:   containsAny("bye", "goodbye"),
		Replies: []Template{text("Goodbye! It was nice chatting with you. Come back anytime! 👋")},
	},
}

// DefaultReplies is used when no rule matches.
var DefaultReplies = []Template{
	echo(`That's an interesting point about "%s". In demo mode, I can engage in basic conversation! 🤔`),
	echo(`I understand you're asking about "%s". This is a demo response with smart contextual replies! 💡`),
	echo(`Thanks for sharing that! You said: "%s". I'm running in demo mode with intelligent responses! 🎯`),
	echo(`That's a great question! While I'm in demo mode, I try to give helpful responses about: "%s" 🚀`),
	echo(`I hear you talking about "%s". This chat is working perfectly with smart demo responses! ✨`),
}

// Synthesizer produces local replies when no provider is used.
type Synthesizer struct {
	rules    []Rule
	fallback []Template
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

type SynthOption func(*Synthesizer)

func WithRules(rules []Rule, fallback []Template) SynthOption {
	return func(s *Synthesizer) {
		s.rules = rules
		s.fallback = fallback
	}
}

// WithDelay sets the simulated latency range. Both zero disables it.
func WithDelay(min, max time.Duration) SynthOption {
	return func(s *Synthesizer) {
		s.minDelay, s.maxDelay = min, max
	}
}

func WithSynthClock(now func() time.Time) SynthOption {
	return func(s *Synthesizer) { s.now = now }
}

func WithSeed(seed uint64) SynthOption {
	return func(s *Synthesizer) { s.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func NewSynthesizer(opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		rules:    DefaultRules,
		fallback: DefaultReplies,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		seed := uint64(time.Now().UnixNano())
		s.rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if s.maxDelay < s.minDelay {
		s.maxDelay = s.minDelay
	}
	return s
}

// Compose picks a reply without any delay. It returns the matched rule name,
// or "default".
func (s *Synthesizer) Compose(message string) (rule string, reply string) {
	in := Input{Text: message, Now: s.now()}
	lower := strings.ToLower(message)

	pool, rule := s.fallback, "default"
	for _, r := range s.rules {
		if r.Match(lower) {
			pool, rule = r.Replies, r.Name
			break
		}
	}
	if len(pool) == 0 {
		return rule, fmt.Sprintf("You said: %q", message)
	}
	return rule, pool[s.intn(len(pool))](in)
}

// Reply waits a random delay in [min, max] and then composes a reply. A
// cancelled ctx cuts the wait short but still yields a reply.
func (s *Synthesizer) Reply(ctx context.Context, message string) string {
	if d := s.delay(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	_, reply := s.Compose(message)
	return reply
}

// MaxDelay is the upper bound on Reply's simulated latency.
func (s *Synthesizer) MaxDelay() time.Duration { return s.maxDelay }

func (s *Synthesizer) delay() time.Duration {
	span := s.maxDelay - s.minDelay
	if span <= 0 {
		return s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDelay + time.Duration(s.rnd.Int64N(int64(span)+1))
}

func (s *Synthesizer) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}
