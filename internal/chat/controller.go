package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/pocket-chat/internal/common"
)

var (
	ErrEmptyMessage = errors.New("chat: empty message")
	ErrReplyPending = errors.New("chat: reply pending")
)

// ApologyText replaces a reply that could not be produced at all.
const ApologyText = "Sorry, I encountered an error. Please check your connection and try again."

// Transcript persists a whole conversation per owner.
type Transcript interface {
	Load(ctx context.Context, owner string) []Message
	Save(ctx context.Context, owner string, messages []Message) error
	Clear(ctx context.Context, owner string) error
}

// Resolver turns an outgoing message into exactly one reply text.
// An empty credential means none is configured.
type Resolver interface {
	Resolve(ctx context.Context, message, credential string) string
}

type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
}

// RenderFunc receives the session after every change.
type RenderFunc func(s *Session)

type Controller struct {
	transcript Transcript
	resolver   Resolver
	creds      CredentialSource
	log        zerolog.Logger
	now        func() time.Time
	newID      func(time.Time) (string, error)
	render     RenderFunc
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithRenderer(fn RenderFunc) Option {
	return func(c *Controller) { c.render = fn }
}

func NewController(t Transcript, r Resolver, creds CredentialSource, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		transcript: t,
		resolver:   r,
		creds:      creds,
		log:        log.With().Str("component", "chat").Logger(),
		now:        time.Now,
		newID:      common.NewULIDAt,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open loads the owner's transcript; an unreadable one opens empty.
func (c *Controller) Open(ctx context.Context, owner string) *Session {
	s := newSession(owner, c.transcript.Load(ctx, owner))
	c.notify(s)
	return s
}

// Send appends the user's message and the reply, persisting after each.
// It returns ErrEmptyMessage or ErrReplyPending without touching the session.
func (c *Controller) Send(ctx context.Context, s *Session, raw string) (Message, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if !s.pending.CompareAndSwap(false, true) {
		return Message{}, ErrReplyPending
	}
	defer func() {
		s.pending.Store(false)
		c.notify(s)
	}()

	userMsg := c.message(SenderUser, clip(text, MaxMessageLength))
	c.persist(ctx, s, s.appendMessage(userMsg))
	s.clearInput()
	c.notify(s)

	replyText := c.resolve(ctx, userMsg.Text, c.credential(ctx))

	reply := c.message(SenderAssistant, replyText)
	c.persist(ctx, s, s.appendMessage(reply))
	return reply, nil
}

// SendInput sends whatever is in the session's input buffer.
func (c *Controller) SendInput(ctx context.Context, s *Session) (Message, error) {
	return c.Send(ctx, s, s.Input())
}

// ClearHistory empties the stored and in-memory transcript.
func (c *Controller) ClearHistory(ctx context.Context, s *Session) error {
	if s.Pending() {
		return ErrReplyPending
	}
	if err := c.transcript.Clear(ctx, s.owner); err != nil {
		return err
	}
	s.reset()
	c.notify(s)
	return nil
}

func (c *Controller) resolve(ctx context.Context, text, credential string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("resolver failed")
			reply = ApologyText
		}
	}()
	reply = c.resolver.Resolve(ctx, text, credential)
	if strings.TrimSpace(reply) == "" {
		c.log.Error().Msg("resolver returned an empty reply")
		reply = ApologyText
	}
	return reply
}

// message never fails: if no ULID can be minted the message gets a local
// id so the turn is still recorded.
func (c *Controller) message(sender Sender, text string) Message {
	at := c.now()
	id, err := c.newID(at)
	if err != nil {
		c.log.Error().Err(err).Str("sender", string(sender)).Msg("mint message id failed, using local id")
		id = localID(at)
	}
	return Message{
		ID:        id,
		Text:      text,
		Sender:    sender,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

func (c *Controller) credential(ctx context.Context) string {
	if c.creds == nil {
		return ""
	}
	key, ok := c.creds.Credential(ctx)
	if !ok {
		return ""
	}
	return key
}

// persist failures leave the in-memory transcript authoritative.
func (c *Controller) persist(ctx context.Context, s *Session, messages []Message) {
	if err := c.transcript.Save(ctx, s.owner, messages); err != nil {
		c.log.Error().Err(err).Str("owner", s.owner).Int("messages", len(messages)).Msg("save transcript failed")
	}
}

func (c *Controller) notify(s *Session) {
	if c.render != nil {
		c.render(s)
	}
}
