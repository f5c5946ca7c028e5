package handlers

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/relay"
)

// Replier is the relay's reply path; *relay.Service implements it.
type Replier interface {
	Reply(ctx context.Context, message, apiKey string) (relay.Outcome, error)
}

type Handler struct {
	Relay Replier
	Log   zerolog.Logger
}

func NewHandler(r Replier, log zerolog.Logger) *Handler {
	return &Handler{Relay: r, Log: log.With().Str("component", "httpapi").Logger()}
}
