// Package settings holds the provider credential and the theme flag.
package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/pocket-chat/internal/store"
)

const (
	KeyCredential = "apiKey"
	KeyDarkMode   = "isDarkMode"

	DefaultDarkMode = true
)

// TranscriptClearer empties a stored conversation.
type TranscriptClearer interface {
	Clear(ctx context.Context, owner string) error
}

type Service struct {
	kv          store.KV
	transcripts TranscriptClearer
	log         zerolog.Logger
}

func New(kv store.KV, transcripts TranscriptClearer, log zerolog.Logger) *Service {
	return &Service{
		kv:          kv,
		transcripts: transcripts,
		log:         log.With().Str("component", "settings").Logger(),
	}
}

// Credential returns the stored provider key. A read failure is reported as
// no credential.
func (s *Service) Credential(ctx context.Context) (string, bool) {
	v, ok, err := s.kv.Get(ctx, KeyCredential)
	if err != nil {
		s.log.Error().Err(err).Msg("read credential failed")
		return "", false
	}
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SetCredential stores key; a blank key removes it.
func (s *Service) SetCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.kv.Delete(ctx, KeyCredential)
	}
	return s.kv.Set(ctx, KeyCredential, key)
}

func (s *Service) DarkMode(ctx context.Context) bool {
	v, ok, err := s.kv.Get(ctx, KeyDarkMode)
	if err != nil {
		s.log.Error().Err(err).Msg("read theme failed")
		return DefaultDarkMode
	}
	if !ok {
		return DefaultDarkMode
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return DefaultDarkMode
	}
	return b
}

// SetDarkMode stores the flag as a JSON boolean.
func (s *Service) SetDarkMode(ctx context.Context, on bool) error {
	return s.kv.Set(ctx, KeyDarkMode, strconv.FormatBool(on))
}

// ClearTranscript empties owner's stored conversation.
func (s *Service) ClearTranscript(ctx context.Context, owner string) error {
	return s.transcripts.Clear(ctx, owner)
}

// Reset removes the credential and theme, restoring the defaults.
func (s *Service) Reset(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyCredential, KeyDarkMode)
}
