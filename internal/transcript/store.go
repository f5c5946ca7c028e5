// Package transcript persists a conversation as one JSON blob per owner.
package transcript

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/pocket-chat/internal/chat"
	"github.com/suPer8Hu/pocket-chat/internal/store"
)

// BaseKey holds the conversation when no owner is signed in.
const BaseKey = "chatMessages"

// Key returns the storage key for owner's conversation.
func Key(owner string) string {
	if owner == "" {
		return BaseKey
	}
	return BaseKey + ":" + owner
}

type Store struct {
	kv  store.KV
	log zerolog.Logger
}

func New(kv store.KV, log zerolog.Logger) *Store {
	return &Store{kv: kv, log: log.With().Str("component", "transcript").Logger()}
}

// Load never fails: a missing, unreadable or corrupt blob yields an empty
// conversation.
func (s *Store) Load(ctx context.Context, owner string) []chat.Message {
	raw, ok, err := s.kv.Get(ctx, Key(owner))
	if err != nil {
		s.log.Error().Err(err).Str("owner", owner).Msg("load transcript failed")
		return []chat.Message{}
	}
	if !ok || raw == "" {
		return []chat.Message{}
	}

	var msgs []chat.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		s.log.Warn().Err(err).Str("owner", owner).Str("key", Key(owner)).Msg("discarding unreadable transcript")
		return []chat.Message{}
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return msgs
}

// Save replaces the stored conversation with messages.
func (s *Store) Save(ctx context.Context, owner string, messages []chat.Message) error {
	if messages == nil {
		messages = []chat.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, Key(owner), string(b))
}

func (s *Store) Clear(ctx context.Context, owner string) error {
	return s.kv.Delete(ctx, Key(owner))
}

var _ chat.Transcript = (*Store)(nil)
