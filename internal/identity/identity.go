// Package identity is a local stand-in for an account system. Nothing is
// verified: sign-in just records who the current user is, and that user's
// id scopes the transcript.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/suPer8Hu/pocket-chat/internal/store"
)

const KeyCurrentUser = "currentUser"

var ErrInvalidEmail = errors.New("identity: invalid email")

type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Service struct {
	kv    store.KV
	newID func() string
}

func New(kv store.KV) *Service {
	return &Service{
		kv:    kv,
		newID: func() string { return uuid.NewString() },
	}
}

func (s *Service) SignInAnonymously(ctx context.Context) (*User, error) {
	return s.signIn(ctx, "demo@example.com", "Demo User")
}

// SignInWithEmail accepts any password.
func (s *Service) SignInWithEmail(ctx context.Context, email, password string) (*User, error) {
	_ = password
	name, err := displayName(email)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, strings.TrimSpace(email), name)
}

func (s *Service) SignUpWithEmail(ctx context.Context, email, password string) (*User, error) {
	return s.SignInWithEmail(ctx, email, password)
}

func (s *Service) SignOut(ctx context.Context) error {
	return s.kv.Delete(ctx, KeyCurrentUser)
}

// Current returns the signed-in user, or nil.
func (s *Service) Current(ctx context.Context) (*User, error) {
	raw, ok, err := s.kv.Get(ctx, KeyCurrentUser)
	if err != nil || !ok {
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.UID == "" {
		// a broken record means nobody is signed in
		return nil, nil
	}
	return &u, nil
}

func (s *Service) signIn(ctx context.Context, email, name string) (*User, error) {
	u := &User{
		UID:         "demo-user-" + s.newID(),
		Email:       email,
		DisplayName: name,
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, KeyCurrentUser, string(b)); err != nil {
		return nil, err
	}
	return u, nil
}

func displayName(email string) (string, error) {
	email = strings.TrimSpace(email)
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "", ErrInvalidEmail
	}
	return local, nil
}
