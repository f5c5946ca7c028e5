package transcript

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/pocket-chat/internal/chat"
	"github.com/suPer8Hu/pocket-chat/internal/store"
	"github.com/suPer8Hu/pocket-chat/internal/store/redisstore"
	"github.com/suPer8Hu/pocket-chat/internal/store/sqlstore"
)

type backend struct {
	name string
	open func(t *testing.T) store.KV
}

func backends() []backend {
	return []backend{
		{name: "sql", open: func(t *testing.T) store.KV {
			name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
			db, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
			require.NoError(t, err)
			kv, err := sqlstore.New(db)
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })
			return kv
		}},
		{name: "redis", open: func(t *testing.T) store.KV {
			mr := miniredis.RunT(t)
			kv, err := redisstore.Connect(context.Background(), mr.Addr(), "", 0, "t:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })
			return kv
		}},
	}
}

func makeMessages(t *testing.T, n int) []chat.Message {
	t.Helper()
	out := make([]chat.Message, 0, n)
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		sender := chat.SenderUser
		if i%2 == 1 {
			sender = chat.SenderAssistant
		}
		m, err := chat.NewMessage(sender, fmt.Sprintf("message %d \"quoted\" ✨", i), at.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestLoad_AbsentIsEmpty(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := New(b.open(t), zerolog.Nop())
			msgs := s.Load(context.Background(), "nobody")
			require.NotNil(t, msgs)
			require.Empty(t, msgs)
		})
	}
}

func TestSaveTwiceThenLoad(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := New(b.open(t), zerolog.Nop())
			ctx := context.Background()

			for _, n := range []int{0, 1, 2, 7, 40} {
				want := makeMessages(t, n)
				require.NoError(t, s.Save(ctx, "owner", want))
				require.NoError(t, s.Save(ctx, "owner", want))
				require.Equal(t, want, s.Load(ctx, "owner"), "n=%d", n)
			}
		})
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := New(b.open(t), zerolog.Nop())
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, "", makeMessages(t, 1)))
			require.NoError(t, s.Save(ctx, "demo-user-a", makeMessages(t, 3)))

			require.Len(t, s.Load(ctx, ""), 1)
			require.Len(t, s.Load(ctx, "demo-user-a"), 3)
			require.Empty(t, s.Load(ctx, "demo-user-b"))
		})
	}
}

func TestClear(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := New(b.open(t), zerolog.Nop())
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, "owner", makeMessages(t, 4)))
			require.NoError(t, s.Clear(ctx, "owner"))
			require.Empty(t, s.Load(ctx, "owner"))
			require.NoError(t, s.Clear(ctx, "owner"), "clearing twice is fine")
		})
	}
}

func TestLoad_CorruptBlobIsEmpty(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			s := New(kv, zerolog.Nop())
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, Key("owner"), "{not json"))
			require.Empty(t, s.Load(ctx, "owner"))

			require.NoError(t, kv.Set(ctx, Key("owner"), "null"))
			require.NotNil(t, s.Load(ctx, "owner"))
		})
	}
}

func TestLoad_MobileAppTranscript(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			s := New(kv, zerolog.Nop())
			ctx := context.Background()

			blob := `[{"id":1700000000000,"text":"hi","sender":"user","timestamp":"2023-11-14T22:13:20.000Z"},` +
				`{"id":1700000000001,"text":"yo","sender":"ai","timestamp":"2023-11-14T22:13:20.001Z"}]`
			require.NoError(t, kv.Set(ctx, Key(""), blob))

			got := s.Load(ctx, "")
			require.Len(t, got, 2)
			require.Equal(t, "1700000000000", got[0].ID)
			require.Equal(t, chat.SenderUser, got[0].Sender)
			require.Equal(t, "1700000000001", got[1].ID)
			require.Equal(t, chat.SenderAssistant, got[1].Sender)
			require.Equal(t, "yo", got[1].Text)

			// appending keeps the earlier turns
			got = append(got, makeMessages(t, 1)...)
			require.NoError(t, s.Save(ctx, "", got))
			again := s.Load(ctx, "")
			require.Len(t, again, 3)
			require.Equal(t, "1700000000000", again[0].ID)
		})
	}
}

func TestLoad_DiscardLogsKey(t *testing.T) {
	mr := miniredis.RunT(t)
	kv, err := redisstore.Connect(context.Background(), mr.Addr(), "", 0, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	var buf strings.Builder
	s := New(kv, zerolog.New(&buf))
	require.NoError(t, kv.Set(context.Background(), Key("owner"), `[{"id":true}]`))
	require.Empty(t, s.Load(context.Background(), "owner"))
	require.Contains(t, buf.String(), `"key":"chatMessages:owner"`)
}

func TestLoad_BackendErrorIsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	kv, err := redisstore.Connect(context.Background(), mr.Addr(), "", 0, "")
	require.NoError(t, err)
	s := New(kv, zerolog.Nop())
	require.NoError(t, s.Save(context.Background(), "", makeMessages(t, 2)))

	mr.SetError("LOADING")
	require.Empty(t, s.Load(context.Background(), ""))
	require.Error(t, s.Save(context.Background(), "", makeMessages(t, 2)))
}

func TestKey(t *testing.T) {
	require.Equal(t, "chatMessages", Key(""))
	require.Equal(t, "chatMessages:demo-user-1", Key("demo-user-1"))
}
