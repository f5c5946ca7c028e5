package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/ai"
	"github.com/suPer8Hu/pocket-chat/internal/chat"
	"github.com/suPer8Hu/pocket-chat/internal/config"
	"github.com/suPer8Hu/pocket-chat/internal/identity"
	"github.com/suPer8Hu/pocket-chat/internal/logger"
	"github.com/suPer8Hu/pocket-chat/internal/relay"
	"github.com/suPer8Hu/pocket-chat/internal/settings"
	"github.com/suPer8Hu/pocket-chat/internal/store"
	"github.com/suPer8Hu/pocket-chat/internal/transcript"
)

const (
	modeRelay  = "relay"
	modeDirect = "direct"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pocket-chat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stderr keeps log lines out of the transcript
	log, err := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	transcripts := transcript.New(kv, log)
	settingsSvc := settings.New(kv, transcripts, log)
	ident := identity.New(kv)

	completer, err := newCompleter(ctx, cfg, log)
	if err != nil {
		return err
	}
	synth := ai.NewSynthesizer(ai.WithDelay(cfg.ChatReplyDelayMin, cfg.ChatReplyDelayMax))
	resolver := ai.NewResolver(completer, synth, cfg.ProviderTimeout, log)
	log.Debug().
		Str("store", cfg.ChatStore).
		Str("completion_mode", cfg.ChatCompletionMode).
		Dur("max_reply_latency", resolver.MaxLatency()).
		Msg("chat client ready")

	a := newApp(os.Stdout, settingsSvc, ident, log)
	a.ctrl = chat.NewController(transcripts, resolver, settingsSvc, log, chat.WithRenderer(a.render))

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	historyFile := filepath.Join(os.TempDir(), "pocket-chat_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
		_ = line.Close()
	}()

	a.start(ctx)
	for {
		input, err := line.Prompt(a.prompt())
		if err != nil {
			// Ctrl+C, Ctrl+D
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Msg("prompt")
			}
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if a.handle(ctx, input) || ctx.Err() != nil {
			return nil
		}
	}
}

// newCompleter picks how a configured API key is used: through the relay
// process, or straight to the provider.
func newCompleter(ctx context.Context, cfg config.Config, log zerolog.Logger) (ai.Completer, error) {
	switch cfg.ChatCompletionMode {
	case "", modeRelay:
		rc := ai.NewRelayClient(cfg.ChatRelayURL, cfg.ProviderTimeout)
		hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Health(hctx); err != nil {
			log.Warn().Err(err).Str("relay", cfg.ChatRelayURL).Msg("relay not reachable; replies fall back to local demo text")
		}
		return rc, nil
	case modeDirect:
		return &ai.ProviderCompleter{Registry: relay.NewRegistry(cfg), Name: cfg.AIProvider}, nil
	default:
		return nil, fmt.Errorf("unsupported CHAT_COMPLETION_MODE=%q", cfg.ChatCompletionMode)
	}
}
