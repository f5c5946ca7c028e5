package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/suPer8Hu/pocket-chat/internal/chat"
	"github.com/suPer8Hu/pocket-chat/internal/identity"
	"github.com/suPer8Hu/pocket-chat/internal/settings"
)

const helpText = `commands:
  /key <key>          set the completion API key (/key alone removes it)
  /theme dark|light   switch theme
  /clear              delete this conversation
  /reset              remove the API key and theme settings
  /login [email]      sign in (no email: demo user)
  /logout             sign out
  /whoami             show the signed-in user
  /help               this text
  /quit               exit`

// app is the terminal front end: one session, one printer.
type app struct {
	out      io.Writer
	ctrl     *chat.Controller
	settings *settings.Service
	ident    *identity.Service
	log      zerolog.Logger

	theme   theme
	session *chat.Session
	printed int
	shown   *chat.Session
}

func newApp(out io.Writer, settingsSvc *settings.Service, ident *identity.Service, log zerolog.Logger) *app {
	return &app{out: out, settings: settingsSvc, ident: ident, log: log}
}

// render prints messages added since the last call.
func (a *app) render(s *chat.Session) {
	msgs := s.Messages()
	if a.shown != s || len(msgs) < a.printed {
		a.shown = s
		a.printed = 0
	}
	for _, m := range msgs[a.printed:] {
		a.printMessage(m)
	}
	a.printed = len(msgs)
	if s.Pending() {
		fmt.Fprintln(a.out, a.theme.meta.Render("  assistant is typing..."))
	}
}

func (a *app) printMessage(m chat.Message) {
	label := a.theme.assistant.Render("assistant")
	if m.Sender == chat.SenderUser {
		label = a.theme.user.Render("you")
	}
	stamp := ""
	if t := m.Time(); !t.IsZero() {
		stamp = a.theme.meta.Render(t.Local().Format("3:04 PM"))
	}
	fmt.Fprintf(a.out, "%s %s\n%s\n\n", label, stamp, m.Text)
}

func (a *app) info(format string, args ...any) {
	fmt.Fprintln(a.out, a.theme.info.Render(fmt.Sprintf(format, args...)))
}

func (a *app) warn(format string, args ...any) {
	fmt.Fprintln(a.out, a.theme.warn.Render(fmt.Sprintf(format, args...)))
}

func (a *app) prompt() string {
	return a.theme.prompt.Render("> ")
}

// start applies the stored theme and opens the current user's conversation.
func (a *app) start(ctx context.Context) {
	a.theme = themeFor(a.settings.DarkMode(ctx))
	a.openSession(ctx)
}

func (a *app) openSession(ctx context.Context) {
	owner := ""
	u, err := a.ident.Current(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("read current user")
	}
	if u != nil {
		owner = u.UID
	}
	a.session = a.ctrl.Open(ctx, owner)
	if a.session.Len() == 0 {
		a.info("No messages yet. Type something, or /help.")
	}
}

// handle runs one input line and reports whether the client should exit.
func (a *app) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		a.send(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return true
	case "/help":
		a.info("%s", helpText)
	case "/key":
		a.setKey(ctx, arg)
	case "/theme":
		a.setTheme(ctx, arg)
	case "/clear":
		switch err := a.ctrl.ClearHistory(ctx, a.session); {
		case errors.Is(err, chat.ErrReplyPending):
			a.warn("Wait for the reply before clearing.")
		case err != nil:
			a.warn("Could not clear the conversation: %v", err)
		default:
			a.info("Conversation cleared.")
		}
	case "/reset":
		if err := a.settings.Reset(ctx); err != nil {
			a.warn("Reset failed: %v", err)
			return false
		}
		a.theme = themeFor(settings.DefaultDarkMode)
		a.info("Settings reset.")
	case "/login":
		a.login(ctx, arg)
	case "/logout":
		if err := a.ident.SignOut(ctx); err != nil {
			a.warn("Sign out failed: %v", err)
			return false
		}
		a.info("Signed out.")
		a.openSession(ctx)
	case "/whoami":
		u, _ := a.ident.Current(ctx)
		if u == nil {
			a.info("Not signed in.")
			return false
		}
		a.info("%s <%s> (%s)", u.DisplayName, u.Email, u.UID)
	default:
		a.warn("Unknown command %s. Try /help.", cmd)
	}
	return false
}

func (a *app) send(ctx context.Context, text string) {
	a.session.SetInput(text)
	_, err := a.ctrl.SendInput(ctx, a.session)
	switch {
	case errors.Is(err, chat.ErrReplyPending):
		a.warn("Still waiting for the last reply.")
	case errors.Is(err, chat.ErrEmptyMessage):
	case err != nil:
		a.warn("Send failed: %v", err)
	}
}

func (a *app) setKey(ctx context.Context, key string) {
	if err := a.settings.SetCredential(ctx, key); err != nil {
		a.warn("Could not save the API key: %v", err)
		return
	}
	if key == "" {
		a.info("API key removed. Replies are local demo replies.")
		return
	}
	a.info("API key saved.")
}

func (a *app) setTheme(ctx context.Context, arg string) {
	var dark bool
	switch strings.ToLower(arg) {
	case "dark":
		dark = true
	case "light":
		dark = false
	default:
		a.warn("Usage: /theme dark|light")
		return
	}
	if err := a.settings.SetDarkMode(ctx, dark); err != nil {
		a.warn("Could not save the theme: %v", err)
		return
	}
	a.theme = themeFor(dark)
	a.info("Theme: %s", strings.ToLower(arg))
}

func (a *app) login(ctx context.Context, email string) {
	var (
		u   *identity.User
		err error
	)
	if email == "" {
		u, err = a.ident.SignInAnonymously(ctx)
	} else {
		u, err = a.ident.SignInWithEmail(ctx, email, "")
	}
	if err != nil {
		a.warn("Sign in failed: %v", err)
		return
	}
	a.info("Signed in as %s.", u.DisplayName)
	a.openSession(ctx)
}
