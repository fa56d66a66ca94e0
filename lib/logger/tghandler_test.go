package logger

import (
	"bytes"
	"errors"
	"invitetrack/lib/sl"
	"log/slog"
	"strings"
	"testing"
)

type mockAlerter struct {
	messages []string
}

func (m *mockAlerter) SendMessageWithLevel(msg string, _ slog.Level) {
	m.messages = append(m.messages, msg)
}

func TestTelegramHandler_ForwardsAboveMinLevel(t *testing.T) {
	var buf bytes.Buffer
	alerter := &mockAlerter{}
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(NewTelegramHandler(base, alerter, slog.LevelError))

	log.Info("join attributed")
	log.With(sl.Module("core")).Error("crediting invite", sl.Err(errors.New("store down")))

	if len(alerter.messages) != 1 {
		t.Fatalf("forwarded %d messages, want 1", len(alerter.messages))
	}
	msg := alerter.messages[0]
	for _, want := range []string{"*ERROR*", "crediting invite", "mod: core", "store down"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
	if !strings.Contains(buf.String(), "join attributed") {
		t.Error("info record not written to the underlying handler")
	}
}

func TestTelegramHandler_Group(t *testing.T) {
	alerter := &mockAlerter{}
	base := slog.NewTextHandler(&bytes.Buffer{}, nil)
	log := slog.New(NewTelegramHandler(base, alerter, slog.LevelWarn))

	log.WithGroup("bot").Warn("reply failed")
	if len(alerter.messages) != 1 || !strings.Contains(alerter.messages[0], "bot.reply failed") {
		t.Errorf("messages = %q", alerter.messages)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelError,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
