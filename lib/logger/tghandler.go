package logger

import (
	"context"
	"fmt"
	"invitetrack/internal/tgalert"
	"log/slog"
	"sync"
)

// Alerter delivers a formatted log record to operators.
type Alerter interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that sends log messages to Telegram
type TelegramHandler struct {
	handler  slog.Handler
	alerter  Alerter
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

// NewTelegramHandler creates a new TelegramHandler
func NewTelegramHandler(handler slog.Handler, alerter Alerter, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		alerter:  alerter,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
		group:    "",
	}
}

// Enabled implements slog.Handler.Enabled
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle
func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}
	if record.Level < h.minLevel || h.alerter == nil {
		return nil
	}

	msg := h.format(record)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerter.SendMessageWithLevel(msg, record.Level)
	return nil
}

func (h *TelegramHandler) format(record slog.Record) string {
	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	writeAttr := func(attr slog.Attr) {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
		} else {
			msg += tgalert.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	for _, attr := range h.attrs {
		writeAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(attr)
		return true
	})
	return msg
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		alerter:  h.alerter,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		alerter:  h.alerter,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}
