// Package tgalert forwards operational alerts to Telegram admin chats.
package tgalert

import (
	"fmt"
	"invitetrack/lib/sl"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// maxMessageLen is the Telegram limit for one text message.
const maxMessageLen = 4096

// Sender is the part of the Telegram api used for alerts.
type Sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

type Alerter struct {
	api     Sender
	chatIds []int64
	log     *slog.Logger
}

func New(apiKey string, chatIds []int64, log *slog.Logger) (*Alerter, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return NewWithSender(api, chatIds, log), nil
}

func NewWithSender(api Sender, chatIds []int64, log *slog.Logger) *Alerter {
	return &Alerter{
		api:     api,
		chatIds: chatIds,
		log:     log.With(sl.Module("tgalert")),
	}
}

// SendMessageWithLevel sends a MarkdownV2 message to every configured chat.
func (a *Alerter) SendMessageWithLevel(msg string, _ slog.Level) {
	for _, part := range splitMessage(msg, maxMessageLen) {
		for _, chatId := range a.chatIds {
			a.plainResponse(chatId, part)
		}
	}
}

func (a *Alerter) plainResponse(chatId int64, text string) {
	if text == "" {
		return
	}
	_, err := a.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		a.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = a.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			a.log.With(slog.Int64("id", chatId)).Warn("sending safe message", sl.Err(err))
		}
	}
}

// Sanitize escapes MarkdownV2 reserved characters.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*>~`"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}
