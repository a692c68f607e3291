package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

var ErrNoChatID = errors.New("chat ID not set")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramBot struct {
	api     *tgbotapi.BotAPI
	sender  sender
	handler *Handler
	chatID  int64
}

func NewTelegramBot(token string, chatID int64, forecaster Forecaster) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &TelegramBot{
		api:     api,
		sender:  api,
		handler: NewHandler(forecaster, chatID),
		chatID:  chatID,
	}, nil
}

// Start long-polls for updates until ctx is done. Commands run
// concurrently so a slow transfer does not hold up /status.
func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Authorized on account", "username", t.api.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	t.serve(ctx, updates)
	return nil
}

// serve dispatches commands from updates and returns once ctx is done and
// every running command has replied.
func (t *TelegramBot) serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			slog.Info("Command received", "command", update.Message.Command(), "chat_id", update.Message.Chat.ID)

			wg.Add(1)
			go func() {
				defer wg.Done()
				msg := t.handler.HandleCommand(ctx, update)
				t.send(msg)
			}()
		case <-ctx.Done():
			return
		}
	}
}

// SendMessage posts text to the configured chat, split into as many
// messages as the length limit requires.
func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		slog.Error("Chat ID not set")
		return ErrNoChatID
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return t.send(msg)
}

func (t *TelegramBot) send(msg tgbotapi.MessageConfig) error {
	var errs []error
	for _, part := range splitMessage(msg.Text, maxMessageLength) {
		msg.Text = part
		if _, err := t.sender.Send(msg); err != nil {
			slog.Error("Error sending message", "chat_id", msg.ChatID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// splitMessage cuts text into chunks of at most limit runes, preferring
// line boundaries so Markdown spans are not broken mid-line.
func splitMessage(text string, limit int) []string {
	var parts []string
	var current strings.Builder
	size := 0

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}
		if size+len(runes) > limit {
			flush()
		}
		current.WriteString(string(runes))
		size += len(runes)
	}
	flush()

	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}
