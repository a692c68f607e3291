package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, s.err
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.sent {
		out = append(out, m.Text)
	}
	return out
}

// blockingForecaster holds transfers until release is closed.
type blockingForecaster struct {
	fakeForecaster
	release chan struct{}
}

func (f *blockingForecaster) Transfer(ctx context.Context, outID, inID int) (string, error) {
	<-f.release
	return "transferred", nil
}

func newTestBot(f Forecaster, s *fakeSender) *TelegramBot {
	return &TelegramBot{sender: s, handler: NewHandler(f, ownerChat), chatID: ownerChat}
}

func TestServeRunsCommandsConcurrently(t *testing.T) {
	f := &blockingForecaster{release: make(chan struct{})}
	s := &fakeSender{}
	b := newTestBot(f, s)

	updates := make(chan tgbotapi.Update)
	done := make(chan struct{})
	go func() {
		b.serve(context.Background(), updates)
		close(done)
	}()

	updates <- command(ownerChat, "/transfer 328 401")
	updates <- tgbotapi.Update{}
	updates <- command(ownerChat, "/status")

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"status"}, s.texts())
	}, time.Second, 5*time.Millisecond)

	close(f.release)
	close(updates)
	<-done

	assert.ElementsMatch(t, []string{"status", "transferred"}, s.texts())
}

func TestServeStopsOnCancel(t *testing.T) {
	s := &fakeSender{}
	b := newTestBot(&fakeForecaster{}, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.serve(ctx, make(chan tgbotapi.Update))

	assert.Empty(t, s.texts())
}

func TestSendMessage(t *testing.T) {
	s := &fakeSender{}
	b := newTestBot(&fakeForecaster{}, s)

	require.NoError(t, b.SendMessage("*report*"))
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(ownerChat), s.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, s.sent[0].ParseMode)

	s.err = errors.New("flood wait")
	assert.ErrorContains(t, b.SendMessage("again"), "flood wait")

	b.chatID = 0
	assert.ErrorIs(t, b.SendMessage("x"), ErrNoChatID)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{""}, splitMessage("", 10))

	assert.Equal(t, []string{"aaa\nbbb\n", "ccc"}, splitMessage("aaa\nbbb\nccc", 8))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, splitMessage("abcdefghij", 4))

	long := strings.Repeat("▫️ Mohamed Salah - 9\n", 400)
	parts := splitMessage(long, maxMessageLength)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), maxMessageLength)
	}
	assert.Equal(t, long, strings.Join(parts, ""))
}
