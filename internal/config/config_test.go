package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("CHAT_ID", "42")
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := New()
		require.NoError(t, err)

		assert.Equal(t, int64(42), cfg.TelegramBot.ChatID)
		assert.Equal(t, "https://fantasy.premierleague.com/api", cfg.FPLAPI.BaseURL)
		assert.Equal(t, "http://localhost:5000", cfg.Predictor.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.Browser.WaitTimeout)
		assert.Equal(t, 500*time.Millisecond, cfg.Browser.PollEvery)
		assert.Equal(t, "0 9 * * 5", cfg.Schedule.TeamReport)
		assert.Zero(t, cfg.FPLAPI.TeamID)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("FPL_TEAM_ID", "123456")
		t.Setenv("ELEMENT_WAIT_TIMEOUT", "10s")
		t.Setenv("CHROME_URL", "ws://127.0.0.1:9222")

		cfg, err := New()
		require.NoError(t, err)

		assert.Equal(t, 123456, cfg.FPLAPI.TeamID)
		assert.Equal(t, 10*time.Second, cfg.Browser.WaitTimeout)
		assert.Equal(t, "ws://127.0.0.1:9222", cfg.Browser.RemoteURL)
	})

	t.Run("missing token", func(t *testing.T) {
		// t.Setenv restores the previous value on cleanup; the key has to be
		// absent, not empty, for envconfig's required check.
		t.Setenv("TELEGRAM_TOKEN", "")
		require.NoError(t, os.Unsetenv("TELEGRAM_TOKEN"))
		t.Setenv("CHAT_ID", "42")

		_, err := New()
		assert.Error(t, err)
	})

	t.Run("bad crontab", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TEAM_REPORT_CRON", "every friday")

		_, err := New()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEAM_REPORT_CRON")
	})

	t.Run("timeout shorter than interval", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ELEMENT_WAIT_TIMEOUT", "100ms")

		_, err := New()
		assert.Error(t, err)
	})
}
