package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	TelegramBot TelegramBot
	FPLAPI      FPLAPI
	Predictor   Predictor
	Browser     Browser
	Schedule    Schedule
}

type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN" required:"true"`
	ChatID int64  `envconfig:"CHAT_ID" required:"true"`
}

type FPLAPI struct {
	BaseURL string        `envconfig:"FPL_BASE_URL" default:"https://fantasy.premierleague.com/api"`
	TeamID  int           `envconfig:"FPL_TEAM_ID"`
	Timeout time.Duration `envconfig:"FPL_TIMEOUT" default:"10s"`
}

type Predictor struct {
	BaseURL string        `envconfig:"PREDICTOR_URL" default:"http://localhost:5000"`
	Timeout time.Duration `envconfig:"PREDICTOR_TIMEOUT" default:"30s"`
}

type Browser struct {
	// RemoteURL points at an already running Chrome's devtools endpoint.
	// When empty a local Chrome is launched.
	RemoteURL   string        `envconfig:"CHROME_URL"`
	SiteURL     string        `envconfig:"FPL_SITE_URL" default:"https://fantasy.premierleague.com"`
	UserDataDir string        `envconfig:"CHROME_USER_DATA_DIR"`
	Headless    bool          `envconfig:"CHROME_HEADLESS" default:"false"`
	WaitTimeout time.Duration `envconfig:"ELEMENT_WAIT_TIMEOUT" default:"15s"`
	PollEvery   time.Duration `envconfig:"ELEMENT_POLL_INTERVAL" default:"500ms"`
}

type Schedule struct {
	Location     string        `envconfig:"SCHEDULE_TZ" default:"Europe/London"`
	TeamReport   string        `envconfig:"TEAM_REPORT_CRON" default:"0 9 * * 5"`
	CacheRefresh time.Duration `envconfig:"BOOTSTRAP_REFRESH" default:"6h"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if _, err := cron.ParseStandard(c.Schedule.TeamReport); err != nil {
		return fmt.Errorf("invalid TEAM_REPORT_CRON %q: %w", c.Schedule.TeamReport, err)
	}
	if c.Browser.PollEvery <= 0 {
		return fmt.Errorf("ELEMENT_POLL_INTERVAL must be positive, got %s", c.Browser.PollEvery)
	}
	if c.Browser.WaitTimeout < c.Browser.PollEvery {
		return fmt.Errorf("ELEMENT_WAIT_TIMEOUT (%s) is shorter than ELEMENT_POLL_INTERVAL (%s)",
			c.Browser.WaitTimeout, c.Browser.PollEvery)
	}
	return nil
}
