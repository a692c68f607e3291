package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/omarshaarawi/fplforecaster/internal/config"
	"github.com/omarshaarawi/fplforecaster/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecaster struct {
	mu        sync.Mutex
	refreshes int
	scoresErr error
}

func (f *fakeForecaster) GetTeamScores(ctx context.Context) (string, error) {
	return "report", f.scoresErr
}

func (f *fakeForecaster) RefreshBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return &models.BootstrapResponse{}, nil
}

func (f *fakeForecaster) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

var schedule = config.Schedule{
	Location:     "Europe/London",
	TeamReport:   "0 9 * * 5",
	CacheRefresh: 6 * time.Hour,
}

func TestStart(t *testing.T) {
	f := &fakeForecaster{}
	s, err := NewScheduler(schedule, f, func(string) error { return nil },
		gocron.WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer func() { assert.NoError(t, s.Stop()) }()

	var names []string
	for _, j := range s.s.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"team-report", "bootstrap-refresh"}, names)

	assert.Eventually(t, func() bool { return f.refreshCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestNewSchedulerBadLocation(t *testing.T) {
	cfg := schedule
	cfg.Location = "Nowhere/Atlantis"
	_, err := NewScheduler(cfg, &fakeForecaster{}, nil)
	assert.Error(t, err)
}

func TestStartBadCrontab(t *testing.T) {
	cfg := schedule
	cfg.TeamReport = "every friday"
	s, err := NewScheduler(cfg, &fakeForecaster{}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Start(), "team report job")
}

func TestSendTeamReport(t *testing.T) {
	var sent []string
	f := &fakeForecaster{}
	s, err := NewScheduler(schedule, f, func(text string) error {
		sent = append(sent, text)
		return nil
	})
	require.NoError(t, err)

	s.sendTeamReport()
	assert.Equal(t, []string{"report"}, sent)

	f.scoresErr = errors.New("down")
	s.sendTeamReport()
	assert.Len(t, sent, 1)
}
