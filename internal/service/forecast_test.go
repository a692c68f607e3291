package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omarshaarawi/fplforecaster/internal/automation"
	"github.com/omarshaarawi/fplforecaster/internal/models"
	"github.com/omarshaarawi/fplforecaster/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

type fakeAPI struct {
	bootstrap      *models.BootstrapResponse
	bootstrapCalls int
	picks          []models.Pick
	picksErr       error
	predictions    []models.Prediction
	best15         []models.Prediction
	gotTeam, gotGW int
}

func (a *fakeAPI) GetBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	a.bootstrapCalls++
	return a.bootstrap, nil
}

func (a *fakeAPI) GetPicks(ctx context.Context, teamID, gameweek int) ([]models.Pick, error) {
	a.gotTeam, a.gotGW = teamID, gameweek
	return a.picks, a.picksErr
}

func (a *fakeAPI) GetPredictions(ctx context.Context) ([]models.Prediction, error) {
	return a.predictions, nil
}

func (a *fakeAPI) GetBest15(ctx context.Context) ([]models.Prediction, error) {
	return a.best15, nil
}

type fakeTransferer struct {
	outcome *automation.Outcome
	err     error
	calls   int
}

func (t *fakeTransferer) Transfer(ctx context.Context, outID, inID int) (*automation.Outcome, error) {
	t.calls++
	return t.outcome, t.err
}

type fakeSite struct {
	statuses []models.SiteStatus
	opened   int
}

func (s *fakeSite) Status(ctx context.Context) (models.SiteStatus, error) {
	st := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return st, nil
}

func (s *fakeSite) Open(ctx context.Context) error {
	s.opened++
	return nil
}

var ready = models.SiteStatus{URL: "https://fantasy.premierleague.com/my-team", OnSite: true, LoggedIn: true}

func newAPI() *fakeAPI {
	return &fakeAPI{
		bootstrap: &models.BootstrapResponse{
			Events: []models.Event{{ID: 30, Finished: true}, {ID: 31, IsCurrent: true}},
		},
		picks: []models.Pick{
			{Element: 328, Multiplier: n(2), IsCaptain: true},
			{Element: 351, Multiplier: n(1)},
			{Element: 3, Multiplier: n(0)},
		},
		predictions: []models.Prediction{
			{PlayerID: 328, Name: "Mohamed Salah", Position: "MID", RoundedPredicted: f(9)},
			{PlayerID: 401, Name: "Cole Palmer", Position: "MID", RoundedPredicted: f(7)},
			{PlayerID: 351, Name: "Erling Haaland", Position: "FWD", RoundedPredicted: f(8)},
			{PlayerID: 3, Name: "Bukayo Saka", Position: "MID", RoundedPredicted: f(4.5)},
		},
	}
}

func newService(api *fakeAPI, tr Transferer, site Site) *ForecastService {
	return NewForecastService(api, memory.NewRepository(), tr, site, 123456)
}

func TestGetTeamScores(t *testing.T) {
	api := newAPI()
	s := newService(api, nil, nil)

	score, err := s.GetTeamScore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 123456, api.gotTeam)
	assert.Equal(t, 31, api.gotGW)
	assert.Equal(t, 26.0, score.Total)
	require.Len(t, score.Players, 3)

	text, err := s.GetTeamScores(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Gameweek 31")
	assert.Contains(t, text, "*26*")
	assert.Contains(t, text, "MID Mohamed Salah (x2) - 18 pts")
	assert.Contains(t, text, "*Bench:*\n▫️ MID Bukayo Saka - 4.5 pts predicted")
}

func TestGetTeamScoresPicksError(t *testing.T) {
	api := newAPI()
	api.picksErr = errors.New("boom")
	s := newService(api, nil, nil)

	_, err := s.GetTeamScores(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestBootstrapIsCached(t *testing.T) {
	api := newAPI()
	s := newService(api, nil, nil)
	now := time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		gw, err := s.GetCurrentGameweek(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 31, gw)
	}
	assert.Equal(t, 1, api.bootstrapCalls)

	now = now.Add(bootstrapTTL + time.Minute)
	_, err := s.GetCurrentGameweek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.bootstrapCalls)
}

func TestTeamID(t *testing.T) {
	s := NewForecastService(newAPI(), memory.NewRepository(), nil, nil, 0)

	_, err := s.TeamID()
	assert.ErrorIs(t, err, ErrNoTeamID)

	assert.Error(t, s.SetTeamID(-1))
	require.NoError(t, s.SetTeamID(42))
	id, err := s.TeamID()
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestGetTopPlayers(t *testing.T) {
	s := newService(newAPI(), nil, nil)

	text, err := s.GetTopPlayers(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "*MID:*\n  1. Mohamed Salah - 9\n  2. Cole Palmer - 7\n  3. Bukayo Saka - 4.5\n")
	assert.Contains(t, text, "*GK:*\n  No predictions")
}

func TestGetBest15(t *testing.T) {
	api := newAPI()
	api.best15 = []models.Prediction{
		{PlayerID: 351, Name: "Erling Haaland", Position: "FWD", PredictedPoints: f(7.6), RoundedPredicted: f(8)},
		{PlayerID: 328, Name: "Mohamed Salah", Position: "MID", PredictedPoints: f(8.8), RoundedPredicted: f(9)},
		{PlayerID: 1, Name: "David Raya", Position: "GK", PredictedPoints: f(4.2), RoundedPredicted: f(4)},
	}
	s := newService(api, nil, nil)

	text, err := s.GetBest15(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Total Estimated Points: *30.0*")
	assert.Contains(t, text, "Captain: *Mohamed Salah* - 9")
	assert.Contains(t, text, "Vice Captain: *Erling Haaland* - 8")
	assert.Contains(t, text, "*GK:*\n▫️ David Raya - 4")

	api.best15 = nil
	_, err = s.GetBest15(context.Background())
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	s := newService(newAPI(), nil, nil)

	text, err := s.Compare(context.Background(), "palmer")
	require.NoError(t, err)
	assert.Contains(t, text, "*Cole Palmer* (MID) - 7")
	assert.Contains(t, text, "Your current MID players:")
	assert.Contains(t, text, "Mohamed Salah - 9 (id 328)")
	assert.Contains(t, text, "Bukayo Saka - 4.5 (id 3)")
	assert.NotContains(t, text, "Haaland")

	text, err = s.Compare(context.Background(), "qqqqqq")
	require.NoError(t, err)
	assert.Contains(t, text, "No player found")
}

func TestCompareLabelsPicksFromBootstrap(t *testing.T) {
	api := newAPI()
	api.bootstrap.Elements = []models.PlayerReference{{ID: 99, WebName: "Mbeumo", ElementType: 3}}
	api.bootstrap.ElementTypes = []models.ElementType{{ID: 3, SingularNameShort: "MID"}}
	api.picks = append(api.picks, models.Pick{Element: 99, Multiplier: n(1)})
	s := newService(api, nil, nil)

	text, err := s.Compare(context.Background(), "palmer")
	require.NoError(t, err)
	assert.Contains(t, text, "Mbeumo - N/A (id 99)")
	assert.Equal(t, 1, api.bootstrapCalls)
}

func TestReportsEscapeMarkdown(t *testing.T) {
	api := newAPI()
	api.predictions = append(api.predictions,
		models.Prediction{PlayerID: 7, Name: "Smith_Rowe", Position: "MID", RoundedPredicted: f(10)})
	s := newService(api, nil, nil)

	text, err := s.GetTopPlayers(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "1. Smith\\_Rowe - 10")

	text, err = s.Compare(context.Background(), "no_such*player")
	require.NoError(t, err)
	assert.Contains(t, text, "'no\\_such\\*player'")

	assert.Equal(t, "❌ Transfer failed: decode rounded\\_predicted",
		TransferFailureMessage(errors.New("decode rounded_predicted")))
}

func TestTransfer(t *testing.T) {
	tr := &fakeTransferer{outcome: &automation.Outcome{
		RunID:    "run-1",
		Outgoing: models.PlayerReference{ID: 328, WebName: "M.Salah"},
		Incoming: models.PlayerReference{ID: 401, WebName: "Palmer"},
		Duration: 14 * time.Second,
	}}
	site := &fakeSite{statuses: []models.SiteStatus{ready}}
	s := newService(newAPI(), tr, site)

	text, err := s.Transfer(context.Background(), 328, 401)
	require.NoError(t, err)
	assert.Contains(t, text, "Swapped *M.Salah* for *Palmer*")
	assert.Contains(t, text, "run run-1, 14s")
	assert.Zero(t, site.opened)
}

func TestTransferOpensSite(t *testing.T) {
	tr := &fakeTransferer{outcome: &automation.Outcome{}}
	site := &fakeSite{statuses: []models.SiteStatus{{URL: "about:blank"}, ready}}
	s := newService(newAPI(), tr, site)

	_, err := s.Transfer(context.Background(), 328, 401)
	require.NoError(t, err)
	assert.Equal(t, 1, site.opened)
	assert.Equal(t, 1, tr.calls)
}

func TestTransferRequiresLogin(t *testing.T) {
	tr := &fakeTransferer{}
	site := &fakeSite{statuses: []models.SiteStatus{{URL: "https://fantasy.premierleague.com/", OnSite: true}}}
	s := newService(newAPI(), tr, site)

	_, err := s.Transfer(context.Background(), 328, 401)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, tr.calls)
}

func TestTransferFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "step failure",
			err:  &automation.StepError{Step: automation.StepRemove, Kind: automation.KindRemoveControlNotFound, Err: errors.New("x")},
			want: "❌ Transfer failed at step 4 (remove player): the player to remove isn't in your squad view.",
		},
		{
			name: "busy",
			err:  &automation.StepError{Step: automation.StepNone, Kind: automation.KindBusy, Err: errors.New("x")},
			want: "❌ Transfer not started: another transfer is still running.",
		},
		{
			name: "other",
			err:  ErrNotLoggedIn,
			want: "❌ Transfer failed: browser is not signed in to Fantasy Premier League",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransferFailureMessage(tt.err))
		})
	}
}

func TestGetSiteStatus(t *testing.T) {
	site := &fakeSite{statuses: []models.SiteStatus{{URL: "https://fantasy.premierleague.com/", OnSite: true}}}
	s := newService(newAPI(), nil, site)

	text, err := s.GetSiteStatus(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Signed out")
}
