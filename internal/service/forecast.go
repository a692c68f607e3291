package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/fplforecaster/internal/api/fpl"
	"github.com/omarshaarawi/fplforecaster/internal/automation"
	"github.com/omarshaarawi/fplforecaster/internal/models"
	"github.com/omarshaarawi/fplforecaster/internal/repository/memory"
	"github.com/omarshaarawi/fplforecaster/internal/stats"
	"golang.org/x/sync/errgroup"
)

const bootstrapTTL = time.Hour

var (
	ErrNoTeamID    = errors.New("no team id set, use /teamid <id>")
	ErrNotLoggedIn = errors.New("browser is not signed in to Fantasy Premier League")
)

type FantasyAPI interface {
	GetBootstrap(ctx context.Context) (*models.BootstrapResponse, error)
	GetPicks(ctx context.Context, teamID, gameweek int) ([]models.Pick, error)
	GetPredictions(ctx context.Context) ([]models.Prediction, error)
	GetBest15(ctx context.Context) ([]models.Prediction, error)
}

type Transferer interface {
	Transfer(ctx context.Context, outID, inID int) (*automation.Outcome, error)
}

// Site is the browser tab the transfers are made in.
type Site interface {
	Status(ctx context.Context) (models.SiteStatus, error)
	Open(ctx context.Context) error
}

type ForecastService struct {
	api           FantasyAPI
	repo          *memory.Repository
	transferer    Transferer
	site          Site
	defaultTeamID int
	now           func() time.Time
}

func NewForecastService(api FantasyAPI, repo *memory.Repository, transferer Transferer, site Site, defaultTeamID int) *ForecastService {
	return &ForecastService{
		api:           api,
		repo:          repo,
		transferer:    transferer,
		site:          site,
		defaultTeamID: defaultTeamID,
		now:           time.Now,
	}
}

func (s *ForecastService) getBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	b, lastUpdated := s.repo.GetBootstrap()
	if b == nil || s.now().Sub(lastUpdated) > bootstrapTTL {
		return s.RefreshBootstrap(ctx)
	}
	return b, nil
}

// RefreshBootstrap fetches a fresh bootstrap snapshot into the cache.
func (s *ForecastService) RefreshBootstrap(ctx context.Context) (*models.BootstrapResponse, error) {
	b, err := s.api.GetBootstrap(ctx)
	if err != nil {
		return nil, err
	}
	s.repo.SaveBootstrap(b, s.now())
	slog.Info("Bootstrap refreshed", "players", len(b.Elements), "events", len(b.Events))
	return b, nil
}

func (s *ForecastService) GetCurrentGameweek(ctx context.Context) (int, error) {
	b, err := s.getBootstrap(ctx)
	if err != nil {
		return 0, err
	}
	gw, err := fpl.CurrentEvent(b)
	if err != nil {
		return 0, err
	}
	slog.Info("Current gameweek", "gameweek", gw)
	return gw, nil
}

func (s *ForecastService) TeamID() (int, error) {
	if id := s.repo.GetTeamID(); id != 0 {
		return id, nil
	}
	if s.defaultTeamID != 0 {
		return s.defaultTeamID, nil
	}
	return 0, ErrNoTeamID
}

func (s *ForecastService) SetTeamID(id int) error {
	if id <= 0 {
		return fmt.Errorf("invalid team id %d", id)
	}
	s.repo.SaveTeamID(id)
	slog.Info("Team id set", "team_id", id)
	return nil
}

// fetchSquad loads the user's picks for the current gameweek and the full
// prediction set concurrently.
func (s *ForecastService) fetchSquad(ctx context.Context) (int, int, []models.Pick, []models.Prediction, error) {
	teamID, err := s.TeamID()
	if err != nil {
		return 0, 0, nil, nil, err
	}
	gw, err := s.GetCurrentGameweek(ctx)
	if err != nil {
		return 0, 0, nil, nil, fmt.Errorf("error fetching current gameweek: %w", err)
	}

	var picks []models.Pick
	var preds []models.Prediction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		picks, err = s.api.GetPicks(gctx, teamID, gw)
		return err
	})
	g.Go(func() error {
		var err error
		preds, err = s.api.GetPredictions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, nil, nil, err
	}
	return teamID, gw, picks, preds, nil
}

func (s *ForecastService) GetTeamScore(ctx context.Context) (models.TeamScore, error) {
	teamID, gw, picks, preds, err := s.fetchSquad(ctx)
	if err != nil {
		return models.TeamScore{}, err
	}
	merged := stats.Merge(picks, preds)
	slog.Info("Merged team predictions", "team_id", teamID, "gameweek", gw,
		"picks", len(picks), "predictions", len(preds), "merged", len(merged.Players))
	return models.TeamScore{
		TeamID:   teamID,
		Gameweek: gw,
		Players:  merged.Players,
		Total:    merged.Total,
	}, nil
}

func (s *ForecastService) GetTeamScores(ctx context.Context) (string, error) {
	score, err := s.GetTeamScore(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching team scores: %w", err)
	}
	return formatTeamScore(score), nil
}

func formatTeamScore(score models.TeamScore) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 *Gameweek %d Predicted Points*\n\n", score.Gameweek))
	sb.WriteString(fmt.Sprintf("Total Estimated Points: *%s*\n\n", formatPoints(score.Total)))

	starters, bench := stats.Split(score.Players)

	sb.WriteString("*Starting Lineup:*\n")
	for _, p := range starters {
		label := ""
		if p.Multiplier > 1 {
			label = fmt.Sprintf(" (x%d)", p.Multiplier)
		}
		sb.WriteString(fmt.Sprintf("▫️ %s %s%s - %s pts\n", p.Position, escape(p.Name), label, formatPoints(p.AdjustedScore)))
	}

	if len(bench) > 0 {
		sb.WriteString("\n*Bench:*\n")
		for _, p := range bench {
			sb.WriteString(fmt.Sprintf("▫️ %s %s - %s pts predicted\n", p.Position, escape(p.Name), formatScore(p.RoundedPredicted)))
		}
	}

	return sb.String()
}

func (s *ForecastService) GetTopPlayers(ctx context.Context) (string, error) {
	preds, err := s.api.GetPredictions(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching predictions: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("⭐ *Best Predicted Players per Position*\n\n")
	for _, group := range stats.TopByPosition(preds, stats.TopPerPosition) {
		sb.WriteString(fmt.Sprintf("*%s:*\n", group.Position))
		if len(group.Players) == 0 {
			sb.WriteString("  No predictions\n\n")
			continue
		}
		for i, p := range group.Players {
			sb.WriteString(fmt.Sprintf("  %d. %s - %s\n", i+1, escape(p.Name), formatScore(p.RoundedPredicted)))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (s *ForecastService) GetBest15(ctx context.Context) (string, error) {
	squad, err := s.api.GetBest15(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching best 15: %w", err)
	}
	team, err := stats.BestTeam(squad)
	if err != nil {
		return "", fmt.Errorf("error building best 15: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("🏆 *Best Predicted Team*\n\n")
	sb.WriteString(fmt.Sprintf("Total Estimated Points: *%.1f*\n\n", team.Total))
	sb.WriteString(fmt.Sprintf("👑 Captain: *%s* - %s\n", escape(team.Captain.Name), formatScore(team.Captain.RoundedPredicted)))
	if team.ViceCaptain != nil {
		sb.WriteString(fmt.Sprintf("🥈 Vice Captain: *%s* - %s\n", escape(team.ViceCaptain.Name), formatScore(team.ViceCaptain.RoundedPredicted)))
	}
	for _, group := range team.Groups {
		if len(group.Players) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n*%s:*\n", group.Position))
		for _, p := range group.Players {
			sb.WriteString(fmt.Sprintf("▫️ %s - %s\n", escape(p.Name), formatScore(p.RoundedPredicted)))
		}
	}
	return sb.String(), nil
}

func (s *ForecastService) Compare(ctx context.Context, playerName string) (string, error) {
	_, _, picks, preds, err := s.fetchSquad(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching team: %w", err)
	}

	refs, err := s.getBootstrap(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching player data: %w", err)
	}

	selected, ok := stats.FindPrediction(preds, playerName)
	if !ok {
		return fmt.Sprintf("🔍 No player found matching '%s'.", escape(playerName)), nil
	}
	cmp := stats.Compare(selected, picks, preds, refs)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* (%s) - %s\n", escape(selected.Name), selected.Position, formatScore(selected.RoundedPredicted)))
	sb.WriteString("━━━━━━━━━━━━━━━━\n")

	position := selected.Position
	if position == "" {
		position = "Team"
	}
	sb.WriteString(fmt.Sprintf("Your current %s players:\n", position))
	if len(cmp.TeamPlayers) == 0 {
		sb.WriteString("None")
		return sb.String(), nil
	}
	for _, p := range cmp.TeamPlayers {
		sb.WriteString(fmt.Sprintf("▫️ %s - %s (id %d)\n", escape(p.Name), formatScore(p.Predicted), p.PlayerID))
	}
	return sb.String(), nil
}

// Transfer swaps outID for inID in the browser tab and reports the result.
func (s *ForecastService) Transfer(ctx context.Context, outID, inID int) (string, error) {
	status, err := s.site.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking browser: %w", err)
	}
	if !status.OnSite {
		slog.Info("Browser is not on FPL, opening it", "url", status.URL)
		if err := s.site.Open(ctx); err != nil {
			return "", fmt.Errorf("error opening FPL: %w", err)
		}
		if status, err = s.site.Status(ctx); err != nil {
			return "", fmt.Errorf("error checking browser: %w", err)
		}
	}
	if !status.LoggedIn {
		return "", ErrNotLoggedIn
	}

	outcome, err := s.transferer.Transfer(ctx, outID, inID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("✅ Swapped *%s* for *%s*\nConfirm the transfer on the site to make it final.\n_run %s, %s_",
		escape(outcome.Outgoing.WebName), escape(outcome.Incoming.WebName),
		outcome.RunID, outcome.Duration.Round(time.Second)), nil
}

var transferReasons = map[automation.Kind]string{
	automation.KindNavigationNotFound:    "couldn't find the Transfers link",
	automation.KindElementNotFound:       "the transfers page didn't finish loading",
	automation.KindPlayersNotResolved:    "one of the player ids doesn't exist",
	automation.KindRemoveControlNotFound: "the player to remove isn't in your squad view",
	automation.KindAddControlNotFound:    "the player to add didn't show up in search",
	automation.KindFetchFailed:           "FPL player data couldn't be fetched",
	automation.KindInteractionFailed:     "the page rejected a click or input",
	automation.KindBusy:                  "another transfer is still running",
	automation.KindCanceled:              "it was interrupted",
}

// TransferFailureMessage turns a transfer error into a message for the user.
func TransferFailureMessage(err error) string {
	var se *automation.StepError
	if errors.As(err, &se) {
		reason := transferReasons[se.Kind]
		if se.Step != automation.StepNone {
			return fmt.Sprintf("❌ Transfer failed at step %d (%s): %s.", se.Step, se.Step, reason)
		}
		return fmt.Sprintf("❌ Transfer not started: %s.", reason)
	}
	return fmt.Sprintf("❌ Transfer failed: %s", escape(err.Error()))
}

func (s *ForecastService) GetSiteStatus(ctx context.Context) (string, error) {
	status, err := s.site.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("error checking browser: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("🖥 *Browser*\n")
	sb.WriteString(fmt.Sprintf("Page: %s\n", escape(status.URL)))
	switch {
	case !status.OnSite:
		sb.WriteString("Not on Fantasy Premier League")
	case !status.LoggedIn:
		sb.WriteString("Signed out, please sign in")
	default:
		sb.WriteString("Signed in and ready")
	}
	return sb.String(), nil
}

// escape neutralises Markdown markup in text that comes from outside.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return formatPoints(*v)
}
