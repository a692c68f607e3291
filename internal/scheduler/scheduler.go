package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/omarshaarawi/fplforecaster/internal/config"
	"github.com/omarshaarawi/fplforecaster/internal/models"
)

const taskTimeout = 2 * time.Minute

type Forecaster interface {
	GetTeamScores(ctx context.Context) (string, error)
	RefreshBootstrap(ctx context.Context) (*models.BootstrapResponse, error)
}

type Scheduler struct {
	s           gocron.Scheduler
	cfg         config.Schedule
	forecaster  Forecaster
	sendMessage func(string) error
}

func NewScheduler(cfg config.Schedule, forecaster Forecaster, sendMessage func(string) error, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %q: %w", cfg.Location, err)
	}

	s, err := gocron.NewScheduler(
		append([]gocron.SchedulerOption{gocron.WithLocation(location)}, opts...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		cfg:         cfg,
		forecaster:  forecaster,
		sendMessage: sendMessage,
	}, nil
}

func (s *Scheduler) Start() error {
	// Team report, Friday morning before the usual deadline by default
	_, err := s.s.NewJob(
		gocron.CronJob(s.cfg.TeamReport, false),
		gocron.NewTask(s.sendTeamReport),
		gocron.WithName("team-report"),
	)
	if err != nil {
		return fmt.Errorf("failed to create team report job: %w", err)
	}

	_, err = s.s.NewJob(
		gocron.DurationJob(s.cfg.CacheRefresh),
		gocron.NewTask(s.refreshBootstrap),
		gocron.WithName("bootstrap-refresh"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap refresh job: %w", err)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) sendTeamReport() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	report, err := s.forecaster.GetTeamScores(ctx)
	if err != nil {
		slog.Error("Failed to get team scores", "error", err)
		return
	}
	if err := s.sendMessage(report); err != nil {
		slog.Error("Failed to send team report", "error", err)
	}
}

func (s *Scheduler) refreshBootstrap() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if _, err := s.forecaster.RefreshBootstrap(ctx); err != nil {
		slog.Error("Failed to refresh bootstrap", "error", err)
	}
}
