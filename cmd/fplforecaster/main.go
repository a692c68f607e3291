package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/omarshaarawi/fplforecaster/internal/api"
	"github.com/omarshaarawi/fplforecaster/internal/api/fantasy"
	"github.com/omarshaarawi/fplforecaster/internal/api/fpl"
	"github.com/omarshaarawi/fplforecaster/internal/api/predictor"
	"github.com/omarshaarawi/fplforecaster/internal/automation"
	"github.com/omarshaarawi/fplforecaster/internal/bot"
	"github.com/omarshaarawi/fplforecaster/internal/browser"
	"github.com/omarshaarawi/fplforecaster/internal/config"
	"github.com/omarshaarawi/fplforecaster/internal/dom"
	"github.com/omarshaarawi/fplforecaster/internal/repository/memory"
	"github.com/omarshaarawi/fplforecaster/internal/scheduler"
	"github.com/omarshaarawi/fplforecaster/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fplAPI := fpl.NewAPI(api.NewClient(cfg.FPLAPI.BaseURL, cfg.FPLAPI.Timeout))
	predictorAPI := predictor.NewAPI(api.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout))
	fantasyAPI := fantasy.NewAPI(fplAPI, predictorAPI)

	session, err := browser.NewSession(ctx, cfg.Browser)
	if err != nil {
		return err
	}
	defer session.Close()

	waiter := dom.NewWaiter(session,
		dom.WithTimeout(cfg.Browser.WaitTimeout),
		dom.WithInterval(cfg.Browser.PollEvery),
	)
	automator := automation.New(session, waiter, fantasyAPI)

	repo := memory.NewRepository()
	forecastService := service.NewForecastService(fantasyAPI, repo, automator, session, cfg.FPLAPI.TeamID)

	telegramBot, err := bot.NewTelegramBot(cfg.TelegramBot.Token, cfg.TelegramBot.ChatID, forecastService)
	if err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(cfg.Schedule, forecastService, telegramBot.SendMessage)
	if err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		err := sched.Stop()
		if err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	http.HandleFunc("/", healthCheckHandler)

	go func() {
		if err := http.ListenAndServe(":80", nil); err != nil {
			slog.Error("Error starting HTTP server", "error", err)
		}
	}()

	go func() {
		if err := telegramBot.Start(ctx); err != nil {
			slog.Error("Error running telegram bot", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
