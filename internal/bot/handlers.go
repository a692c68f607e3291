package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/fplforecaster/internal/service"
)

const helpText = "Available commands:\n" +
	"/scores - Predicted points for your team this gameweek\n" +
	"/top - Best predicted players per position\n" +
	"/best15 - Best predicted squad with captain picks\n" +
	"/compare <player> - Compare a player with your players in the same position\n" +
	"/transfer <out id> <in id> - Swap a player on the FPL site\n" +
	"/teamid <id> - Set the FPL team to report on\n" +
	"/status - Check the automation browser"

// Forecaster is the set of reports the bot can serve.
type Forecaster interface {
	GetTeamScores(ctx context.Context) (string, error)
	GetTopPlayers(ctx context.Context) (string, error)
	GetBest15(ctx context.Context) (string, error)
	Compare(ctx context.Context, playerName string) (string, error)
	Transfer(ctx context.Context, outID, inID int) (string, error)
	SetTeamID(id int) error
	GetSiteStatus(ctx context.Context) (string, error)
}

type Handler struct {
	forecaster Forecaster
	chatID     int64
}

// NewHandler builds a Handler. Commands that change state are only accepted
// from chatID.
func NewHandler(forecaster Forecaster, chatID int64) *Handler {
	return &Handler{forecaster: forecaster, chatID: chatID}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := update.Message.CommandArguments()
	msg.ParseMode = tgbotapi.ModeMarkdown

	switch command {
	case "start":
		msg.Text = "Welcome to FPL Forecaster! Use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "scores":
		h.handleScores(ctx, &msg)
	case "top":
		h.handleTop(ctx, &msg)
	case "best15":
		h.handleBest15(ctx, &msg)
	case "compare":
		h.handleCompare(ctx, &msg, args)
	case "transfer":
		if !h.allowed(update) {
			msg.Text = "Transfers can only be made from the owner's chat."
			return msg
		}
		h.handleTransfer(ctx, &msg, args)
	case "teamid":
		if !h.allowed(update) {
			msg.Text = "The team can only be changed from the owner's chat."
			return msg
		}
		h.handleTeamID(&msg, args)
	case "status":
		h.handleStatus(ctx, &msg)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) allowed(update tgbotapi.Update) bool {
	return update.Message.Chat.ID == h.chatID
}

// errorText renders err for a Markdown reply. Error strings often carry
// identifiers like rounded_predicted that would unbalance the markup.
func errorText(prefix string, err error) string {
	return prefix + ": " + tgbotapi.EscapeText(tgbotapi.ModeMarkdown, err.Error())
}

func (h *Handler) handleScores(ctx context.Context, msg *tgbotapi.MessageConfig) {
	scores, err := h.forecaster.GetTeamScores(ctx)
	if err != nil {
		msg.Text = errorText("Error fetching scores", err)
	} else {
		msg.Text = scores
	}
}

func (h *Handler) handleTop(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.forecaster.GetTopPlayers(ctx)
	if err != nil {
		msg.Text = errorText("Error fetching top players", err)
	} else {
		msg.Text = report
	}
}

func (h *Handler) handleBest15(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.forecaster.GetBest15(ctx)
	if err != nil {
		msg.Text = errorText("Error fetching best 15", err)
	} else {
		msg.Text = report
	}
}

func (h *Handler) handleCompare(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if strings.TrimSpace(args) == "" {
		msg.Text = "Please provide a player name. Usage: /compare <player name>"
		return
	}
	result, err := h.forecaster.Compare(ctx, args)
	if err != nil {
		msg.Text = errorText("Error comparing player", err)
	} else {
		msg.Text = result
	}
}

func (h *Handler) handleTransfer(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		msg.Text = "Please provide two player ids. Usage: /transfer <out id> <in id>"
		return
	}
	outID, err1 := strconv.Atoi(fields[0])
	inID, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || outID <= 0 || inID <= 0 {
		msg.Text = "Player ids must be positive numbers. Usage: /transfer <out id> <in id>"
		return
	}

	result, err := h.forecaster.Transfer(ctx, outID, inID)
	if err != nil {
		msg.Text = service.TransferFailureMessage(err)
	} else {
		msg.Text = result
	}
}

func (h *Handler) handleTeamID(msg *tgbotapi.MessageConfig, args string) {
	id, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		msg.Text = "Please provide a numeric team id. Usage: /teamid <id>"
		return
	}
	if err := h.forecaster.SetTeamID(id); err != nil {
		msg.Text = errorText("Error setting team id", err)
		return
	}
	msg.Text = fmt.Sprintf("Team id set to %d.", id)
}

func (h *Handler) handleStatus(ctx context.Context, msg *tgbotapi.MessageConfig) {
	status, err := h.forecaster.GetSiteStatus(ctx)
	if err != nil {
		msg.Text = errorText("Error checking browser", err)
	} else {
		msg.Text = status
	}
}
