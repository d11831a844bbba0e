package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mkowalczyk/reactions-bot/internal/config"
	"github.com/mkowalczyk/reactions-bot/internal/service"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"go.uber.org/zap"
)

// Command is one bot command: plain data plus a handler func. The registry is
// an ordered list so help output stays stable.
type Command struct {
	Name        string
	Description string
	Usage       string
	Handler     func(ctx context.Context, msg transport.IncomingMessage, args []string) error
}

// errUsage marks argument errors that should be answered with the command's
// usage line instead of failing the event.
var errUsage = errors.New("bad command arguments")

// UpdateHandler is the transport-facing entry point: the adapter converts
// platform updates into the transport value types and calls these methods.
type UpdateHandler struct {
	cfg       *config.Config
	reactions service.ReactionService
	reports   service.ReportService
	messenger transport.Messenger
	commands  []Command
	log       *zap.SugaredLogger
}

func NewUpdateHandler(
	cfg *config.Config,
	reactions service.ReactionService,
	reports service.ReportService,
	messenger transport.Messenger,
	log *zap.SugaredLogger,
) *UpdateHandler {
	h := &UpdateHandler{
		cfg:       cfg,
		reactions: reactions,
		reports:   reports,
		messenger: messenger,
		log:       log,
	}
	h.commands = []Command{
		{
			Name:        "help",
			Description: "Show this help message.",
			Usage:       "/help",
			Handler:     h.cmdHelp,
		},
		{
			Name:        "ranking",
			Description: "Show the ranking of users ordered by the received and given reactions.",
			Usage:       "/ranking [days]",
			Handler:     h.cmdRanking,
		},
		{
			Name:        "top",
			Description: "Show the most reacted messages.",
			Usage:       "/top [days] [number of messages] [@author]",
			Handler:     h.cmdTop,
		},
	}
	return h
}

func (h *UpdateHandler) Commands() []Command {
	return h.commands
}

func (h *UpdateHandler) OnMessage(ctx context.Context, msg transport.IncomingMessage) error {
	h.log.Infow("message received", "chat_id", msg.ChatID)
	return h.reactions.HandleMessage(ctx, msg)
}

func (h *UpdateHandler) OnCallback(ctx context.Context, cb transport.IncomingCallback) error {
	return h.reactions.HandleCallback(ctx, cb)
}

// OnCommand runs a registered command, converting argument errors into a
// user-visible usage reply.
func (h *UpdateHandler) OnCommand(ctx context.Context, name string, msg transport.IncomingMessage, args []string) error {
	for _, cmd := range h.commands {
		if cmd.Name != name {
			continue
		}
		err := cmd.Handler(ctx, msg, args)
		if errors.Is(err, errUsage) {
			return h.reply(ctx, msg, "Usage: "+cmd.Usage)
		}
		return err
	}
	return fmt.Errorf("unknown command %q", name)
}

func (h *UpdateHandler) reply(ctx context.Context, msg transport.IncomingMessage, text string) error {
	_, err := h.messenger.SendMessage(ctx, msg.ChatID, transport.SendOptions{
		ParentID: msg.ID,
		Text:     text,
	})
	return err
}

func (h *UpdateHandler) cmdHelp(ctx context.Context, msg transport.IncomingMessage, args []string) error {
	if len(args) > 0 {
		return errUsage
	}
	return h.reply(ctx, msg, helpText(h.cfg, h.commands))
}

func (h *UpdateHandler) cmdRanking(ctx context.Context, msg transport.IncomingMessage, args []string) error {
	days := service.DefaultRankingDays
	if len(args) > 1 {
		return errUsage
	}
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		if parsed < 1 {
			return h.reply(ctx, msg, "Days argument must be >= 1.")
		}
		days = parsed
	}
	return h.reports.SendRanking(ctx, msg.ChatID, msg.ID, days)
}

func (h *UpdateHandler) cmdTop(ctx context.Context, msg transport.IncomingMessage, args []string) error {
	if len(args) > 3 {
		return errUsage
	}

	days := service.DefaultRankingDays
	count := service.DefaultTopMessageCount
	author := ""

	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		if parsed < 1 {
			return h.reply(ctx, msg, "Days argument must be >= 1.")
		}
		days = parsed
	}
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		if parsed < 1 || parsed > service.MaxTopMessageCount {
			return h.reply(ctx, msg, fmt.Sprintf("Number of messages must be between 1 and %d.", service.MaxTopMessageCount))
		}
		count = parsed
	}
	if len(args) > 2 {
		author = args[2]
	}

	return h.reports.SendTopMessages(ctx, msg.ChatID, days, count, author)
}
