// Package telegram adapts the Telegram Bot API (via telebot) to the
// messaging port the core consumes.
package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczyk/reactions-bot/internal/handler"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type Adapter struct {
	bot *tele.Bot
	log *zap.SugaredLogger
}

func New(token string, log *zap.SugaredLogger) (*Adapter, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			// one bad event must not take the process down
			log.Errorw("event handler failed", "err", err)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{bot: bot, log: log}, nil
}

// Listen registers the update routes and blocks polling for updates.
func (a *Adapter) Listen(h *handler.UpdateHandler) error {
	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		return h.OnMessage(context.Background(), incomingMessage(c.Message(), true))
	})
	for _, kind := range []string{tele.OnPhoto, tele.OnSticker} {
		a.bot.Handle(kind, func(c tele.Context) error {
			return h.OnMessage(context.Background(), incomingMessage(c.Message(), false))
		})
	}
	a.bot.Handle(tele.OnEdited, func(c tele.Context) error {
		msg := incomingMessage(c.Message(), true)
		msg.IsEdited = true
		return h.OnMessage(context.Background(), msg)
	})

	a.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		incoming := transport.IncomingCallback{
			ID:             cb.ID,
			Data:           strings.TrimPrefix(cb.Data, "\f"),
			FromAuthorID:   cb.Sender.ID,
			FromAuthorName: displayName(cb.Sender),
		}
		if cb.Message != nil {
			incoming.MessageID = int64(cb.Message.ID)
			incoming.ChatID = cb.Message.Chat.ID
			if cb.Message.ReplyTo != nil {
				incoming.ReplyToID = int64(cb.Message.ReplyTo.ID)
			}
		}
		return h.OnCallback(context.Background(), incoming)
	})

	var botCommands []tele.Command
	for _, cmd := range h.Commands() {
		cmd := cmd
		botCommands = append(botCommands, tele.Command{Text: cmd.Name, Description: cmd.Description})
		a.bot.Handle("/"+cmd.Name, func(c tele.Context) error {
			return h.OnCommand(context.Background(), cmd.Name, incomingMessage(c.Message(), true), c.Args())
		})
	}
	if err := a.bot.SetCommands(botCommands); err != nil {
		a.log.Warnw("failed to register bot commands", "err", err)
	}

	a.bot.Start()
	return nil
}

func (a *Adapter) SendMessage(ctx context.Context, chatID int64, opts transport.SendOptions) (transport.SentMessage, error) {
	sendOpts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if opts.ParentID != 0 {
		sendOpts.ReplyTo = &tele.Message{ID: int(opts.ParentID), Chat: &tele.Chat{ID: chatID}}
	}
	if opts.Buttons != nil {
		sendOpts.ReplyMarkup = markupFor(opts.Buttons)
	}
	sent, err := a.bot.Send(tele.ChatID(chatID), opts.Text, sendOpts)
	if err != nil {
		return transport.SentMessage{}, err
	}
	return transport.SentMessage{ID: int64(sent.ID), ChatID: sent.Chat.ID}, nil
}

func (a *Adapter) EditText(ctx context.Context, chatID, messageID int64, text string) error {
	_, err := a.bot.Edit(stored(chatID, messageID), text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

func (a *Adapter) EditButtons(ctx context.Context, chatID, messageID int64, buttons [][]transport.Button) error {
	_, err := a.bot.EditReplyMarkup(stored(chatID, messageID), markupFor(buttons))
	return err
}

func (a *Adapter) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return a.bot.Delete(stored(chatID, messageID))
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string) error {
	return a.bot.Respond(&tele.Callback{ID: callbackID})
}

func stored(chatID, messageID int64) tele.StoredMessage {
	return tele.StoredMessage{
		MessageID: strconv.FormatInt(messageID, 10),
		ChatID:    chatID,
	}
}

func markupFor(buttons [][]transport.Button) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(buttons))
	for _, row := range buttons {
		teleRow := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			teleRow = append(teleRow, tele.InlineButton{Text: b.Label, Data: b.Data})
		}
		rows = append(rows, teleRow)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func incomingMessage(m *tele.Message, hasText bool) transport.IncomingMessage {
	incoming := transport.IncomingMessage{
		ID:      int64(m.ID),
		ChatID:  m.Chat.ID,
		Text:    m.Text,
		HasText: hasText,
	}
	if m.Sender != nil {
		incoming.AuthorID = m.Sender.ID
		incoming.AuthorName = displayName(m.Sender)
	}
	if m.ReplyTo != nil {
		incoming.ReplyToID = int64(m.ReplyTo.ID)
	}
	return incoming
}

// displayName prefers the username and falls back to the first name, the
// same snapshot rule the store uses for attribution.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
