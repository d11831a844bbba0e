package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mkowalczyk/reactions-bot/internal/ident"
	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// emptyMsg is two soft hyphens: renders as a blank body under the button
	// row without the platform rejecting an empty text.
	emptyMsg  = "­­"
	infoEmoji = "ℹ️"

	maxButtonsPerRow = 4

	// CallbackShowReactions and CallbackHideReactions are the wire payloads
	// of the summary-toggle button.
	CallbackShowReactions = "show_reactions"
	CallbackHideReactions = "hide_reactions"
)

// ReconcilerService keeps the single bot-authored summary message of a parent
// in sync with its current votes: created on the first vote, edited while
// votes change, deleted when the last vote is retracted.
type ReconcilerService interface {
	Reconcile(ctx context.Context, parentID, chatID int64) error
	ToggleExpanded(ctx context.Context, cmd string, parentID, summaryID, chatID int64) error
}

type reconcilerService struct {
	messages          repository.MessageRepository
	reactions         repository.ReactionRepository
	messenger         transport.Messenger
	showSummaryButton bool
	log               *zap.SugaredLogger
}

func NewReconcilerService(
	messages repository.MessageRepository,
	reactions repository.ReactionRepository,
	messenger transport.Messenger,
	showSummaryButton bool,
	log *zap.SugaredLogger,
) ReconcilerService {
	return &reconcilerService{
		messages:          messages,
		reactions:         reactions,
		messenger:         messenger,
		showSummaryButton: showSummaryButton,
		log:               log,
	}
}

func (s *reconcilerService) Reconcile(ctx context.Context, parentID, chatID int64) error {
	parentKey := ident.Key(parentID, chatID)

	summary, err := s.messages.FindSummary(ctx, parentKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	aggs, err := s.reactions.AggregateByType(ctx, parentKey)
	if err != nil {
		return err
	}

	// The info button occupies a slot of its own, so "no reactions left" is
	// one button when it is enabled and zero otherwise.
	emptyThreshold := 0
	buttonCount := len(aggs)
	if s.showSummaryButton {
		emptyThreshold = 1
		buttonCount++
	}

	if buttonCount == emptyThreshold {
		if summary == nil {
			return nil
		}
		if err := s.messages.DeleteSummary(ctx, parentKey); err != nil {
			return err
		}
		return transport.DeleteWithRetries(ctx, s.messenger, chatID, summary.OriginalID)
	}

	if summary == nil {
		buttons := s.buildButtons(aggs, false)
		sent, err := s.messenger.SendMessage(ctx, chatID, transport.SendOptions{
			ParentID: parentID,
			Text:     emptyMsg,
			Buttons:  buttons,
		})
		if err != nil {
			return err
		}
		return s.messages.Save(ctx, &model.Message{
			ID:            ident.Key(sent.ID, sent.ChatID),
			OriginalID:    sent.ID,
			ChatID:        sent.ChatID,
			Parent:        &parentKey,
			IsBotReaction: true,
		})
	}

	if summary.Expanded {
		text, err := s.expandedText(ctx, parentKey, aggs)
		if err != nil {
			return err
		}
		if err := s.messenger.EditText(ctx, chatID, summary.OriginalID, text); err != nil {
			return err
		}
	}
	return s.messenger.EditButtons(ctx, chatID, summary.OriginalID, s.buildButtons(aggs, summary.Expanded))
}

// ToggleExpanded switches the summary message between the collapsed and the
// per-author attribution view. A toggle that finds the message already in the
// requested state is a no-op: near-simultaneous presses are expected.
func (s *reconcilerService) ToggleExpanded(ctx context.Context, cmd string, parentID, summaryID, chatID int64) error {
	summaryKey := ident.Key(summaryID, chatID)

	summary, err := s.messages.FindByID(ctx, summaryKey)
	if err != nil {
		return err
	}
	if (cmd == CallbackShowReactions && summary.Expanded) ||
		(cmd == CallbackHideReactions && !summary.Expanded) {
		return nil
	}

	parentKey := ident.Key(parentID, chatID)
	aggs, err := s.reactions.AggregateByType(ctx, parentKey)
	if err != nil {
		return err
	}

	expanded := cmd == CallbackShowReactions
	text := emptyMsg
	if expanded {
		if text, err = s.expandedText(ctx, parentKey, aggs); err != nil {
			return err
		}
	}
	if err := s.messages.SetExpanded(ctx, summaryKey, expanded); err != nil {
		return err
	}

	if err := s.messenger.EditText(ctx, chatID, summaryID, text); err != nil {
		return err
	}
	return s.messenger.EditButtons(ctx, chatID, summaryID, s.buildButtons(aggs, expanded))
}

func (s *reconcilerService) buildButtons(aggs []repository.TypeAggregate, expanded bool) [][]transport.Button {
	buttons := make([]transport.Button, 0, len(aggs)+1)
	for _, agg := range aggs {
		buttons = append(buttons, transport.Button{
			Label: reactionDisplay(agg.Type, agg.Count, true),
			Data:  agg.Type,
		})
	}
	if s.showSummaryButton {
		data := CallbackShowReactions
		if expanded {
			data = CallbackHideReactions
		}
		buttons = append(buttons, transport.Button{Label: infoEmoji, Data: data})
	}
	return chunkButtons(buttons, maxButtonsPerRow)
}

// expandedText renders one line per reaction type in aggregate order:
// "<display>: <author1>, <author2>, ...".
func (s *reconcilerService) expandedText(ctx context.Context, parentKey uint64, aggs []repository.TypeAggregate) (string, error) {
	byType, err := s.reactions.AuthorsByType(ctx, parentKey)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(aggs))
	for _, agg := range aggs {
		lines = append(lines, reactionDisplay(agg.Type, agg.Count, false)+": "+strings.Join(byType[agg.Type], ", "))
	}
	return strings.Join(lines, "\n"), nil
}

// reactionDisplay renders a reaction with its count. The +1/-1 vote tokens
// become signed totals; everything else keeps its token, prefixed with the
// count when requested and above one.
func reactionDisplay(token string, count int, withCount bool) string {
	switch token {
	case "-1":
		return "-" + strconv.Itoa(count)
	case "+1":
		return "+" + strconv.Itoa(count)
	}
	if withCount && count > 1 {
		return strconv.Itoa(count) + " " + token
	}
	return token
}

func chunkButtons(buttons []transport.Button, n int) [][]transport.Button {
	var rows [][]transport.Button
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
