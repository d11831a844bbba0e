package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkowalczyk/reactions-bot/internal/config"
	"github.com/mkowalczyk/reactions-bot/internal/ident"
	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"go.uber.org/zap"
)

const (
	DefaultRankingDays     = 7
	DefaultTopMessageCount = 10
	MaxTopMessageCount     = 30
	MaxTimespanDays        = 10 * 365

	// pacing between /top replies so the transport's rate limits hold
	topMessagePacing = 500 * time.Millisecond

	// over-fetch factor for /top candidates; some messages may have been
	// deleted on the platform since they were reacted to
	topOverfetch = 3
)

// RankingEntry is one line of a ranking list.
type RankingEntry struct {
	Author string
	Count  int64
}

// Ranking holds both windowed ranking lists for a chat.
type Ranking struct {
	Days     int
	Received []RankingEntry
	Given    []RankingEntry
}

// ReportService runs the read-only reporting aggregations and, for the bot
// commands, renders and delivers them.
type ReportService interface {
	Ranking(ctx context.Context, chatID int64, days int) (*Ranking, error)
	TopMessages(ctx context.Context, chatID int64, days, count int, author string) ([]repository.MessageCount, error)
	SendRanking(ctx context.Context, chatID, replyToID int64, days int) error
	SendTopMessages(ctx context.Context, chatID int64, days, count int, author string) error
}

type reportService struct {
	cfg       *config.Config
	messages  repository.MessageRepository
	reactions repository.ReactionRepository
	messenger transport.Messenger
	log       *zap.SugaredLogger
}

func NewReportService(
	cfg *config.Config,
	messages repository.MessageRepository,
	reactions repository.ReactionRepository,
	messenger transport.Messenger,
	log *zap.SugaredLogger,
) ReportService {
	return &reportService{
		cfg:       cfg,
		messages:  messages,
		reactions: reactions,
		messenger: messenger,
		log:       log,
	}
}

// windowStart converts a day lookback into the exclusive minimum timestamp.
func windowStart(days int) int64 {
	return time.Now().UnixNano() - int64(days)*24*int64(time.Hour)
}

func clampDays(days int) int {
	if days > MaxTimespanDays {
		return MaxTimespanDays
	}
	return days
}

func (s *reportService) Ranking(ctx context.Context, chatID int64, days int) (*Ranking, error) {
	days = clampDays(days)
	minTS := windowStart(days)

	received, err := s.reactions.ReceivedCounts(ctx, chatID, minTS)
	if err != nil {
		return nil, err
	}
	given, err := s.reactions.GivenCounts(ctx, chatID, minTS)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{Days: days}
	for _, row := range received {
		name, err := s.messages.AuthorName(ctx, row.AuthorID)
		if err != nil {
			return nil, err
		}
		ranking.Received = append(ranking.Received, RankingEntry{Author: name, Count: row.Count})
	}
	for _, row := range given {
		name, err := s.reactions.AuthorName(ctx, row.AuthorID)
		if err != nil {
			return nil, err
		}
		ranking.Given = append(ranking.Given, RankingEntry{Author: name, Count: row.Count})
	}
	return ranking, nil
}

func (s *reportService) TopMessages(ctx context.Context, chatID int64, days, count int, author string) ([]repository.MessageCount, error) {
	days = clampDays(days)
	return s.reactions.TopMessages(ctx, chatID, author, windowStart(days), count*topOverfetch)
}

func (s *reportService) SendRanking(ctx context.Context, chatID, replyToID int64, days int) error {
	ranking, err := s.Ranking(ctx, chatID, days)
	if err != nil {
		return err
	}

	sent, err := s.messenger.SendMessage(ctx, chatID, transport.SendOptions{
		ParentID: replyToID,
		Text:     formatRanking(ranking),
	})
	if err != nil {
		return err
	}
	if err := s.messages.Save(ctx, &model.Message{
		ID:         ident.Key(sent.ID, sent.ChatID),
		OriginalID: sent.ID,
		ChatID:     sent.ChatID,
		IsRanking:  true,
	}); err != nil {
		return err
	}

	if s.cfg.DisplayRemoveRankingButton {
		button := transport.Button{
			Label: "delete ranking",
			Data:  fmt.Sprintf("%d__delete", sent.ID),
		}
		return s.messenger.EditButtons(ctx, chatID, sent.ID, [][]transport.Button{{button}})
	}
	return nil
}

// SendTopMessages replies to each of the most reacted messages with its rank
// and count. Candidates whose original message no longer resolves on the
// platform are skipped.
func (s *reportService) SendTopMessages(ctx context.Context, chatID int64, days, count int, author string) error {
	candidates, err := s.TopMessages(ctx, chatID, days, count, author)
	if err != nil {
		return err
	}

	sent := 0
	for _, row := range candidates {
		time.Sleep(topMessagePacing)
		_, err := s.messenger.SendMessage(ctx, chatID, transport.SendOptions{
			ParentID: row.OriginalID,
			Text:     fmt.Sprintf("%d. %d", sent+1, row.Count),
		})
		if err != nil {
			s.log.Infow("skipping deleted message", "original_id", row.OriginalID, "err", err)
			continue
		}
		sent++
		if sent >= count {
			break
		}
	}
	return nil
}

func formatRanking(r *Ranking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reactions received in the last %d days\n", r.Days)
	for i, entry := range r.Received {
		fmt.Fprintf(&b, "%d. %s: %d\n", i+1, entry.Author, entry.Count)
	}
	fmt.Fprintf(&b, "\nReactions given in the last %d days\n", r.Days)
	for i, entry := range r.Given {
		fmt.Fprintf(&b, "%d. %s: %d\n", i+1, entry.Author, entry.Count)
	}
	return b.String()
}
