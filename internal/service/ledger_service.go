package service

import (
	"context"
	"errors"

	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VoteState int

const (
	VoteAdded VoteState = iota
	VoteRemoved
)

// LedgerService toggles a single author's vote of one type on one parent:
// add if absent, remove if present. Changing a reaction is two toggles.
type LedgerService interface {
	Toggle(ctx context.Context, parent uint64, author string, authorID int64, token string, timestamp int64) (VoteState, error)
}

type ledgerService struct {
	reactions repository.ReactionRepository
	log       *zap.SugaredLogger
}

func NewLedgerService(reactions repository.ReactionRepository, log *zap.SugaredLogger) LedgerService {
	return &ledgerService{reactions: reactions, log: log}
}

func (s *ledgerService) Toggle(ctx context.Context, parent uint64, author string, authorID int64, token string, timestamp int64) (VoteState, error) {
	existing, err := s.reactions.FindVote(ctx, parent, authorID, token)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if existing != nil {
		s.log.Infow("removing reaction", "parent", parent, "author_id", authorID, "type", token)
		if err := s.reactions.DeleteByID(ctx, existing.ID); err != nil {
			return 0, err
		}
		return VoteRemoved, nil
	}

	s.log.Infow("adding reaction", "parent", parent, "author_id", authorID, "type", token)
	vote := &model.Reaction{
		Parent:    parent,
		Author:    author,
		AuthorID:  authorID,
		Type:      token,
		Timestamp: timestamp,
	}
	if err := s.reactions.Create(ctx, vote); err != nil {
		return 0, err
	}
	return VoteAdded, nil
}
