package repository

import (
	"context"

	"github.com/mkowalczyk/reactions-bot/internal/model"
	"gorm.io/gorm"
)

// TypeAggregate is one row of the per-parent reaction summary: a reaction
// type, how many votes it has, and when it was first introduced.
type TypeAggregate struct {
	Type    string `gorm:"column:type"`
	Count   int    `gorm:"column:cnt"`
	FirstTS int64  `gorm:"column:first_ts"`
}

type AuthorCount struct {
	AuthorID int64 `gorm:"column:author_id"`
	Count    int64 `gorm:"column:cnt"`
}

type MessageCount struct {
	OriginalID int64 `gorm:"column:original_id"`
	Count      int64 `gorm:"column:cnt"`
}

type ReactionRepository interface {
	FindVote(ctx context.Context, parent uint64, authorID int64, typ string) (*model.Reaction, error)
	Create(ctx context.Context, reaction *model.Reaction) error
	DeleteByID(ctx context.Context, id uint64) error
	// AggregateByType returns the summary rows for a parent ordered by count
	// descending, then earliest first-vote timestamp.
	AggregateByType(ctx context.Context, parent uint64) ([]TypeAggregate, error)
	AuthorsByType(ctx context.Context, parent uint64) (map[string][]string, error)
	ReceivedCounts(ctx context.Context, chatID int64, minTS int64) ([]AuthorCount, error)
	GivenCounts(ctx context.Context, chatID int64, minTS int64) ([]AuthorCount, error)
	TopMessages(ctx context.Context, chatID int64, author string, minTS int64, limit int) ([]MessageCount, error)
	AuthorName(ctx context.Context, authorID int64) (string, error)
	SetDB(db *gorm.DB)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *reactionRepository) FindVote(ctx context.Context, parent uint64, authorID int64, typ string) (*model.Reaction, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var vote model.Reaction
	if err := r.db.WithContext(ctx).
		Where("parent = ? AND author_id = ? AND type = ?", parent, authorID, typ).
		First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *model.Reaction) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) DeleteByID(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Delete(&model.Reaction{}, "id = ?", id).Error
}

func (r *reactionRepository) AggregateByType(ctx context.Context, parent uint64) ([]TypeAggregate, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []TypeAggregate
	err := r.db.WithContext(ctx).Raw(
		`SELECT subq.type AS type, subq.cnt AS cnt,
		        (SELECT MIN(timestamp) FROM reactions WHERE parent = ? AND type = subq.type) AS first_ts
		 FROM (SELECT type, COUNT(*) AS cnt FROM reactions WHERE parent = ? GROUP BY type) AS subq
		 ORDER BY cnt DESC, first_ts ASC`,
		parent, parent,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reactionRepository) AuthorsByType(ctx context.Context, parent uint64) (map[string][]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var votes []model.Reaction
	if err := r.db.WithContext(ctx).
		Where("parent = ?", parent).
		Order("id ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	byType := make(map[string][]string)
	for _, v := range votes {
		byType[v.Type] = append(byType[v.Type], v.Author)
	}
	return byType, nil
}

// ReceivedCounts sums, per message author, the reactions their messages in
// the chat collected after minTS (exclusive).
func (r *reactionRepository) ReceivedCounts(ctx context.Context, chatID int64, minTS int64) ([]AuthorCount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []AuthorCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT messages.author_id AS author_id, SUM(msg_reactions.cnt) AS cnt
		 FROM messages
		 INNER JOIN (SELECT parent, COUNT(*) AS cnt FROM reactions WHERE timestamp > ? GROUP BY parent) AS msg_reactions
		 ON messages.id = msg_reactions.parent
		 WHERE messages.chat_id = ?
		 GROUP BY messages.author_id
		 ORDER BY SUM(msg_reactions.cnt) DESC`,
		minTS, chatID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GivenCounts counts, per reacting author, the votes they cast in the chat
// after minTS (exclusive).
func (r *reactionRepository) GivenCounts(ctx context.Context, chatID int64, minTS int64) ([]AuthorCount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []AuthorCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT reactions.author_id AS author_id, COUNT(*) AS cnt
		 FROM reactions
		 INNER JOIN messages ON messages.id = reactions.parent
		 WHERE reactions.timestamp > ? AND messages.chat_id = ?
		 GROUP BY reactions.author_id
		 ORDER BY COUNT(*) DESC`,
		minTS, chatID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reactionRepository) TopMessages(ctx context.Context, chatID int64, author string, minTS int64, limit int) ([]MessageCount, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	query := `SELECT messages.original_id AS original_id, COUNT(*) AS cnt
	 FROM messages
	 INNER JOIN reactions ON messages.id = reactions.parent
	 WHERE reactions.timestamp > ? AND messages.chat_id = ?`
	args := []interface{}{minTS, chatID}
	if author != "" {
		query += ` AND messages.author = ?`
		args = append(args, author)
	}
	query += ` GROUP BY messages.id ORDER BY cnt DESC LIMIT ?`
	args = append(args, limit)

	var rows []MessageCount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reactionRepository) AuthorName(ctx context.Context, authorID int64) (string, error) {
	if r.db == nil {
		return "", ErrDBNotReady
	}
	var name string
	err := r.db.WithContext(ctx).
		Model(&model.Reaction{}).
		Select("author").
		Where("author_id = ?", authorID).
		Order("id DESC").
		Limit(1).
		Scan(&name).Error
	return name, err
}
