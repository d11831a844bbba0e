package repository

import (
	"context"
	"errors"

	"github.com/mkowalczyk/reactions-bot/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type MessageRepository interface {
	Save(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id uint64) (*model.Message, error)
	// FindSummary returns the live bot-authored summary message for a parent,
	// or gorm.ErrRecordNotFound when none exists.
	FindSummary(ctx context.Context, parent uint64) (*model.Message, error)
	DeleteSummary(ctx context.Context, parent uint64) error
	SetExpanded(ctx context.Context, id uint64, expanded bool) error
	AuthorName(ctx context.Context, authorID int64) (string, error)
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *messageRepository) Save(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindSummary(ctx context.Context, parent uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Where("parent = ? AND is_bot_reaction = ?", parent, true).
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) DeleteSummary(ctx context.Context, parent uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Where("parent = ? AND is_bot_reaction = ?", parent, true).
		Delete(&model.Message{}).Error
}

func (r *messageRepository) SetExpanded(ctx context.Context, id uint64, expanded bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ?", id).
		Update("expanded", expanded).Error
}

// AuthorName returns the most recent display-name snapshot for an author.
func (r *messageRepository) AuthorName(ctx context.Context, authorID int64) (string, error) {
	if r.db == nil {
		return "", ErrDBNotReady
	}
	var name string
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("author").
		Where("author_id = ?", authorID).
		Order("id DESC").
		Limit(1).
		Scan(&name).Error
	return name, err
}
