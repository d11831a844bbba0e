package model

import "time"

// Message is any chat message the bot has observed or sent itself. ID is the
// FNV-derived key of (platform message id, chat id); OriginalID keeps the
// platform-native id so edit/delete calls can be issued later.
type Message struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OriginalID    int64     `gorm:"column:original_id;not null" json:"originalId"`
	ChatID        int64     `gorm:"column:chat_id;index" json:"chatId"`
	AuthorID      int64     `gorm:"column:author_id;index" json:"authorId"`
	Author        string    `gorm:"size:128" json:"author"`
	Parent        *uint64   `gorm:"index" json:"parent"`
	IsBotReaction bool      `gorm:"column:is_bot_reaction;index" json:"isBotReaction"`
	IsRanking     bool      `gorm:"column:is_ranking" json:"isRanking"`
	IsAnon        bool      `gorm:"column:is_anon" json:"isAnon"`
	Expanded      bool      `gorm:"not null;default:false" json:"expanded"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
