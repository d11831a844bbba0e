package model

// Reaction is a single author's vote of one type on one parent message.
// Timestamp is monotonic nanoseconds, used only for tie-break ordering.
type Reaction struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Parent    uint64 `gorm:"index:idx_vote,unique;not null" json:"parent"`
	AuthorID  int64  `gorm:"column:author_id;index:idx_vote,unique" json:"authorId"`
	Type      string `gorm:"size:128;index:idx_vote,unique" json:"type"`
	Author    string `gorm:"size:128" json:"author"`
	Timestamp int64  `gorm:"index;not null" json:"timestamp"`
}

func (Reaction) TableName() string {
	return "reactions"
}
