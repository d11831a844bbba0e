// Package transport defines the narrow messaging port the core consumes and
// the inbound event shapes the adapter produces. The core never talks to the
// chat platform directly.
package transport

import "context"

// Button is one inline button: a visible label and the callback payload the
// platform echoes back when it is pressed.
type Button struct {
	Label string
	Data  string
}

type SentMessage struct {
	ID     int64
	ChatID int64
}

// SendOptions carries the optional parts of an outgoing message. ParentID of
// zero means not-a-reply.
type SendOptions struct {
	ParentID int64
	Text     string
	Buttons  [][]Button
}

type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, opts SendOptions) (SentMessage, error)
	EditText(ctx context.Context, chatID, messageID int64, text string) error
	EditButtons(ctx context.Context, chatID, messageID int64, buttons [][]Button) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	// AnswerCallback acknowledges a button press so the client stops showing
	// a loading state.
	AnswerCallback(ctx context.Context, callbackID string) error
}

// IncomingMessage is an immutable extraction of a platform message; the core
// works on this value only.
type IncomingMessage struct {
	ID         int64
	ChatID     int64
	AuthorID   int64
	AuthorName string
	Text       string
	ReplyToID  int64 // 0 when not a reply
	IsEdited   bool
	HasText    bool // false for media-only messages (photos, stickers)
}

// IncomingCallback is a button press on a bot-authored message. ReplyToID is
// the message the pressed message replies to, when known.
type IncomingCallback struct {
	ID             string
	MessageID      int64
	ChatID         int64
	FromAuthorID   int64
	FromAuthorName string
	Data           string
	ReplyToID      int64
}
