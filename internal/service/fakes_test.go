package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a fresh connection would see a fresh in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Message{}, &model.Reaction{}))
	return db
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

type sentCall struct {
	ChatID int64
	Opts   transport.SendOptions
}

type editCall struct {
	ChatID    int64
	MessageID int64
	Text      string
}

type buttonsCall struct {
	ChatID    int64
	MessageID int64
	Buttons   [][]transport.Button
}

type deleteCall struct {
	ChatID    int64
	MessageID int64
}

// fakeMessenger records every outbound call and hands out sequential ids for
// sent messages, starting well above the ids tests pick for incoming
// messages so summary rows never collide with persisted originals.
type fakeMessenger struct {
	nextID      int64
	sent        []sentCall
	textEdits   []editCall
	buttonEdits []buttonsCall
	deleted     []deleteCall
	answered    []string

	failSends   bool
	failDeletes int // fail this many delete calls before succeeding
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, opts transport.SendOptions) (transport.SentMessage, error) {
	if f.failSends {
		return transport.SentMessage{}, errors.New("send failed")
	}
	if f.nextID == 0 {
		f.nextID = 5000
	}
	f.nextID++
	f.sent = append(f.sent, sentCall{ChatID: chatID, Opts: opts})
	return transport.SentMessage{ID: f.nextID, ChatID: chatID}, nil
}

func (f *fakeMessenger) EditText(_ context.Context, chatID, messageID int64, text string) error {
	f.textEdits = append(f.textEdits, editCall{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeMessenger) EditButtons(_ context.Context, chatID, messageID int64, buttons [][]transport.Button) error {
	f.buttonEdits = append(f.buttonEdits, buttonsCall{ChatID: chatID, MessageID: messageID, Buttons: buttons})
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	if f.failDeletes > 0 {
		f.failDeletes--
		return fmt.Errorf("delete failed")
	}
	f.deleted = append(f.deleted, deleteCall{ChatID: chatID, MessageID: messageID})
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, callbackID string) error {
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) lastButtons(t *testing.T) [][]transport.Button {
	t.Helper()
	require.NotEmpty(t, f.buttonEdits)
	return f.buttonEdits[len(f.buttonEdits)-1].Buttons
}
