package service

import (
	"context"
	"testing"

	"github.com/mkowalczyk/reactions-bot/internal/config"
	"github.com/mkowalczyk/reactions-bot/internal/ident"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	cfg       *config.Config
	messages  repository.MessageRepository
	reactions repository.ReactionRepository
	service   ReactionService
	messenger *fakeMessenger
}

func newServiceFixture(t *testing.T, cfg *config.Config) *serviceFixture {
	t.Helper()
	db := newTestDB(t)
	messages := repository.NewMessageRepository(db)
	reactions := repository.NewReactionRepository(db)
	messenger := &fakeMessenger{}
	ledger := NewLedgerService(reactions, testLogger())
	reconciler := NewReconcilerService(messages, reactions, messenger, cfg.ShowSummaryButton, testLogger())
	return &serviceFixture{
		cfg:       cfg,
		messages:  messages,
		reactions: reactions,
		service:   NewReactionService(cfg, messages, ledger, reconciler, messenger, testLogger()),
		messenger: messenger,
	}
}

func defaultTestConfig() *config.Config {
	return &config.Config{ShowSummaryButton: true}
}

func incoming(id int64, text string, replyTo int64) transport.IncomingMessage {
	return transport.IncomingMessage{
		ID:         id,
		ChatID:     testChatID,
		AuthorID:   1,
		AuthorName: "alice",
		Text:       text,
		ReplyToID:  replyTo,
		HasText:    true,
	}
}

func TestOrdinaryMessageIsPersisted(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "hello there", 0)))

	saved, err := f.messages.FindByID(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Equal(t, "alice", saved.Author)
	require.Nil(t, saved.Parent)
	require.Empty(t, f.messenger.deleted)
}

func TestReplyStoresParentChain(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "a reply, not a reaction", 1)))

	saved, err := f.messages.FindByID(ctx, ident.Key(2, testChatID))
	require.NoError(t, err)
	require.NotNil(t, saved.Parent)
	require.Equal(t, ident.Key(1, testChatID), *saved.Parent)
}

func TestReactionReplyTogglesAndCleansUp(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "+1", 1)))

	// the trigger message is removed and a summary appears under the original
	require.Len(t, f.messenger.deleted, 1)
	require.Equal(t, int64(2), f.messenger.deleted[0].MessageID)
	require.Len(t, f.messenger.sent, 1)
	require.Equal(t, int64(1), f.messenger.sent[0].Opts.ParentID)

	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	require.Equal(t, "+1", aggs[0].Type)
}

func TestReactionReplyToSummaryHitsOriginal(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "+1", 1)))
	summary, err := f.messages.FindSummary(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)

	// replying to the summary must land on the summary's parent
	bob := incoming(3, "xD", summary.OriginalID)
	bob.AuthorID = 2
	bob.AuthorName = "bob"
	require.NoError(t, f.service.HandleMessage(ctx, bob))

	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Len(t, aggs, 2)
}

func TestMultiTokenReplyReconcilesOnce(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "👍🎉❤️", 1)))

	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Len(t, aggs, 3)
	// one summary send regardless of how many tokens the batch carried
	require.Len(t, f.messenger.sent, 1)
}

func TestEditedMessageIsIgnored(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	msg := incoming(1, "+1", 5)
	msg.IsEdited = true
	require.NoError(t, f.service.HandleMessage(ctx, msg))

	require.Empty(t, f.messenger.deleted)
	_, err := f.messages.FindByID(ctx, ident.Key(1, testChatID))
	require.Error(t, err)
}

func TestSilencedChatOnlyPersists(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.SilencedChats = []int64{testChatID}
	f := newServiceFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "+1", 1)))

	require.Empty(t, f.messenger.deleted)
	require.Empty(t, f.messenger.sent)
	_, err := f.messages.FindByID(ctx, ident.Key(2, testChatID))
	require.NoError(t, err)
	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Empty(t, aggs)
}

func TestMediaMessageIsPersisted(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	msg := incoming(7, "", 0)
	msg.HasText = false
	require.NoError(t, f.service.HandleMessage(ctx, msg))

	_, err := f.messages.FindByID(ctx, ident.Key(7, testChatID))
	require.NoError(t, err)
}

func TestAnonRepost(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.AnonMessagesAllowed = true
	cfg.AnonMsgPrefix = "Anon: "
	f := newServiceFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "!anon hello world", 1)))

	require.Len(t, f.messenger.deleted, 1)
	require.Equal(t, int64(2), f.messenger.deleted[0].MessageID)
	require.Len(t, f.messenger.sent, 1)
	require.Equal(t, "Anon: hello world", f.messenger.sent[0].Opts.Text)
	require.Equal(t, int64(1), f.messenger.sent[0].Opts.ParentID)

	saved, err := f.messages.FindByID(ctx, ident.Key(5001, testChatID))
	require.NoError(t, err)
	require.True(t, saved.IsAnon)
	require.NotNil(t, saved.Parent)
	require.Equal(t, ident.Key(1, testChatID), *saved.Parent)
}

func TestAnonDisabledFallsThrough(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "!anon hello", 0)))

	// stored like any ordinary message, nothing deleted or reposted
	require.Empty(t, f.messenger.deleted)
	require.Empty(t, f.messenger.sent)
	_, err := f.messages.FindByID(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
}

func callback(data string, replyTo int64) transport.IncomingCallback {
	return transport.IncomingCallback{
		ID:             "cb-1",
		MessageID:      99,
		ChatID:         testChatID,
		FromAuthorID:   2,
		FromAuthorName: "bob",
		Data:           data,
		ReplyToID:      replyTo,
	}
}

func TestCallbackTokenTogglesVote(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleCallback(ctx, callback("👍", 1)))

	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	require.Equal(t, 1, aggs[0].Count)
	require.Equal(t, []string{"cb-1"}, f.messenger.answered)
}

func TestCallbackTokenRetoggleRemovesVote(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleCallback(ctx, callback("👍", 1)))
	require.NoError(t, f.service.HandleCallback(ctx, callback("👍", 1)))

	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Empty(t, aggs)
	require.Len(t, f.messenger.answered, 2)
}

func TestCallbackDeletePayload(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleCallback(ctx, callback("42__delete", 0)))

	require.Len(t, f.messenger.deleted, 1)
	require.Equal(t, int64(42), f.messenger.deleted[0].MessageID)
	require.Len(t, f.messenger.answered, 1)
}

func TestCallbackDeleteFailureStillAnswers(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	f.messenger.failDeletes = 5
	ctx := context.Background()

	require.NoError(t, f.service.HandleCallback(ctx, callback("42__delete", 0)))
	require.Len(t, f.messenger.answered, 1)
}

func TestCallbackMalformedDeletePayload(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleCallback(ctx, callback("oops__delete", 0)))
	require.Empty(t, f.messenger.deleted)
	require.Len(t, f.messenger.answered, 1)
}

func TestCallbackShowReactionsExpands(t *testing.T) {
	f := newServiceFixture(t, defaultTestConfig())
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "+1", 1)))
	summary, err := f.messages.FindSummary(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)

	cb := callback(CallbackShowReactions, 1)
	cb.MessageID = summary.OriginalID
	require.NoError(t, f.service.HandleCallback(ctx, cb))

	refreshed, err := f.messages.FindSummary(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.True(t, refreshed.Expanded)
	require.Len(t, f.messenger.answered, 1)
}

func TestDisallowedReactionIsNotAReaction(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.DisallowedReactions = []string{"xD"}
	f := newServiceFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessage(ctx, incoming(1, "original", 0)))
	require.NoError(t, f.service.HandleMessage(ctx, incoming(2, "xD", 1)))

	// persisted as an ordinary reply instead of toggling a vote
	require.Empty(t, f.messenger.deleted)
	aggs, err := f.reactions.AggregateByType(ctx, ident.Key(1, testChatID))
	require.NoError(t, err)
	require.Empty(t, aggs)
}
