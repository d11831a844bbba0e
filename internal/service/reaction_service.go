package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalczyk/reactions-bot/internal/classify"
	"github.com/mkowalczyk/reactions-bot/internal/config"
	"github.com/mkowalczyk/reactions-bot/internal/ident"
	"github.com/mkowalczyk/reactions-bot/internal/model"
	"github.com/mkowalczyk/reactions-bot/internal/repository"
	"github.com/mkowalczyk/reactions-bot/internal/transport"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReactionService is the inbound-event orchestrator: it classifies messages,
// routes reactions through the ledger and the reconciler, reposts anonymous
// messages, and dispatches button callbacks.
type ReactionService interface {
	HandleMessage(ctx context.Context, msg transport.IncomingMessage) error
	HandleCallback(ctx context.Context, cb transport.IncomingCallback) error
}

type reactionService struct {
	cfg        *config.Config
	messages   repository.MessageRepository
	ledger     LedgerService
	reconciler ReconcilerService
	messenger  transport.Messenger
	locks      *parentLocks
	log        *zap.SugaredLogger
}

func NewReactionService(
	cfg *config.Config,
	messages repository.MessageRepository,
	ledger LedgerService,
	reconciler ReconcilerService,
	messenger transport.Messenger,
	log *zap.SugaredLogger,
) ReactionService {
	return &reactionService{
		cfg:        cfg,
		messages:   messages,
		ledger:     ledger,
		reconciler: reconciler,
		messenger:  messenger,
		locks:      newParentLocks(),
		log:        log,
	}
}

func (s *reactionService) classifyOptions() classify.Options {
	return classify.Options{
		Disallowed:        s.cfg.Disallowed(),
		CustomTextAllowed: s.cfg.CustomTextReactionAllowed,
		AnonAllowed:       s.cfg.AnonMessagesAllowed,
	}
}

func (s *reactionService) HandleMessage(ctx context.Context, msg transport.IncomingMessage) error {
	if msg.IsEdited {
		// edits never re-trigger reactions
		return nil
	}
	if !msg.HasText {
		s.log.Infow("media message received", "chat_id", msg.ChatID)
		return s.persistIncoming(ctx, msg)
	}

	if s.cfg.IsSilenced(msg.ChatID) {
		s.log.Infow("ignoring message from silenced chat", "chat_id", msg.ChatID)
		return s.persistIncoming(ctx, msg)
	}

	text := classify.Normalize(msg.Text)
	cls := classify.Classify(text, s.classifyOptions())

	if cls.Verdict == classify.VerdictAnon {
		return s.repostAnon(ctx, msg, cls.AnonText)
	}

	if msg.ReplyToID == 0 || cls.Verdict != classify.VerdictReaction {
		return s.persistIncoming(ctx, msg)
	}

	s.log.Infow("removing the reaction message", "chat_id", msg.ChatID, "message_id", msg.ID)
	if err := transport.DeleteWithRetries(ctx, s.messenger, msg.ChatID, msg.ID); err != nil {
		return err
	}

	parentID, err := s.resolveParent(ctx, msg.ReplyToID, msg.ChatID)
	if err != nil {
		return err
	}
	return s.toggleAndReconcile(ctx, parentID, msg.ChatID, msg.AuthorName, msg.AuthorID, cls.Tokens)
}

// resolveParent follows the identity chain one hop: a reaction aimed at a
// bot-authored summary message is recorded against the summary's own parent.
func (s *reactionService) resolveParent(ctx context.Context, replyToID, chatID int64) (int64, error) {
	target, err := s.messages.FindByID(ctx, ident.Key(replyToID, chatID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return replyToID, nil
		}
		return 0, err
	}
	if !target.IsBotReaction || target.Parent == nil {
		return replyToID, nil
	}
	original, err := s.messages.FindByID(ctx, *target.Parent)
	if err != nil {
		return 0, err
	}
	return original.OriginalID, nil
}

// toggleAndReconcile applies the whole token batch first, then reconciles the
// summary message once, all under the parent's lock.
func (s *reactionService) toggleAndReconcile(ctx context.Context, parentID, chatID int64, author string, authorID int64, tokens []string) error {
	parentKey := ident.Key(parentID, chatID)
	unlock := s.locks.Lock(parentKey)
	defer unlock()

	for _, token := range tokens {
		if _, err := s.ledger.Toggle(ctx, parentKey, author, authorID, token, time.Now().UnixNano()); err != nil {
			return err
		}
	}
	return s.reconciler.Reconcile(ctx, parentID, chatID)
}

func (s *reactionService) repostAnon(ctx context.Context, msg transport.IncomingMessage, anonText string) error {
	if err := transport.DeleteWithRetries(ctx, s.messenger, msg.ChatID, msg.ID); err != nil {
		return err
	}
	sent, err := s.messenger.SendMessage(ctx, msg.ChatID, transport.SendOptions{
		ParentID: msg.ReplyToID,
		Text:     s.cfg.AnonMsgPrefix + anonText,
	})
	if err != nil {
		return err
	}
	saved := &model.Message{
		ID:         ident.Key(sent.ID, sent.ChatID),
		OriginalID: sent.ID,
		ChatID:     sent.ChatID,
		IsAnon:     true,
	}
	if msg.ReplyToID != 0 {
		parentKey := ident.Key(msg.ReplyToID, msg.ChatID)
		saved.Parent = &parentKey
	}
	return s.messages.Save(ctx, saved)
}

func (s *reactionService) persistIncoming(ctx context.Context, msg transport.IncomingMessage) error {
	saved := &model.Message{
		ID:         ident.Key(msg.ID, msg.ChatID),
		OriginalID: msg.ID,
		ChatID:     msg.ChatID,
		AuthorID:   msg.AuthorID,
		Author:     msg.AuthorName,
	}
	if msg.ReplyToID != 0 {
		parentKey := ident.Key(msg.ReplyToID, msg.ChatID)
		saved.Parent = &parentKey
	}
	return s.messages.Save(ctx, saved)
}

// HandleCallback dispatches a button press on its payload shape: the
// summary-toggle literals, the "<messageId>__delete" composite, and finally a
// plain reaction token.
func (s *reactionService) HandleCallback(ctx context.Context, cb transport.IncomingCallback) error {
	s.log.Infow("button pressed", "data", cb.Data, "author", cb.FromAuthorName, "chat_id", cb.ChatID)

	switch {
	case strings.HasSuffix(cb.Data, "reactions"):
		parentKey := ident.Key(cb.ReplyToID, cb.ChatID)
		unlock := s.locks.Lock(parentKey)
		err := s.reconciler.ToggleExpanded(ctx, cb.Data, cb.ReplyToID, cb.MessageID, cb.ChatID)
		unlock()
		if err != nil {
			return err
		}
	case strings.HasSuffix(cb.Data, "__delete"):
		raw := strings.SplitN(cb.Data, "__", 2)[0]
		msgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.log.Errorw("malformed delete payload", "data", cb.Data, "err", err)
			break
		}
		if err := transport.DeleteWithRetries(ctx, s.messenger, cb.ChatID, msgID); err != nil {
			// the report message may already be gone; not worth failing the event
			s.log.Errorw("failed to delete message", "err", err)
		}
	default:
		if err := s.toggleAndReconcile(ctx, cb.ReplyToID, cb.ChatID, cb.FromAuthorName, cb.FromAuthorID, []string{cb.Data}); err != nil {
			return err
		}
	}

	return s.messenger.AnswerCallback(ctx, cb.ID)
}
