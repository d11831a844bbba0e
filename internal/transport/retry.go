package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	deleteAttempts   = 3
	deleteRetryDelay = 25 * time.Millisecond
)

// DeleteWithRetries deletes a message, retrying transient failures a bounded
// number of times. Exhausting the attempts is reported with the chat and
// message id so an operator can find the leftover message.
func DeleteWithRetries(ctx context.Context, m Messenger, chatID, messageID int64) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(deleteRetryDelay), deleteAttempts-1),
		ctx,
	)
	err := backoff.Retry(func() error {
		return m.DeleteMessage(ctx, chatID, messageID)
	}, policy)
	if err != nil {
		return fmt.Errorf("failed to delete message (id=%d, chat_id=%d): %w", messageID, chatID, err)
	}
	return nil
}
