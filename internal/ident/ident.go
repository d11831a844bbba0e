// Package ident derives stable store keys for platform messages.
//
// A message is identified by (platform message id, chat id). Instead of a
// two-column lookup the pair is folded into a single uint64 with FNV-1a,
// masked to 60 bits so the key stays positive in any signed representation.
package ident

import (
	"fmt"
	"hash/fnv"
)

const keyMask = 0xFFFFFFFFFFFFFFF

// Key returns the store id for a platform message in a chat.
func Key(messageID, chatID int64) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", abs(chatID), abs(messageID))
	return h.Sum64() & keyMask
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
