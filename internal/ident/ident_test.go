package ident

import "testing"

func TestKeyDeterministic(t *testing.T) {
	if Key(42, -1001) != Key(42, -1001) {
		t.Fatal("same input must produce the same key")
	}
}

func TestKeyDistinguishesChats(t *testing.T) {
	if Key(42, 1) == Key(42, 2) {
		t.Fatal("same message id in different chats must map to different keys")
	}
	if Key(1, 42) == Key(2, 42) {
		t.Fatal("different message ids in one chat must map to different keys")
	}
}

func TestKeyFoldsSign(t *testing.T) {
	// group chat ids are negative on the wire; the key uses magnitudes
	if Key(42, -1001) != Key(42, 1001) {
		t.Fatal("chat id sign must not change the key")
	}
}

func TestKeyMasked(t *testing.T) {
	for _, k := range []uint64{Key(1, 1), Key(1<<62, -(1 << 62)), Key(7, -7)} {
		if k > 0xFFFFFFFFFFFFFFF {
			t.Fatalf("key %d exceeds 60 bits", k)
		}
	}
}
