package main

import (
	"sync"
	"time"
)

// A typing signal is considered stale after this much inactivity.
const typingExpiry = 1 * time.Second

type typingKey struct {
	conversationID string
	userID         string
}

// typingTracker holds the self-expiring typing state per (conversation,
// user). Timers live here, not in connection handlers, so expiry fires even
// when the typing client has disconnected without sending a stop.
type typingTracker struct {
	mu      sync.Mutex
	expiry  time.Duration
	timers  map[typingKey]*time.Timer
	names   map[typingKey]string
	expired func(conversationID, userID, username string)
}

func newTypingTracker(expiry time.Duration, expired func(conversationID, userID, username string)) *typingTracker {
	return &typingTracker{
		expiry:  expiry,
		timers:  make(map[typingKey]*time.Timer),
		names:   make(map[typingKey]string),
		expired: expired,
	}
}

// set starts or refreshes the expiry timer when isTyping is true and clears
// the entry when false. The explicit-stop broadcast is the caller's job; the
// timeout broadcast happens through the expired callback.
func (t *typingTracker) set(conversationID, userID, username string, isTyping bool) {
	key := typingKey{conversationID, userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.timers[key]; ok {
		old.Stop()
		delete(t.timers, key)
		delete(t.names, key)
	}
	if !isTyping {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(t.expiry, func() {
		t.mu.Lock()
		// A refreshed entry holds a newer timer; this firing is stale.
		if t.timers[key] != timer {
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		delete(t.names, key)
		t.mu.Unlock()
		t.expired(conversationID, userID, username)
	})
	t.timers[key] = timer
	t.names[key] = username
}

// active reports whether the pair currently counts as typing.
func (t *typingTracker) active(conversationID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[typingKey{conversationID, userID}]
	return ok
}
