package main

import "sync"

// presenceRegistry maps user ids to their open sessions. A user is online
// while at least one session remains; a second device never regresses
// presence to offline.
type presenceRegistry struct {
	mu    sync.RWMutex
	users map[string]map[*Client]bool
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{users: make(map[string]map[*Client]bool)}
}

// add registers the session and reports whether it is the user's first.
func (r *presenceRegistry) add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := r.users[c.UserID]
	if sessions == nil {
		sessions = make(map[*Client]bool)
		r.users[c.UserID] = sessions
	}
	sessions[c] = true
	return len(sessions) == 1
}

// remove deregisters the session. removed is false when the session was
// never registered (or already removed); last is true when the user's
// session set became empty.
func (r *presenceRegistry) remove(c *Client) (removed, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions, ok := r.users[c.UserID]
	if !ok || !sessions[c] {
		return false, false
	}
	delete(sessions, c)
	if len(sessions) == 0 {
		delete(r.users, c.UserID)
		return true, true
	}
	return true, false
}

func (r *presenceRegistry) isOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// sessionsOf snapshots the user's sessions for user-addressed delivery.
func (r *presenceRegistry) sessionsOf(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.users[userID]))
	for c := range r.users[userID] {
		out = append(out, c)
	}
	return out
}

// allExcept snapshots every session not owned by userID.
func (r *presenceRegistry) allExcept(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Client
	for uid, sessions := range r.users {
		if uid == userID {
			continue
		}
		for c := range sessions {
			out = append(out, c)
		}
	}
	return out
}
