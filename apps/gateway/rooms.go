package main

import "sync"

// roomRegistry maps conversation ids to the sessions subscribed to live
// updates for them. An empty room only means no one has the conversation
// open; the joined mirror exists so disconnect can sweep a session out of
// every room it entered.
type roomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	joined map[*Client]map[string]bool
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{
		rooms:  make(map[string]map[*Client]bool),
		joined: make(map[*Client]map[string]bool),
	}
}

func (r *roomRegistry) add(c *Client, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[conversationID] == nil {
		r.rooms[conversationID] = make(map[*Client]bool)
	}
	r.rooms[conversationID][c] = true
	if r.joined[c] == nil {
		r.joined[c] = make(map[string]bool)
	}
	r.joined[c][conversationID] = true
}

// remove is unconditional; leaving a room never fails.
func (r *roomRegistry) remove(c *Client, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(c, conversationID)
}

func (r *roomRegistry) removeLocked(c *Client, conversationID string) {
	if members, ok := r.rooms[conversationID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, conversationID)
		if len(rooms) == 0 {
			delete(r.joined, c)
		}
	}
}

// dropClient removes the session from every room it joined.
func (r *roomRegistry) dropClient(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conversationID := range r.joined[c] {
		r.removeLocked(c, conversationID)
	}
	delete(r.joined, c)
}

// members snapshots the sessions currently in the room.
func (r *roomRegistry) members(conversationID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.rooms[conversationID]))
	for c := range r.rooms[conversationID] {
		out = append(out, c)
	}
	return out
}

// usersInRoom reports which user ids have at least one session in the room.
func (r *roomRegistry) usersInRoom(conversationID string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool)
	for c := range r.rooms[conversationID] {
		out[c.UserID] = true
	}
	return out
}
