package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/model"
	"github.com/laibhnoor/ChatApp/pkg/wire"
)

const persistTimeout = 5 * time.Second

// Hub owns the shared realtime state: who is online, who has which
// conversation open, and the dispatch path from an inbound send to the
// fanned-out deliveries. Session handlers call into it concurrently; each
// registry guards its own map, and sends within one conversation are
// serialized by a per-conversation lock.
type Hub struct {
	gateway Gateway
	events  EventSink

	presence *presenceRegistry
	rooms    *roomRegistry
	typing   *typingTracker

	// conversationID -> *sync.Mutex; entries are never reclaimed.
	sendLocks sync.Map

	register   chan *Client
	unregister chan *Client
}

func NewHub(gateway Gateway, sink EventSink) *Hub {
	h := &Hub{
		gateway:    gateway,
		events:     sink,
		presence:   newPresenceRegistry(),
		rooms:      newRoomRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	h.typing = newTypingTracker(typingExpiry, h.typingExpired)
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleConnect(client)
		case client := <-h.unregister:
			h.handleDisconnect(client)
		}
	}
}

// --- session lifecycle ---

func (h *Hub) handleConnect(c *Client) {
	first := h.presence.add(c)
	log.Printf("Client connected: %s session %s", c.UserID, c.SessionID)
	if !first {
		return
	}

	// Online flag is best effort; a flaky Redis must not block the connect.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := h.gateway.SetOnlineFlag(ctx, c.UserID, true); err != nil {
		log.Printf("Failed to persist online flag for %s: %v", c.UserID, err)
	}
	cancel()

	h.broadcastPresence(wire.EvUserOnline, c.UserID, c.Username)
}

func (h *Hub) handleDisconnect(c *Client) {
	removed, last := h.presence.remove(c)
	if !removed {
		return
	}
	h.rooms.dropClient(c)
	// send stays open: a racing fan-out may still hold this session in a
	// snapshot. done tells the write pump to finish instead.
	close(c.done)
	log.Printf("Client disconnected: %s session %s", c.UserID, c.SessionID)
	if !last {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := h.gateway.SetOnlineFlag(ctx, c.UserID, false); err != nil {
		log.Printf("Failed to persist offline flag for %s: %v", c.UserID, err)
	}
	cancel()

	h.broadcastPresence(wire.EvUserOffline, c.UserID, c.Username)
}

func (h *Hub) broadcastPresence(ev wire.EventType, userID, username string) {
	payload := wire.Presence{Type: ev, UserID: userID, Username: username}
	for _, c := range h.presence.allExcept(userID) {
		h.deliver(c, payload)
	}
}

// --- rooms ---

// handleJoin subscribes the session to the conversation's room. A
// non-participant join is refused without an error and without side effects.
func (h *Hub) handleJoin(ctx context.Context, c *Client, conversationID string) {
	ok, err := h.gateway.IsParticipant(ctx, c.UserID, conversationID)
	if err != nil {
		log.Printf("Join check failed for %s on %s: %v", c.UserID, conversationID, err)
		return
	}
	if !ok {
		return
	}
	h.rooms.add(c, conversationID)
}

func (h *Hub) handleLeave(c *Client, conversationID string) {
	h.rooms.remove(c, conversationID)
}

// --- message dispatch ---

// handleSend runs the full dispatch path: validate, authorize, persist,
// update the last-message pointer, fan out. The per-conversation lock is held
// through fan-out enqueue so room members observe persistence order.
func (h *Hub) handleSend(ctx context.Context, c *Client, conversationID, content string) {
	mu := h.sendLock(conversationID)
	mu.Lock()
	defer mu.Unlock()

	participants, err := h.gateway.ListParticipants(ctx, conversationID)
	if err != nil || !contains(participants, c.UserID) {
		// Unauthorized senders learn nothing beyond "no such conversation".
		h.sendError(c, "not_found", ErrNotFound.Error())
		return
	}

	msg, err := h.gateway.CreateMessage(ctx, conversationID, c.UserID, content)
	if errors.Is(err, model.ErrEmptyMessage) || errors.Is(err, model.ErrContentTooLong) {
		h.sendError(c, "validation", err.Error())
		return
	}
	if err != nil {
		log.Printf("Failed to persist message from %s in %s: %v", c.UserID, conversationID, err)
		h.sendError(c, "internal", "failed to send message")
		return
	}

	// The message exists either way; a stale last-message pointer heals on
	// the next read-path recomputation.
	if err := h.gateway.SetLastMessage(ctx, conversationID, msg.ID); err != nil {
		log.Printf("Failed to update last message for %s: %v", conversationID, err)
	}

	h.broadcastMessage(c, msg, participants)
	h.publish(events.Event{
		Type:           events.MessageCreated,
		ConversationID: conversationID,
		MessageID:      msg.ID,
		SenderID:       c.UserID,
		Participants:   participants,
	})
}

// broadcastMessage implements the two-tier fan-out: sessions with the room
// open get new_message; every other participant gets message_notification on
// all of their sessions, so badges update without a mounted view.
func (h *Hub) broadcastMessage(sender *Client, msg *model.Message, participants []string) {
	summary := wire.Summarize(msg, model.UserRef{ID: sender.UserID, Username: sender.Username})

	for _, c := range h.rooms.members(msg.ConversationID) {
		h.deliver(c, wire.NewMessage{Type: wire.EvNewMessage, Message: summary})
	}

	inRoom := h.rooms.usersInRoom(msg.ConversationID)
	notification := wire.MessageNotification{
		Type:           wire.EvMessageNotification,
		ConversationID: msg.ConversationID,
		Message:        summary,
	}
	for _, p := range participants {
		if p == sender.UserID || inRoom[p] {
			continue
		}
		for _, c := range h.presence.sessionsOf(p) {
			h.deliver(c, notification)
		}
	}
}

func (h *Hub) sendLock(conversationID string) *sync.Mutex {
	mu, _ := h.sendLocks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// --- read receipts ---

func (h *Hub) handleMarkRead(ctx context.Context, c *Client, conversationID string, messageIDs []int64) {
	ok, err := h.gateway.IsParticipant(ctx, c.UserID, conversationID)
	if err != nil || !ok {
		return
	}

	marked, err := h.gateway.AddReaders(ctx, conversationID, c.UserID, messageIDs)
	if err != nil {
		log.Printf("Failed to mark messages read for %s in %s: %v", c.UserID, conversationID, err)
		return
	}
	if len(marked) == 0 {
		return
	}

	h.broadcastToRoomExcept(conversationID, c.UserID, wire.MessagesRead{
		Type:           wire.EvMessagesRead,
		ConversationID: conversationID,
		MessageIDs:     marked,
		ReadBy:         model.UserRef{ID: c.UserID, Username: c.Username},
	})
	h.publish(events.Event{
		Type:           events.MessagesRead,
		ConversationID: conversationID,
		ReaderID:       c.UserID,
		Count:          len(marked),
	})
}

// --- typing ---

func (h *Hub) handleTyping(c *Client, conversationID string, isTyping bool) {
	h.typing.set(conversationID, c.UserID, c.Username, isTyping)
	h.broadcastToRoomExcept(conversationID, c.UserID, wire.UserTyping{
		Type:           wire.EvUserTyping,
		ConversationID: conversationID,
		UserID:         c.UserID,
		Username:       c.Username,
		IsTyping:       isTyping,
	})
}

// typingExpired fires from the tracker's timer when a typing signal goes
// stale, including after the typist disconnected mid-composition.
func (h *Hub) typingExpired(conversationID, userID, username string) {
	h.broadcastToRoomExcept(conversationID, userID, wire.UserTyping{
		Type:           wire.EvUserTyping,
		ConversationID: conversationID,
		UserID:         userID,
		Username:       username,
		IsTyping:       false,
	})
}

// --- delivery ---

func (h *Hub) broadcastToRoomExcept(conversationID, userID string, payload interface{}) {
	for _, c := range h.rooms.members(conversationID) {
		if c.UserID == userID {
			continue
		}
		h.deliver(c, payload)
	}
}

// deliver enqueues without blocking; a recipient with a full buffer misses
// the event rather than stalling everyone else.
func (h *Hub) deliver(c *Client, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Dropping event for slow session %s", c.SessionID)
	}
}

func (h *Hub) sendError(c *Client, code, message string) {
	h.deliver(c, wire.ErrorEvent{Type: wire.EvError, Code: code, Message: message})
}

func (h *Hub) publish(ev events.Event) {
	if h.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := h.events.Publish(ctx, ev); err != nil {
			log.Printf("Failed to publish %s event: %v", ev.Type, err)
		}
	}()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
