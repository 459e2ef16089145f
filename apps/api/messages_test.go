package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/laibhnoor/ChatApp/pkg/auth"
	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

// fakeMessageStore is an in-memory messageStore.
type fakeMessageStore struct {
	conversations map[string]*model.Conversation
	messages      []*model.Message
	lastMessage   map[string]int64
	nextID        int64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		conversations: make(map[string]*model.Conversation),
		lastMessage:   make(map[string]int64),
	}
}

func (s *fakeMessageStore) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	c, ok := s.conversations[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (s *fakeMessageStore) InsertMessage(_ context.Context, m *model.Message) (*model.Message, error) {
	s.nextID++
	m.ID = s.nextID
	m.Content = strings.TrimSpace(m.Content)
	m.ReadBy = []string{m.SenderID}
	m.CreatedAt = time.Now()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *fakeMessageStore) SetLastMessage(_ context.Context, conversationID string, messageID int64) error {
	s.lastMessage[conversationID] = messageID
	return nil
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func postAs(t *testing.T, handler http.HandlerFunc, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	claims := &auth.Claims{UserID: userID, Username: userID}
	req = req.WithContext(context.WithValue(req.Context(), auth.UserKey, claims))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSendMessageText(t *testing.T) {
	store := newFakeMessageStore()
	store.conversations["c1"] = &model.Conversation{ID: "c1", Participants: []string{"a", "b"}}
	pub := &capturePublisher{}

	rec := postAs(t, SendHandler(store, pub), "a", `{"conversation_id":"c1","content":"hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var msg model.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hello" || msg.SenderID != "a" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.ReadBy) != 1 || msg.ReadBy[0] != "a" {
		t.Errorf("readBy = %v, want [a]", msg.ReadBy)
	}
	if store.lastMessage["c1"] != msg.ID {
		t.Error("last-message pointer not updated")
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != events.MessageCreated || ev.SenderID != "a" || len(ev.Participants) != 2 {
		t.Errorf("event = %+v", ev)
	}
}

func TestSendMessageFileOnly(t *testing.T) {
	store := newFakeMessageStore()
	store.conversations["c1"] = &model.Conversation{ID: "c1", Participants: []string{"a", "b"}}
	pub := &capturePublisher{}

	body := `{"conversation_id":"c1","file_url":"https://files/x.png","file_type":"image","file_name":"x.png","file_size":1024}`
	rec := postAs(t, SendHandler(store, pub), "a", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	if len(store.messages) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(store.messages))
	}
	m := store.messages[0]
	if m.FileURL != "https://files/x.png" || m.FileType != model.FileImage || m.FileSize != 1024 {
		t.Errorf("file fields = %q %q %d", m.FileURL, m.FileType, m.FileSize)
	}
}

func TestSendMessageEmptyRejected(t *testing.T) {
	store := newFakeMessageStore()
	store.conversations["c1"] = &model.Conversation{ID: "c1", Participants: []string{"a", "b"}}
	pub := &capturePublisher{}

	rec := postAs(t, SendHandler(store, pub), "a", `{"conversation_id":"c1","content":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.messages) != 0 {
		t.Error("invalid message must not persist")
	}
	if len(pub.events) != 0 {
		t.Error("no event for a rejected message")
	}
}

func TestSendMessageNotParticipant(t *testing.T) {
	store := newFakeMessageStore()
	store.conversations["c1"] = &model.Conversation{ID: "c1", Participants: []string{"a", "b"}}
	pub := &capturePublisher{}

	rec := postAs(t, SendHandler(store, pub), "eve", `{"conversation_id":"c1","content":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if len(store.messages) != 0 {
		t.Error("unauthorized send must not persist")
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	store := newFakeMessageStore()
	pub := &capturePublisher{}

	rec := postAs(t, SendHandler(store, pub), "a", `{"conversation_id":"missing","content":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
