package main

import (
	"context"
	"testing"

	"github.com/laibhnoor/ChatApp/pkg/events"
	"github.com/laibhnoor/ChatApp/pkg/model"
)

type counterKey struct {
	userID         string
	conversationID string
}

type fakeCounterStore struct {
	counts map[counterKey]int
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[counterKey]int)}
}

func (s *fakeCounterStore) IncrementUnread(_ context.Context, userID, conversationID string) error {
	s.counts[counterKey{userID, conversationID}]++
	return nil
}

func (s *fakeCounterStore) DecrementUnread(_ context.Context, userID, conversationID string, n int) error {
	s.counts[counterKey{userID, conversationID}] -= n
	return nil
}

func (s *fakeCounterStore) ResetUnread(_ context.Context, userID, conversationID string) error {
	delete(s.counts, counterKey{userID, conversationID})
	return nil
}

func TestApplyMessageCreated(t *testing.T) {
	store := newFakeCounterStore()
	c := &Consumer{store: store}

	ev := events.Event{
		Type:           events.MessageCreated,
		ConversationID: "c1",
		SenderID:       "a",
		Participants:   []string{"a", "b", "c"},
	}
	if err := c.apply(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if got := store.counts[counterKey{"a", "c1"}]; got != 0 {
		t.Errorf("sender counter = %d, want 0", got)
	}
	for _, u := range []string{"b", "c"} {
		if got := store.counts[counterKey{u, "c1"}]; got != 1 {
			t.Errorf("counter for %s = %d, want 1", u, got)
		}
	}
}

func TestApplyMessagesReadDecrements(t *testing.T) {
	store := newFakeCounterStore()
	store.counts[counterKey{"b", "c1"}] = 5
	c := &Consumer{store: store}

	ev := events.Event{
		Type:           events.MessagesRead,
		ConversationID: "c1",
		ReaderID:       "b",
		Count:          2,
	}
	if err := c.apply(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if got := store.counts[counterKey{"b", "c1"}]; got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}
}

func TestApplyMessagesReadAllResets(t *testing.T) {
	store := newFakeCounterStore()
	store.counts[counterKey{"b", "c1"}] = 7
	c := &Consumer{store: store}

	ev := events.Event{
		Type:           events.MessagesRead,
		ConversationID: "c1",
		ReaderID:       "b",
		Count:          7,
		All:            true,
	}
	if err := c.apply(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if _, ok := store.counts[counterKey{"b", "c1"}]; ok {
		t.Error("counter row should be gone after a whole-conversation read")
	}
}

// TestCountersMatchRecomputation runs a conversation through the event
// stream while mirroring the message mutations the gateway would make, then
// checks that every participant's incremental counter equals the full
// recomputation over the messages. The two views must agree at quiescence.
func TestCountersMatchRecomputation(t *testing.T) {
	store := newFakeCounterStore()
	c := &Consumer{store: store}
	ctx := context.Background()

	participants := []string{"a", "b", "c"}
	var msgs []model.Message
	var nextID int64

	apply := func(ev events.Event) {
		t.Helper()
		ev.ConversationID = "c1"
		if err := c.apply(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	send := func(sender string) {
		nextID++
		msgs = append(msgs, model.Message{ID: nextID, SenderID: sender, ReadBy: []string{sender}})
		apply(events.Event{
			Type:         events.MessageCreated,
			MessageID:    nextID,
			SenderID:     sender,
			Participants: participants,
		})
	}
	markRead := func(reader string, ids ...int64) {
		marked := 0
		for _, id := range ids {
			for i := range msgs {
				if msgs[i].ID == id && msgs[i].UnreadBy(reader) {
					msgs[i].AddReader(reader)
					marked++
				}
			}
		}
		if marked > 0 {
			apply(events.Event{Type: events.MessagesRead, ReaderID: reader, Count: marked})
		}
	}
	markAll := func(reader string) {
		marked := 0
		for i := range msgs {
			if msgs[i].UnreadBy(reader) {
				msgs[i].AddReader(reader)
				marked++
			}
		}
		if marked > 0 {
			apply(events.Event{Type: events.MessagesRead, ReaderID: reader, Count: marked, All: true})
		}
	}

	send("a")
	send("a")
	markRead("b", 1)
	markAll("c")
	send("a")
	markRead("b", 1) // already read, no event
	markRead("a", 3) // own message, no event

	for _, user := range participants {
		want := model.UnreadCount(msgs, user)
		got := store.counts[counterKey{user, "c1"}]
		if got != want {
			t.Errorf("counter for %s = %d, recomputation = %d", user, got, want)
		}
	}
}

func TestApplyUnknownTypeIgnored(t *testing.T) {
	store := newFakeCounterStore()
	c := &Consumer{store: store}

	if err := c.apply(context.Background(), events.Event{Type: "mystery"}); err != nil {
		t.Fatal(err)
	}
	if len(store.counts) != 0 {
		t.Errorf("counters = %v, want untouched", store.counts)
	}
}
