package main

import "testing"

func TestPresenceFirstAndLastSession(t *testing.T) {
	r := newPresenceRegistry()
	s1 := newTestClient("a", "alice")
	s2 := newTestClient("a", "alice")

	if !r.add(s1) {
		t.Error("first session should report first=true")
	}
	if r.add(s2) {
		t.Error("second session must not report first=true")
	}
	if !r.isOnline("a") {
		t.Error("user with sessions should be online")
	}

	removed, last := r.remove(s1)
	if !removed || last {
		t.Errorf("remove(s1) = %v, %v, want true, false", removed, last)
	}
	if !r.isOnline("a") {
		t.Error("user still has a session, must stay online")
	}

	removed, last = r.remove(s2)
	if !removed || !last {
		t.Errorf("remove(s2) = %v, %v, want true, true", removed, last)
	}
	if r.isOnline("a") {
		t.Error("user with no sessions should be offline")
	}
}

func TestPresenceRemoveUnknownSession(t *testing.T) {
	r := newPresenceRegistry()
	ghost := newTestClient("a", "alice")
	if removed, last := r.remove(ghost); removed || last {
		t.Error("removing an unregistered session must be a no-op")
	}
}

func TestPresenceSessionsOfAndAllExcept(t *testing.T) {
	r := newPresenceRegistry()
	a1 := newTestClient("a", "alice")
	a2 := newTestClient("a", "alice")
	b := newTestClient("b", "bob")
	r.add(a1)
	r.add(a2)
	r.add(b)

	if got := r.sessionsOf("a"); len(got) != 2 {
		t.Errorf("sessionsOf(a) = %d sessions, want 2", len(got))
	}
	if got := r.sessionsOf("missing"); len(got) != 0 {
		t.Errorf("sessionsOf(missing) = %d sessions, want 0", len(got))
	}

	for _, c := range r.allExcept("a") {
		if c.UserID == "a" {
			t.Error("allExcept(a) returned one of a's sessions")
		}
	}
	if got := r.allExcept("a"); len(got) != 1 {
		t.Errorf("allExcept(a) = %d sessions, want 1", len(got))
	}
}
