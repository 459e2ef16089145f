package main

import "testing"

func TestRoomAddRemove(t *testing.T) {
	r := newRoomRegistry()
	a := newTestClient("a", "alice")
	b := newTestClient("b", "bob")

	r.add(a, "c1")
	r.add(b, "c1")
	if got := r.members("c1"); len(got) != 2 {
		t.Fatalf("members = %d, want 2", len(got))
	}

	r.remove(a, "c1")
	got := r.members("c1")
	if len(got) != 1 || got[0] != b {
		t.Errorf("members after remove = %v", got)
	}

	// Leaving a room you are not in is fine.
	r.remove(a, "c1")
	r.remove(a, "never-joined")
}

func TestRoomUsersInRoom(t *testing.T) {
	r := newRoomRegistry()
	a1 := newTestClient("a", "alice")
	a2 := newTestClient("a", "alice")
	r.add(a1, "c1")
	r.add(a2, "c1")

	users := r.usersInRoom("c1")
	if len(users) != 1 || !users["a"] {
		t.Errorf("usersInRoom = %v, want just a", users)
	}
}

func TestRoomDropClient(t *testing.T) {
	r := newRoomRegistry()
	a := newTestClient("a", "alice")
	b := newTestClient("b", "bob")
	r.add(a, "c1")
	r.add(a, "c2")
	r.add(b, "c1")

	r.dropClient(a)

	if got := r.members("c1"); len(got) != 1 || got[0] != b {
		t.Errorf("c1 members = %v, want just b", got)
	}
	if got := r.members("c2"); len(got) != 0 {
		t.Errorf("c2 members = %v, want empty", got)
	}
}
