package model

import (
	"reflect"
	"testing"
)

func TestDirectKeyCanonical(t *testing.T) {
	a1, b1, err := DirectKey("zoe", "adam")
	if err != nil {
		t.Fatal(err)
	}
	a2, b2, err := DirectKey("adam", "zoe")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 || b1 != b2 {
		t.Errorf("DirectKey not order independent: (%s,%s) vs (%s,%s)", a1, b1, a2, b2)
	}
	if a1 != "adam" || b1 != "zoe" {
		t.Errorf("DirectKey = (%s,%s), want sorted pair", a1, b1)
	}
}

func TestDirectKeySelf(t *testing.T) {
	if _, _, err := DirectKey("adam", "adam"); err != ErrSelfConversation {
		t.Errorf("err = %v, want ErrSelfConversation", err)
	}
}

func TestDedup(t *testing.T) {
	got := Dedup([]string{"a", "b", "a", "", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedup = %v, want %v", got, want)
	}
}

func TestOthers(t *testing.T) {
	c := &Conversation{Participants: []string{"a", "b", "c"}}
	got := c.Others("b")
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Others = %v, want %v", got, want)
	}
	if !c.HasParticipant("b") || c.HasParticipant("d") {
		t.Error("HasParticipant mismatch")
	}
}
