package wire

import (
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"join", `{"type":"join_conversation","conversation_id":"c1"}`, nil},
		{"leave", `{"type":"leave_conversation","conversation_id":"c1"}`, nil},
		{"send", `{"type":"send_message","conversation_id":"c1","content":"hi"}`, nil},
		{"typing", `{"type":"typing","conversation_id":"c1","is_typing":true}`, nil},
		{"mark read", `{"type":"mark_as_read","conversation_id":"c1","message_ids":[1,2]}`, nil},
		{"join without conversation", `{"type":"join_conversation"}`, ErrMissingConversation},
		{"mark read without ids", `{"type":"mark_as_read","conversation_id":"c1"}`, ErrMissingMessageIDs},
		{"unknown type", `{"type":"self_destruct"}`, ErrUnknownEvent},
		{"empty type", `{"conversation_id":"c1"}`, ErrUnknownEvent},
		{"not json", `not json`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.data))
			if err != tt.wantErr {
				t.Fatalf("Decode() err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && ev.ConversationID != "c1" {
				t.Errorf("ConversationID = %q", ev.ConversationID)
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"mark_as_read","conversation_id":"c1","message_ids":[7,9]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.MessageIDs) != 2 || ev.MessageIDs[0] != 7 || ev.MessageIDs[1] != 9 {
		t.Errorf("MessageIDs = %v", ev.MessageIDs)
	}
}
