package model

import (
	"errors"
	"time"
)

var (
	ErrSelfConversation   = errors.New("cannot create a conversation with yourself")
	ErrTooFewParticipants = errors.New("a group needs at least two participants")
)

type Conversation struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"is_group"`
	// Participants is a set; direct conversations hold exactly two.
	Participants  []string  `json:"participants"`
	AdminID       string    `json:"admin_id,omitempty"`
	LastMessageID int64     `json:"last_message_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Others returns the participants excluding userID.
func (c *Conversation) Others(userID string) []string {
	out := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userID {
			out = append(out, p)
		}
	}
	return out
}

// DirectKey canonicalizes a direct-conversation pair so repeated DM
// initiation between the same two users resolves to one conversation.
func DirectKey(a, b string) (string, string, error) {
	if a == b {
		return "", "", ErrSelfConversation
	}
	if a > b {
		a, b = b, a
	}
	return a, b, nil
}

// Dedup keeps the first occurrence of each id, preserving order.
func Dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
