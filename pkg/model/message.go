package model

import (
	"errors"
	"strings"
	"time"
)

const MaxContentLength = 2000

var (
	ErrEmptyMessage   = errors.New("message must have text content or a file attachment")
	ErrContentTooLong = errors.New("message content exceeds maximum length")
)

type FileType string

const (
	FileImage    FileType = "image"
	FileVideo    FileType = "video"
	FileAudio    FileType = "audio"
	FileDocument FileType = "document"
)

// UserRef is the id+username pair echoed in event payloads.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Message struct {
	ID             int64    `json:"id"`
	ConversationID string   `json:"conversation_id"`
	SenderID       string   `json:"sender_id"`
	Content        string   `json:"content,omitempty"`
	FileURL        string   `json:"file_url,omitempty"`
	FileType       FileType `json:"file_type,omitempty"`
	FileName       string   `json:"file_name,omitempty"`
	FileSize       int64    `json:"file_size,omitempty"`
	// ReadBy contains the sender from creation and only ever grows.
	ReadBy    []string  `json:"read_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the content-or-file invariant.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" && m.FileURL == "" {
		return ErrEmptyMessage
	}
	if len(m.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// AddReader records userID in ReadBy. Idempotent; reports whether the set grew.
func (m *Message) AddReader(userID string) bool {
	if m.ReadByUser(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// UnreadBy reports whether the message counts as unread for userID:
// authored by someone else and not yet read by them.
func (m *Message) UnreadBy(userID string) bool {
	return m.SenderID != userID && !m.ReadByUser(userID)
}

// UnreadCount is the full recomputation the incremental counters must agree with.
func UnreadCount(msgs []Message, userID string) int {
	n := 0
	for i := range msgs {
		if msgs[i].UnreadBy(userID) {
			n++
		}
	}
	return n
}

type ReadState string

const (
	StatusSent    ReadState = "sent"
	StatusPartial ReadState = "partial"
	StatusRead    ReadState = "read"
)

// ReadStatus is the sender-facing receipt summary for one message.
type ReadStatus struct {
	State      ReadState `json:"state"`
	Readers    int       `json:"readers"`
	Recipients int       `json:"recipients"`
}

// Status derives the receipt state of m within conversation c.
// Direct conversations flip to read on the first other reader; groups
// report a partial reader count until every other participant has read.
func (m *Message) Status(c *Conversation) ReadStatus {
	recipients := 0
	readers := 0
	for _, p := range c.Participants {
		if p == m.SenderID {
			continue
		}
		recipients++
		if m.ReadByUser(p) {
			readers++
		}
	}
	s := ReadStatus{Readers: readers, Recipients: recipients}
	switch {
	case readers == 0:
		s.State = StatusSent
	case !c.IsGroup || readers >= recipients:
		s.State = StatusRead
	default:
		s.State = StatusPartial
	}
	return s
}
