package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/laibhnoor/ChatApp/pkg/model"
	"github.com/laibhnoor/ChatApp/pkg/snowflake"
)

var ErrNotFound = errors.New("not found")

const onlineUsersKey = "users:online"

// Store is the ScyllaDB-backed chat store. It is the persistence gateway
// the realtime layer writes through and the REST read path queries.
// Online flags live in Redis; everything durable lives in Scylla.
type Store struct {
	db    *Session
	redis *redis.Client
	ids   *snowflake.Node
}

func NewStore(session *Session, rdb *redis.Client, ids *snowflake.Node) *Store {
	return &Store{db: session, redis: rdb, ids: ids}
}

// --- conversations ---

func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var participants []string
	err := s.db.Query(
		`SELECT id, name, is_group, participants, admin_id, last_message_id, updated_at FROM conversations WHERE id = ?`,
		id,
	).WithContext(ctx).Scan(&c.ID, &c.Name, &c.IsGroup, &participants, &c.AdminID, &c.LastMessageID, &c.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Participants = participants
	return &c, nil
}

func (s *Store) IsParticipant(ctx context.Context, userID, conversationID string) (bool, error) {
	c, err := s.GetConversation(ctx, conversationID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.HasParticipant(userID), nil
}

func (s *Store) ListParticipants(ctx context.Context, conversationID string) ([]string, error) {
	c, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return c.Participants, nil
}

// GetOrCreateDirect resolves the canonical direct conversation between two
// users, creating it if it does not exist. The sorted pair is claimed with a
// LWT insert so two racing creators converge on one conversation.
func (s *Store) GetOrCreateDirect(ctx context.Context, userA, userB string) (*model.Conversation, bool, error) {
	a, b, err := model.DirectKey(userA, userB)
	if err != nil {
		return nil, false, err
	}

	var existing string
	err = s.db.Query(`SELECT conversation_id FROM direct_index WHERE user_a = ? AND user_b = ?`, a, b).
		WithContext(ctx).Scan(&existing)
	if err == nil {
		c, err := s.GetConversation(ctx, existing)
		return c, false, err
	}
	if err != gocql.ErrNotFound {
		return nil, false, err
	}

	id := uuid.NewString()
	applied, err := s.db.Query(
		`INSERT INTO direct_index (user_a, user_b, conversation_id) VALUES (?, ?, ?) IF NOT EXISTS`,
		a, b, id,
	).WithContext(ctx).ScanCAS(nil, nil, &existing)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		// Lost the race; the winner's row carries the id.
		c, err := s.GetConversation(ctx, existing)
		return c, false, err
	}

	now := time.Now()
	c := &model.Conversation{
		ID:           id,
		IsGroup:      false,
		Participants: []string{a, b},
		UpdatedAt:    now,
	}
	if err := s.insertConversation(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Store) CreateGroup(ctx context.Context, name, adminID string, participants []string) (*model.Conversation, error) {
	all := model.Dedup(append([]string{adminID}, participants...))
	if len(all) < 2 {
		return nil, model.ErrTooFewParticipants
	}
	c := &model.Conversation{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		IsGroup:      true,
		Participants: all,
		AdminID:      adminID,
		UpdatedAt:    time.Now(),
	}
	if err := s.insertConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) insertConversation(ctx context.Context, c *model.Conversation) error {
	err := s.db.Query(
		`INSERT INTO conversations (id, name, is_group, participants, admin_id, last_message_id, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.IsGroup, c.Participants, c.AdminID, c.LastMessageID, c.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}
	for _, p := range c.Participants {
		if err := s.touchUserConversation(ctx, p, c.ID, c.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) touchUserConversation(ctx context.Context, userID, conversationID string, at time.Time) error {
	return s.db.Query(
		`INSERT INTO user_conversations (user_id, conversation_id, updated_at) VALUES (?, ?, ?)`,
		userID, conversationID, at,
	).WithContext(ctx).Exec()
}

func (s *Store) AddParticipant(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	c, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if c.HasParticipant(userID) {
		return c, nil
	}
	err = s.db.Query(
		`UPDATE conversations SET participants = participants + ? WHERE id = ?`,
		[]string{userID}, conversationID,
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, err
	}
	c.Participants = append(c.Participants, userID)
	if err := s.touchUserConversation(ctx, userID, conversationID, time.Now()); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveParticipant drops userID from the group, handing admin to the first
// remaining participant when the admin leaves.
func (s *Store) RemoveParticipant(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	c, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, ErrNotFound
	}
	remaining := c.Others(userID)
	admin := c.AdminID
	if admin == userID {
		admin = ""
		if len(remaining) > 0 {
			admin = remaining[0]
		}
	}
	err = s.db.Query(
		`UPDATE conversations SET participants = participants - ?, admin_id = ? WHERE id = ?`,
		[]string{userID}, admin, conversationID,
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, err
	}
	if err := s.db.Query(
		`DELETE FROM user_conversations WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	).WithContext(ctx).Exec(); err != nil {
		return nil, err
	}
	c.Participants = remaining
	c.AdminID = admin
	return c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	iter := s.db.Query(
		`SELECT conversation_id FROM user_conversations WHERE user_id = ?`, userID,
	).WithContext(ctx).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	out := make([]model.Conversation, 0, len(ids))
	for _, cid := range ids {
		c, err := s.GetConversation(ctx, cid)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// --- messages ---

// CreateMessage persists a new text message with readBy seeded to the sender.
func (s *Store) CreateMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error) {
	return s.InsertMessage(ctx, &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
}

// InsertMessage assigns the server-side fields to the draft (id, readBy
// seeded to the sender, creation time), validates and persists it. The REST
// send path goes through here so drafts may carry file reference fields.
func (s *Store) InsertMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	m.ID = s.ids.Generate()
	m.Content = strings.TrimSpace(m.Content)
	m.ReadBy = []string{m.SenderID}
	m.CreatedAt = time.Now()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	err := s.db.Query(
		`INSERT INTO messages (conversation_id, id, sender_id, content, file_url, file_type, file_name, file_size, read_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ConversationID, m.ID, m.SenderID, m.Content, m.FileURL, string(m.FileType), m.FileName, m.FileSize, m.ReadBy, m.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) GetMessage(ctx context.Context, conversationID string, id int64) (*model.Message, error) {
	var m model.Message
	var fileType string
	var readBy []string
	err := s.db.Query(
		`SELECT conversation_id, id, sender_id, content, file_url, file_type, file_name, file_size, read_by, created_at
		 FROM messages WHERE conversation_id = ? AND id = ?`,
		conversationID, id,
	).WithContext(ctx).Scan(&m.ConversationID, &m.ID, &m.SenderID, &m.Content, &m.FileURL, &fileType, &m.FileName, &m.FileSize, &readBy, &m.CreatedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.FileType = model.FileType(fileType)
	m.ReadBy = readBy
	return &m, nil
}

// SetLastMessage moves the conversation's last-message pointer. Best effort
// relative to the message itself: a failure here leaves the message in place.
func (s *Store) SetLastMessage(ctx context.Context, conversationID string, messageID int64) error {
	now := time.Now()
	err := s.db.Query(
		`UPDATE conversations SET last_message_id = ?, updated_at = ? WHERE id = ?`,
		messageID, now, conversationID,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}
	participants, err := s.ListParticipants(ctx, conversationID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if err := s.touchUserConversation(ctx, p, conversationID, now); err != nil {
			return err
		}
	}
	return nil
}

// Messages pages newest-first below the `before` message id (0 = latest).
// Snowflake ids are time ordered, so the id cursor is the creation cursor.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int, before int64) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT conversation_id, id, sender_id, content, file_url, file_type, file_name, file_size, read_by, created_at
	      FROM messages WHERE conversation_id = ?`
	args := []interface{}{conversationID}
	if before > 0 {
		q += ` AND id < ?`
		args = append(args, before)
	}
	q += ` LIMIT ?`
	args = append(args, limit)

	iter := s.db.Query(q, args...).WithContext(ctx).Iter()
	var out []model.Message
	for {
		var m model.Message
		var fileType string
		var readBy []string
		if !iter.Scan(&m.ConversationID, &m.ID, &m.SenderID, &m.Content, &m.FileURL, &fileType, &m.FileName, &m.FileSize, &readBy, &m.CreatedAt) {
			break
		}
		m.FileType = model.FileType(fileType)
		m.ReadBy = readBy
		out = append(out, m)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- read receipts ---

// AddReaders marks the given messages read by userID and returns the ids that
// actually changed. Messages authored by userID and messages already read by
// them are skipped, so repeated calls converge to the same read_by sets.
func (s *Store) AddReaders(ctx context.Context, conversationID, userID string, messageIDs []int64) ([]int64, error) {
	var marked []int64
	for _, id := range messageIDs {
		m, err := s.GetMessage(ctx, conversationID, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return marked, err
		}
		if !m.UnreadBy(userID) {
			continue
		}
		err = s.db.Query(
			`UPDATE messages SET read_by = read_by + ? WHERE conversation_id = ? AND id = ?`,
			[]string{userID}, conversationID, id,
		).WithContext(ctx).Exec()
		if err != nil {
			return marked, err
		}
		marked = append(marked, id)
	}
	return marked, nil
}

// UnreadMessageIDs scans the conversation for messages unread by userID.
func (s *Store) UnreadMessageIDs(ctx context.Context, conversationID, userID string) ([]int64, error) {
	iter := s.db.Query(
		`SELECT id, sender_id, read_by FROM messages WHERE conversation_id = ?`, conversationID,
	).WithContext(ctx).Iter()

	var out []int64
	var id int64
	var senderID string
	var readBy []string
	for iter.Scan(&id, &senderID, &readBy) {
		m := model.Message{ID: id, SenderID: senderID, ReadBy: readBy}
		if m.UnreadBy(userID) {
			out = append(out, id)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- unread counters ---

// UnreadCount is the ground-truth recomputation over the messages table.
func (s *Store) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	ids, err := s.UnreadMessageIDs(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CounterUnread reads the incrementally maintained counter (0 when absent).
func (s *Store) CounterUnread(ctx context.Context, userID, conversationID string) (int64, error) {
	var n int64
	err := s.db.Query(
		`SELECT unread FROM unread_counters WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	).WithContext(ctx).Scan(&n)
	if err == gocql.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) IncrementUnread(ctx context.Context, userID, conversationID string) error {
	return s.db.Query(
		`UPDATE unread_counters SET unread = unread + 1 WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	).WithContext(ctx).Exec()
}

func (s *Store) DecrementUnread(ctx context.Context, userID, conversationID string, n int) error {
	if n <= 0 {
		return nil
	}
	return s.db.Query(
		`UPDATE unread_counters SET unread = unread - ? WHERE user_id = ? AND conversation_id = ?`,
		int64(n), userID, conversationID,
	).WithContext(ctx).Exec()
}

// ResetUnread zeroes the counter. Deleting the row is the Scylla counter
// reset idiom; a later increment recreates it.
func (s *Store) ResetUnread(ctx context.Context, userID, conversationID string) error {
	return s.db.Query(
		`DELETE FROM unread_counters WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	).WithContext(ctx).Exec()
}

// --- presence flags ---

func (s *Store) SetOnlineFlag(ctx context.Context, userID string, online bool) error {
	if s.redis == nil {
		return nil
	}
	if online {
		return s.redis.SAdd(ctx, onlineUsersKey, userID).Err()
	}
	return s.redis.SRem(ctx, onlineUsersKey, userID).Err()
}

func (s *Store) OnlineUsers(ctx context.Context) ([]string, error) {
	if s.redis == nil {
		return nil, nil
	}
	return s.redis.SMembers(ctx, onlineUsersKey).Result()
}
