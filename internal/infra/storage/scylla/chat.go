package scylla

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"

	"erent/internal/domain/chat"
	"erent/internal/domain/property"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

const messageColumns = `message_id, sender_id, receiver_id, property_id, text, read, read_at, sent_at`

// ChatStore keeps messages partitioned by conversation. Lookups by id go
// through messages_by_id and the peers table lists a user's threads.
type ChatStore struct {
	session *gocql.Session
	logger  *slog.Logger
}

func NewChatStore(session *gocql.Session, logger *slog.Logger) *ChatStore {
	return &ChatStore{session: session, logger: logger}
}

func (s *ChatStore) ByID(ctx context.Context, id chat.MessageID) (*chat.Message, error) {
	var (
		key    string
		sentAt time.Time
	)
	err := s.session.
		Query(`SELECT conversation_key, sent_at FROM messages_by_id WHERE message_id = ?`, string(id)).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(&key, &sentAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, chat.ErrNotFound
		}
		return nil, err
	}
	iter := s.session.
		Query(`SELECT `+messageColumns+` FROM messages WHERE conversation_key = ? AND sent_at = ? AND message_id = ?`, key, sentAt, string(id)).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()
	items, err := scanMessages(iter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, chat.ErrNotFound
	}
	return items[0], nil
}

func (s *ChatStore) Save(ctx context.Context, m *chat.Message) error {
	key := chat.ConversationKey(m.SenderID, m.ReceiverID)
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO messages (conversation_key, sent_at, message_id, sender_id, receiver_id, property_id, text, read, read_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, m.SentAt.UTC(), string(m.ID), string(m.SenderID), string(m.ReceiverID), string(m.PropertyID), m.Text, m.Read, m.ReadAt)
	batch.Query(`INSERT INTO messages_by_id (message_id, conversation_key, sent_at) VALUES (?, ?, ?)`, string(m.ID), key, m.SentAt.UTC())
	batch.Query(`INSERT INTO peers (user_id, peer_id) VALUES (?, ?)`, string(m.SenderID), string(m.ReceiverID))
	batch.Query(`INSERT INTO peers (user_id, peer_id) VALUES (?, ?)`, string(m.ReceiverID), string(m.SenderID))
	batch.SetConsistency(gocql.Quorum)
	return s.session.ExecuteBatch(batch)
}

func (s *ChatStore) Between(ctx context.Context, a, b user.ID, page paging.Params) (paging.Page[*chat.Message], error) {
	items, err := s.conversation(ctx, a, b)
	if err != nil {
		return paging.Page[*chat.Message]{}, err
	}
	return paging.Apply(items, page), nil
}

func (s *ChatStore) Conversations(ctx context.Context, userID user.ID) ([]chat.Conversation, error) {
	peers, err := s.peers(ctx, userID)
	if err != nil {
		return nil, err
	}
	var all []*chat.Message
	for _, peer := range peers {
		items, err := s.conversation(ctx, userID, peer)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return chat.Summarize(userID, all), nil
}

func (s *ChatStore) MarkRead(ctx context.Context, id chat.MessageID, at time.Time) error {
	m, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	changed, err := m.MarkRead(m.ReceiverID, at)
	if err != nil || !changed {
		return err
	}
	return s.setRead(ctx, m)
}

func (s *ChatStore) MarkConversationRead(ctx context.Context, userID, peerID user.ID, at time.Time) (int, error) {
	items, err := s.conversation(ctx, userID, peerID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range items {
		if m.ReceiverID != userID || m.SenderID != peerID {
			continue
		}
		changed, err := m.MarkRead(userID, at)
		if err != nil {
			return count, err
		}
		if !changed {
			continue
		}
		if err := s.setRead(ctx, m); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *ChatStore) UnreadCount(ctx context.Context, userID user.ID) (int, error) {
	conversations, err := s.Conversations(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range conversations {
		count += c.UnreadCount
	}
	return count, nil
}

func (s *ChatStore) setRead(ctx context.Context, m *chat.Message) error {
	return s.session.
		Query(`UPDATE messages SET read = true, read_at = ? WHERE conversation_key = ? AND sent_at = ? AND message_id = ?`,
			m.ReadAt, chat.ConversationKey(m.SenderID, m.ReceiverID), m.SentAt.UTC(), string(m.ID)).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

func (s *ChatStore) conversation(ctx context.Context, a, b user.ID) ([]*chat.Message, error) {
	iter := s.session.
		Query(`SELECT `+messageColumns+` FROM messages WHERE conversation_key = ?`, chat.ConversationKey(a, b)).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()
	return scanMessages(iter)
}

func (s *ChatStore) peers(ctx context.Context, userID user.ID) ([]user.ID, error) {
	iter := s.session.
		Query(`SELECT peer_id FROM peers WHERE user_id = ?`, string(userID)).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()
	var (
		peer string
		out  []user.ID
	)
	for iter.Scan(&peer) {
		out = append(out, user.ID(peer))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanMessages(iter *gocql.Iter) ([]*chat.Message, error) {
	var (
		id, sender, receiver, propertyID, text string
		read                                   bool
		readAt, sentAt                         time.Time
		out                                    []*chat.Message
	)
	for iter.Scan(&id, &sender, &receiver, &propertyID, &text, &read, &readAt, &sentAt) {
		m := &chat.Message{
			ID:         chat.MessageID(id),
			SenderID:   user.ID(sender),
			ReceiverID: user.ID(receiver),
			PropertyID: property.ID(propertyID),
			Text:       text,
			Read:       read,
			SentAt:     sentAt.UTC(),
		}
		if !readAt.IsZero() {
			at := readAt.UTC()
			m.ReadAt = &at
		}
		out = append(out, m)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ chat.Repository = (*ChatStore)(nil)
