package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"erent/internal/domain/chat"
	"erent/internal/domain/shared/paging"
	"erent/internal/domain/user"
)

// ChatStore is the in-process message store used when no Scylla cluster is configured.
type ChatStore struct {
	mu       sync.RWMutex
	messages map[chat.MessageID]*chat.Message
}

func NewChatStore() *ChatStore {
	return &ChatStore{messages: make(map[chat.MessageID]*chat.Message)}
}

func (s *ChatStore) ByID(ctx context.Context, id chat.MessageID) (*chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.messages[id]; ok {
		return cloneMessage(m), nil
	}
	return nil, chat.ErrNotFound
}

func (s *ChatStore) Save(ctx context.Context, m *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = cloneMessage(m)
	return nil
}

func (s *ChatStore) Between(ctx context.Context, a, b user.ID, page paging.Params) (paging.Page[*chat.Message], error) {
	s.mu.RLock()
	key := chat.ConversationKey(a, b)
	var matches []*chat.Message
	for _, m := range s.messages {
		if chat.ConversationKey(m.SenderID, m.ReceiverID) == key {
			matches = append(matches, cloneMessage(m))
		}
	}
	s.mu.RUnlock()
	sortNewest(matches)
	return paging.Apply(matches, page), nil
}

func (s *ChatStore) Conversations(ctx context.Context, userID user.ID) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var mine []*chat.Message
	for _, m := range s.messages {
		if m.Involves(userID) {
			mine = append(mine, m)
		}
	}
	return chat.Summarize(userID, mine), nil
}

func (s *ChatStore) MarkRead(ctx context.Context, id chat.MessageID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return chat.ErrNotFound
	}
	_, err := m.MarkRead(m.ReceiverID, at)
	return err
}

func (s *ChatStore) MarkConversationRead(ctx context.Context, userID, peerID user.ID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.ReceiverID != userID || m.SenderID != peerID {
			continue
		}
		changed, err := m.MarkRead(userID, at)
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}

func (s *ChatStore) UnreadCount(ctx context.Context, userID user.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.Read {
			count++
		}
	}
	return count, nil
}

func sortNewest(items []*chat.Message) {
	sort.Slice(items, func(i, j int) bool {
		return newerFirst(items[i].SentAt, items[j].SentAt, string(items[i].ID), string(items[j].ID))
	})
}

var _ chat.Repository = (*ChatStore)(nil)
