package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(SendParams{ID: "m-1", SenderID: "a", ReceiverID: "b", Text: " hi ", Now: now})
	require.NoError(t, err)
	assert.Equal(t, "hi", m.Text)
	assert.False(t, m.Read)

	_, err = NewMessage(SendParams{SenderID: "a", ReceiverID: "a", Text: "hi"})
	assert.ErrorIs(t, err, ErrSelfMessage)
	_, err = NewMessage(SendParams{SenderID: "a", ReceiverID: "b", Text: "  "})
	assert.ErrorIs(t, err, ErrTextRequired)
	_, err = NewMessage(SendParams{SenderID: "a", ReceiverID: "b", Text: strings.Repeat("x", 2001)})
	assert.ErrorIs(t, err, ErrTextTooLong)
}

func TestMarkRead(t *testing.T) {
	m := &Message{SenderID: "a", ReceiverID: "b"}
	_, err := m.MarkRead("a", now)
	assert.ErrorIs(t, err, ErrNotRecipient)

	changed, err := m.MarkRead("b", now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = m.MarkRead("b", now)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, ConversationKey("a", "b"), ConversationKey("b", "a"))
}

func TestSummarize(t *testing.T) {
	msgs := []*Message{
		{ID: "1", SenderID: "b", ReceiverID: "a", Text: "hello", SentAt: now},
		{ID: "2", SenderID: "a", ReceiverID: "b", Text: "hey", SentAt: now.Add(time.Minute)},
		{ID: "3", SenderID: "b", ReceiverID: "a", Text: "question", SentAt: now.Add(2 * time.Minute)},
		{ID: "4", SenderID: "c", ReceiverID: "a", Text: "old", SentAt: now.Add(-time.Hour), Read: true},
		{ID: "5", SenderID: "c", ReceiverID: "d", Text: "unrelated", SentAt: now},
	}
	convs := Summarize("a", msgs)
	require.Len(t, convs, 2)
	assert.Equal(t, "b", string(convs[0].PeerID))
	assert.Equal(t, MessageID("3"), convs[0].LastMessage.ID)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.Equal(t, "c", string(convs[1].PeerID))
	assert.Equal(t, 0, convs[1].UnreadCount)
}
