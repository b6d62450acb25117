package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erent/internal/app/handlers/notifications"
)

type mockProjection struct{ mock.Mock }

func (m *mockProjection) Project(ctx context.Context, ev notifications.Event) error {
	return m.Called(ev.ID, ev.Type).Error(0)
}

const rentCreated = `{"specversion":"1.0","id":"evt-1","type":"rent.created.v1","source":"app://erent","subject":"r-1","datacontenttype":"application/json","data":{"rent_id":"r-1"}}`

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(rentCreated))
	require.NoError(t, err)
	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, "rent.created.v1", ev.Type)
	assert.JSONEq(t, `{"rent_id":"r-1"}`, string(ev.Data))

	_, err = DecodeEvent([]byte(`{"type":"rent.created.v1"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
	_, err = DecodeEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestProjectionHandler(t *testing.T) {
	projection := &mockProjection{}
	projection.On("Project", "evt-1", "rent.created.v1").Return(errors.New("mongo down")).Once()
	h := ProjectionHandler{Projection: projection}

	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(rentCreated)})
	assert.Error(t, err, "projection failures leave the message unmarked")

	err = h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`garbage`)})
	assert.NoError(t, err, "malformed messages are skipped")
	projection.AssertExpectations(t)
}

func TestLoopback(t *testing.T) {
	projection := &mockProjection{}
	projection.On("Project", "evt-1", "rent.created.v1").Return(nil).Once()

	err := Loopback{Projection: projection}.Publish(context.Background(), "rent.events.v1", "r-1", []byte(rentCreated), nil)

	require.NoError(t, err)
	projection.AssertExpectations(t)
}
