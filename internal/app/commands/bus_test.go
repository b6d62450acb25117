package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Value string }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, HandlerFunc[pingCommand, string](func(ctx context.Context, cmd pingCommand) (string, error) {
		return "pong:" + cmd.Value, nil
	}))

	out, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{Value: "a"})
	require.NoError(t, err)
	assert.Equal(t, "pong:a", out)
	assert.Equal(t, []string{"test.ping"}, bus.Keys())

	_, err = Dispatch[otherCommand, string](context.Background(), bus, otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) { return "", nil })
	RegisterHandler[pingCommand, string](bus, h)
	assert.Panics(t, func() { RegisterHandler[pingCommand, string](bus, h) })
}
