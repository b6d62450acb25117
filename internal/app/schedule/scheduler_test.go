package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"erent/internal/app/commands"
)

type tick struct{}

func (tick) Key() string { return "test.tick" }

type mockBus struct{ mock.Mock }

func (m *mockBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	args := m.Called(cmd)
	return args.Get(0), args.Error(1)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(&mockBus{}, quiet())
	assert.Error(t, s.Register("tick", "every minute", tick{}))
	assert.NoError(t, s.Register("tick", "0 */5 * * * *", tick{}))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunDispatchesThroughBus(t *testing.T) {
	bus := &mockBus{}
	bus.On("Dispatch", tick{}).Return(3, nil).Once()
	bus.On("Dispatch", tick{}).Return(nil, errors.New("mongo down")).Once()
	s := New(bus, quiet())

	s.run(context.Background(), "tick", tick{})
	s.run(context.Background(), "tick", tick{})

	bus.AssertExpectations(t)
}

func TestRunStopsWithContext(t *testing.T) {
	s := New(&mockBus{}, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
}
