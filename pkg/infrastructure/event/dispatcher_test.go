package event

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce/pkg/domain/model"
	"ecommerce/pkg/domain/service"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) handle(event service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Type())
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	first, second := &recorder{}, &recorder{}
	dispatcher := NewDispatcher(10, first.handle, second.handle)

	require.NoError(t, dispatcher.Dispatch(model.OrderPlaced{OrderID: uuid.New()}))
	require.NoError(t, dispatcher.Dispatch(model.OrderCancelled{OrderID: uuid.New()}))
	dispatcher.Close()

	assert.Equal(t, []string{"OrderPlaced", "OrderCancelled"}, first.events)
	assert.Equal(t, first.events, second.events)
}

func TestDispatcherSurvivesPanickingHandler(t *testing.T) {
	rec := &recorder{}
	dispatcher := NewDispatcher(10, func(service.Event) { panic("boom") }, rec.handle)

	require.NoError(t, dispatcher.Dispatch(model.UserRegistered{UserID: uuid.New()}))
	dispatcher.Close()

	assert.Equal(t, []string{"UserRegistered"}, rec.events)
}

func TestDispatchAfterClose(t *testing.T) {
	dispatcher := NewDispatcher(1)
	dispatcher.Close()
	dispatcher.Close()

	assert.ErrorIs(t, dispatcher.Dispatch(model.OrderPlaced{}), ErrClosed)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	dispatcher := NewDispatcher(1, func(service.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	require.NoError(t, dispatcher.Dispatch(model.OrderPlaced{}))
	<-started
	require.NoError(t, dispatcher.Dispatch(model.OrderPlaced{}))
	assert.ErrorIs(t, dispatcher.Dispatch(model.OrderPlaced{}), ErrQueueFull)

	close(release)
	dispatcher.Close()
}
