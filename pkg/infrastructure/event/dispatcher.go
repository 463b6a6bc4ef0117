package event

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/service"
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrClosed    = errors.New("event dispatcher is closed")
)

const DefaultQueueSize = 256

type Handler func(event service.Event)

// Dispatcher logs every event and hands it to the subscribed handlers on a
// background worker.
type Dispatcher struct {
	handlers []Handler
	queue    chan service.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ service.EventDispatcher = (*Dispatcher)(nil)

func NewDispatcher(queueSize int, handlers ...Handler) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		handlers: handlers,
		queue:    make(chan service.Event, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Dispatch(event service.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	log.WithField("type", event.Type()).WithField("event", event).Info("event dispatched")
	select {
	case d.queue <- event:
		return nil
	default:
		log.WithField("type", event.Type()).Warn("event queue is full, dropping event")
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until queued ones are handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		for _, handle := range d.handlers {
			d.safeHandle(handle, event)
		}
	}
}

func (d *Dispatcher) safeHandle(handle Handler, event service.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("type", event.Type()).WithField("panic", r).Error("event handler panicked")
		}
	}()
	handle(event)
}
