// Package event fans multiple backend watch channels into one stream
// for the UI. The bubbletea loop reads a single channel; each backend
// runs its own watcher goroutine behind it.
package event

import (
	"sync"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
)

// Event is a backend watch event tagged with its source backend.
type Event struct {
	BackendID string
	Type      backend.EventType
	ThreadID  string
}

// Dispatcher merges per-backend event channels into one.
type Dispatcher struct {
	out  chan Event
	stop chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		out:  make(chan Event, 64),
		stop: make(chan struct{}),
	}
}

// AddSource starts forwarding events from one backend channel. The
// forwarder exits when the source closes or the dispatcher stops.
func (d *Dispatcher) AddSource(backendID string, source <-chan backend.Event) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.stop:
				return
			case ev, ok := <-source:
				if !ok {
					return
				}
				select {
				case d.out <- Event{BackendID: backendID, Type: ev.Type, ThreadID: ev.ThreadID}:
				case <-d.stop:
					return
				}
			}
		}
	}()
}

// Events returns the merged stream. The channel closes after Stop.
func (d *Dispatcher) Events() <-chan Event {
	return d.out
}

// Stop shuts down all forwarders and closes the merged channel. Safe to
// call once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.stop)
	go func() {
		d.wg.Wait()
		close(d.out)
	}()
}
