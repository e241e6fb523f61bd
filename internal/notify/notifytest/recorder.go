// Package notifytest provides an in-memory notify.Conn for tests.
package notifytest

import (
	"errors"
	"sync"

	"github.com/erazemk/najdeno/internal/notify"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("connection closed")

// Recorder is a notify.Conn that keeps every event it is sent.
type Recorder struct {
	id string

	mu     sync.Mutex
	events []notify.Event
	closed bool
}

// NewRecorder creates a recorder with the given connection ID.
func NewRecorder(id string) *Recorder {
	return &Recorder{id: id}
}

func (r *Recorder) ID() string { return r.id }

func (r *Recorder) Send(ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.events = append(r.events, ev)
	return nil
}

// Close makes further sends fail.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Events returns a copy of what has been sent so far.
func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// OfType returns the events with the given type.
func (r *Recorder) OfType(eventType string) []notify.Event {
	var out []notify.Event
	for _, ev := range r.Events() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
