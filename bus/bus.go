// Package bus delivers host events to in-process subscribers. Handlers
// for one Publish run one at a time in subscription order, on the
// publisher's goroutine. The bus lock is never held across a handler,
// so a handler stalled on a slow consumer cannot wedge another
// publisher.
package bus

import "sync"

// Event names mirror the ones emitted by the native host.
const (
	EventTranscript     = "jargon:transcript"
	EventDictationStart = "jargon:dictation-start"
	EventDictationStop  = "jargon:dictation-stop"
	EventEngineLog      = "jargon:engine-log"
)

// Payload carries the event body. Transcript events set Text,
// engine-log events set Stream and Line, start/stop signals are bare.
type Payload struct {
	Text   string
	Stream string
	Line   string
}

type Handler func(Payload)

type subscriber struct {
	id      int
	handler Handler
}

type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscriber
}

func New() *Bus {
	return &Bus{subs: make(map[string][]subscriber)}
}

// Subscribe registers a handler for the named event and returns its
// unsubscribe function. Unsubscribing is idempotent and removes the
// handler from all future deliveries; a Publish that snapshotted the
// subscriber list before the unsubscribe may still invoke it once.
func (b *Bus) Subscribe(event string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[event] = append(b.subs[event], subscriber{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[event]
		for i, s := range list {
			if s.id == id {
				b.subs[event] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the payload to every current subscriber of the
// named event, in subscription order. The subscriber list is
// snapshotted under the lock and the handlers run after it is
// released, so publishing from inside a handler is safe and a blocked
// handler only ever blocks its own publisher.
func (b *Bus) Publish(event string, p Payload) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs[event]))
	copy(subs, b.subs[event])
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(p)
	}
}
