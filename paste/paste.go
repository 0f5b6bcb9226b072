// Package paste types transcripts into the focused application by
// placing them on the clipboard and sending the platform paste chord.
package paste

import (
	"sync"

	"jargon/bus"
	"jargon/clipboard"
	"jargon/log"
)

// Typer listens for transcripts and pastes them into the active app
// while the type-into-active-app setting is on.
type Typer struct {
	mu      sync.Mutex
	enabled func() bool
	unsub   func()

	copyText func(string) error
	send     func() error
}

func NewTyper(enabled func() bool) *Typer {
	return &Typer{
		enabled:  enabled,
		copyText: clipboard.Copy,
		send:     Send,
	}
}

func (t *Typer) Attach(b *bus.Bus) {
	t.mu.Lock()
	attached := t.unsub != nil
	t.mu.Unlock()
	if attached {
		return
	}

	unsub := b.Subscribe(bus.EventTranscript, func(p bus.Payload) {
		t.Type(p.Text)
	})
	t.mu.Lock()
	t.unsub = unsub
	t.mu.Unlock()
}

// Type pastes text into the focused window. Best-effort: failures are
// logged and the transcript still lands in the history feed.
func (t *Typer) Type(text string) {
	if text == "" || !t.enabled() {
		return
	}
	if err := t.copyText(text); err != nil {
		log.Warnf("paste: copy before send: %v", err)
		return
	}
	if err := t.send(); err != nil {
		log.Warnf("paste: send chord: %v", err)
	}
}

// Close detaches from the bus. Idempotent.
func (t *Typer) Close() {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
