// Package hotkey registers the global push-to-talk chord and turns
// press/release into dictation start/stop.
package hotkey

import (
	"fmt"
	"strings"

	"jargon/bridge"
	"jargon/bus"
	"jargon/log"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Binding is a parsed hotkey string such as "Ctrl+Shift" or
// "Ctrl+Alt+D". Key is 'a'..'z', ' ' for Space, or 0 for a
// modifier-only chord.
type Binding struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   byte
}

func ParseBinding(s string) (Binding, error) {
	var b Binding
	if strings.TrimSpace(s) == "" {
		return b, fmt.Errorf("empty hotkey")
	}
	for _, tok := range strings.Split(s, "+") {
		switch t := strings.ToLower(strings.TrimSpace(tok)); t {
		case "ctrl", "control":
			b.Ctrl = true
		case "shift":
			b.Shift = true
		case "alt", "option":
			b.Alt = true
		case "super", "cmd", "meta", "win":
			b.Super = true
		case "space":
			b.Key = ' '
		default:
			if len(t) == 1 && t[0] >= 'a' && t[0] <= 'z' {
				b.Key = t[0]
				continue
			}
			return Binding{}, fmt.Errorf("unknown hotkey token %q", tok)
		}
	}
	return b, nil
}

// PTT drives push-to-talk: chord down starts dictation, chord up stops
// it. Both edges go to the host (best-effort) and onto the bus for the
// local listeners.
type PTT struct {
	hk   Hotkey
	br   bridge.Bridge
	b    *bus.Bus
	stop chan struct{}
	done chan struct{}
}

func NewPTT(hk Hotkey, br bridge.Bridge, b *bus.Bus) *PTT {
	return &PTT{hk: hk, br: br, b: b}
}

// Start registers the chord and begins translating its edges. A
// registration failure degrades to "hotkey inactive".
func (p *PTT) Start() error {
	if err := p.hk.Register(); err != nil {
		return fmt.Errorf("register hotkey: %w", err)
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run()
	return nil
}

func (p *PTT) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-p.hk.Keydown():
			if err := p.br.Invoke(bridge.CmdSTTStart, nil); err != nil && p.br.Available() {
				log.Warnf("hotkey: stt_start: %v", err)
			}
			p.b.Publish(bus.EventDictationStart, bus.Payload{})
		}

		select {
		case <-p.stop:
			return
		case <-p.hk.Keyup():
			if err := p.br.Invoke(bridge.CmdSTTStop, nil); err != nil && p.br.Available() {
				log.Warnf("hotkey: stt_stop: %v", err)
			}
			p.b.Publish(bus.EventDictationStop, bus.Payload{})
		}
	}
}

// Close unregisters the chord and stops edge translation.
func (p *PTT) Close() {
	if p.stop != nil {
		close(p.stop)
		<-p.done
		p.stop = nil
	}
	p.hk.Unregister()
}
