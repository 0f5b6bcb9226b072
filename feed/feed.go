// Package feed turns the host's JSON-line event stream into bus
// events. Lines that do not parse as events are forwarded verbatim as
// engine log output, matching the host's own convention.
package feed

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"jargon/bus"
)

type Reader struct {
	src  io.ReadCloser
	done chan struct{}
}

type event struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Running *bool  `json:"running"`
	Stream  string `json:"stream"`
	Line    string `json:"line"`
}

// Attach opens the stream advertised through JARGON_EVENTS and starts
// publishing. A missing or unopenable stream is not fatal to the
// caller: it just means no events will arrive.
func Attach(b *bus.Bus) (*Reader, error) {
	path := os.Getenv("JARGON_EVENTS")
	if path == "" {
		return nil, errors.New("JARGON_EVENTS not set")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open host event stream: %w", err)
	}
	return NewReader(f, b), nil
}

// NewReader consumes src until EOF or Close, publishing onto b.
func NewReader(src io.ReadCloser, b *bus.Bus) *Reader {
	r := &Reader{src: src, done: make(chan struct{})}
	go r.run(b)
	return r
}

func (r *Reader) run(b *bus.Bus) {
	defer close(r.done)

	running := false
	scanner := bufio.NewScanner(r.src)
	for scanner.Scan() {
		line := scanner.Text()

		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			b.Publish(bus.EventEngineLog, bus.Payload{Stream: "engine", Line: line})
			continue
		}

		switch ev.Type {
		case "transcript":
			b.Publish(bus.EventTranscript, bus.Payload{Text: ev.Text})
		case "status":
			if ev.Running == nil || *ev.Running == running {
				continue
			}
			running = *ev.Running
			if running {
				b.Publish(bus.EventDictationStart, bus.Payload{})
			} else {
				b.Publish(bus.EventDictationStop, bus.Payload{})
			}
		case "log":
			b.Publish(bus.EventEngineLog, bus.Payload{Stream: ev.Stream, Line: ev.Line})
		default:
			b.Publish(bus.EventEngineLog, bus.Payload{Stream: "engine", Line: line})
		}
	}
}

// Close stops the feed and waits for the last in-flight publish to
// finish, so teardown can rely on no further events.
func (r *Reader) Close() error {
	err := r.src.Close()
	<-r.done
	return err
}
