package feed

import (
	"io"
	"strings"
	"sync"
	"testing"

	"jargon/bus"
)

type recorder struct {
	mu          sync.Mutex
	transcripts []string
	starts      int
	stops       int
	logs        []string
}

func (r *recorder) attach(b *bus.Bus) {
	b.Subscribe(bus.EventTranscript, func(p bus.Payload) {
		r.mu.Lock()
		r.transcripts = append(r.transcripts, p.Text)
		r.mu.Unlock()
	})
	b.Subscribe(bus.EventDictationStart, func(bus.Payload) {
		r.mu.Lock()
		r.starts++
		r.mu.Unlock()
	})
	b.Subscribe(bus.EventDictationStop, func(bus.Payload) {
		r.mu.Lock()
		r.stops++
		r.mu.Unlock()
	})
	b.Subscribe(bus.EventEngineLog, func(p bus.Payload) {
		r.mu.Lock()
		r.logs = append(r.logs, p.Stream+": "+p.Line)
		r.mu.Unlock()
	})
}

// feedLines runs a reader over the given stream until EOF.
func feedLines(t *testing.T, lines string) *recorder {
	t.Helper()
	b := bus.New()
	rec := &recorder{}
	rec.attach(b)

	r := NewReader(io.NopCloser(strings.NewReader(lines)), b)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestTranscriptEvents(t *testing.T) {
	rec := feedLines(t, `{"type":"transcript","text":"hello there"}
{"type":"transcript","text":"second"}
`)
	if len(rec.transcripts) != 2 || rec.transcripts[0] != "hello there" {
		t.Errorf("transcripts = %v", rec.transcripts)
	}
}

func TestStatusEdgesDeduplicated(t *testing.T) {
	rec := feedLines(t, `{"type":"status","running":true}
{"type":"status","running":true}
{"type":"status","running":false}
{"type":"status","running":false}
{"type":"status","running":true}
`)
	if rec.starts != 2 || rec.stops != 1 {
		t.Errorf("starts = %d, stops = %d", rec.starts, rec.stops)
	}
}

func TestLogEvents(t *testing.T) {
	rec := feedLines(t, `{"type":"log","stream":"stderr","line":"warming up"}
`)
	if len(rec.logs) != 1 || rec.logs[0] != "stderr: warming up" {
		t.Errorf("logs = %v", rec.logs)
	}
}

func TestUnparsedLinesBecomeEngineLog(t *testing.T) {
	rec := feedLines(t, `Ready! Hold CTRL + SHIFT to record.
{"type":"mystery","x":1}
`)
	if len(rec.logs) != 2 {
		t.Fatalf("logs = %v", rec.logs)
	}
	if rec.logs[0] != "engine: Ready! Hold CTRL + SHIFT to record." {
		t.Errorf("logs[0] = %q", rec.logs[0])
	}
}

func TestNoEventsAfterClose(t *testing.T) {
	b := bus.New()
	rec := &recorder{}
	rec.attach(b)

	pr, pw := io.Pipe()
	r := NewReader(pr, b)

	go pw.Write([]byte("{\"type\":\"transcript\",\"text\":\"early\"}\n"))
	// Close waits for the reader goroutine, so anything written after
	// it returns is never published.
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	pw.Close()

	rec.mu.Lock()
	n := len(rec.transcripts)
	rec.mu.Unlock()
	if n > 1 {
		t.Errorf("transcripts = %v", rec.transcripts)
	}
}
