package main

import (
	"encoding/json"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"jargon/bus"
	"jargon/feed"
	"jargon/history"
	"jargon/store"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// Drives the full host pipeline in-process: JSON lines from the event
// stream through the bus into history, with persistence underneath.
func TestHostFeedPipeline(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	b := bus.New()

	hist := history.NewManager(st)
	hist.Attach(b)
	defer hist.Close()

	var starts, stops, engineLines atomic.Int32
	b.Subscribe(bus.EventDictationStart, func(bus.Payload) { starts.Add(1) })
	b.Subscribe(bus.EventDictationStop, func(bus.Payload) { stops.Add(1) })
	b.Subscribe(bus.EventEngineLog, func(bus.Payload) { engineLines.Add(1) })

	pr, pw := io.Pipe()
	reader := feed.NewReader(pr, b)

	writeLine := func(s string) {
		t.Helper()
		if _, err := pw.Write([]byte(s + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	writeEvent := func(v any) {
		t.Helper()
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		writeLine(string(data))
	}

	writeEvent(map[string]any{"type": "status", "running": true})
	writeEvent(map[string]any{"type": "transcript", "text": "  first dictation  "})
	writeEvent(map[string]any{"type": "transcript", "text": "second dictation"})
	writeEvent(map[string]any{"type": "transcript", "text": "   "})
	writeEvent(map[string]any{"type": "log", "stream": "stderr", "line": "model loaded"})
	writeLine("not json at all")
	writeEvent(map[string]any{"type": "status", "running": false})

	waitUntil(t, "dictation stop", func() bool { return stops.Load() == 1 })
	waitUntil(t, "history entries", func() bool { return hist.Len() == 2 })

	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close: %v", err)
	}

	entries := hist.Entries()
	if entries[0].Text != "second dictation" || entries[1].Text != "first dictation" {
		t.Fatalf("unexpected order: %q, %q", entries[0].Text, entries[1].Text)
	}
	if starts.Load() != 1 {
		t.Errorf("starts = %d, want 1", starts.Load())
	}
	if engineLines.Load() != 2 {
		t.Errorf("engine lines = %d, want 2", engineLines.Load())
	}

	// A second manager over the same store sees the persisted log.
	hist2 := history.NewManager(st)
	defer hist2.Close()
	if hist2.Len() != 2 {
		t.Fatalf("reloaded len = %d, want 2", hist2.Len())
	}
	if hist2.Entries()[0].Text != "second dictation" {
		t.Fatalf("reloaded head = %q", hist2.Entries()[0].Text)
	}
}

// Closing the feed mid-stream must stop deliveries before Close returns.
func TestHostFeedCloseStopsDelivery(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	b := bus.New()
	hist := history.NewManager(st)
	hist.Attach(b)
	defer hist.Close()

	pr, pw := io.Pipe()
	reader := feed.NewReader(pr, b)

	go func() {
		data, _ := json.Marshal(map[string]any{"type": "transcript", "text": "before close"})
		pw.Write(append(data, '\n'))
	}()
	waitUntil(t, "first transcript", func() bool { return hist.Len() == 1 })

	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close: %v", err)
	}
	got := hist.Len()

	// Writes after Close go nowhere.
	go pw.Write([]byte(`{"type":"transcript","text":"after close"}` + "\n"))
	time.Sleep(50 * time.Millisecond)
	if hist.Len() != got {
		t.Fatalf("entries appended after Close: %d -> %d", got, hist.Len())
	}
}

// The sink fan-out delivers each event to every registered sink.
func TestMultiSinkFanOut(t *testing.T) {
	var a, b countingSink
	sinks := multiSink{&a, &b}

	sinks.DictationStart()
	sinks.DictationStop()
	sinks.HistoryChanged([]history.Entry{{ID: "1", Text: "x", TS: 1}})
	sinks.CopyFeedback("1")
	sinks.EngineLine("stderr", "line")
	sinks.OverlayState(true, false)

	for i, s := range []*countingSink{&a, &b} {
		if s.calls != 6 {
			t.Errorf("sink %d calls = %d, want 6", i, s.calls)
		}
	}
}

type countingSink struct{ calls int }

func (c *countingSink) DictationStart()                       { c.calls++ }
func (c *countingSink) DictationStop()                        { c.calls++ }
func (c *countingSink) HistoryChanged(_ []history.Entry)      { c.calls++ }
func (c *countingSink) CopyFeedback(_ string)                 { c.calls++ }
func (c *countingSink) EngineLine(_, _ string)                { c.calls++ }
func (c *countingSink) OverlayState(_, _ bool)                { c.calls++ }
