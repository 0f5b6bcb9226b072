package hotkey

import (
	"sync/atomic"
	"testing"
	"time"

	"jargon/bridge"
	"jargon/bus"
)

func TestParseBinding(t *testing.T) {
	for _, tt := range []struct {
		input string
		want  Binding
	}{
		{"Ctrl+Shift", Binding{Ctrl: true, Shift: true}},
		{"ctrl+shift", Binding{Ctrl: true, Shift: true}},
		{"Ctrl+Alt+D", Binding{Ctrl: true, Alt: true, Key: 'd'}},
		{"Ctrl+Space", Binding{Ctrl: true, Key: ' '}},
		{"Cmd+Shift", Binding{Super: true, Shift: true}},
	} {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBinding(tt.input)
			if err != nil {
				t.Fatalf("ParseBinding(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBindingRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "Ctrl+??", "Ctrl+F13"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseBinding(input); err == nil {
				t.Errorf("ParseBinding(%q) accepted", input)
			}
		})
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPTTPublishesEdges(t *testing.T) {
	b := bus.New()
	fake := NewFake()

	var starts, stops atomic.Int32
	b.Subscribe(bus.EventDictationStart, func(bus.Payload) { starts.Add(1) })
	b.Subscribe(bus.EventDictationStop, func(bus.Payload) { stops.Add(1) })

	ptt := NewPTT(fake, bridge.Unavailable(), b)
	if err := ptt.Start(); err != nil {
		t.Fatal(err)
	}
	defer ptt.Close()

	fake.SimKeydown()
	waitFor(t, func() bool { return starts.Load() == 1 }, "start event")

	fake.SimKeyup()
	waitFor(t, func() bool { return stops.Load() == 1 }, "stop event")
}

func TestPTTCloseUnregisters(t *testing.T) {
	b := bus.New()
	fake := NewFake()

	ptt := NewPTT(fake, bridge.Unavailable(), b)
	if err := ptt.Start(); err != nil {
		t.Fatal(err)
	}
	if !fake.Registered() {
		t.Error("chord not registered")
	}

	ptt.Close()
	if fake.Registered() {
		t.Error("chord still registered after Close")
	}
}
