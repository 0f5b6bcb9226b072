package cue

import (
	"testing"
	"time"

	"jargon/bus"
)

// newTestTrigger pins the clock and swaps playback for counters.
func newTestTrigger(t *testing.T) (*Trigger, *int, *int, *time.Time) {
	t.Helper()
	clock := time.UnixMilli(1700000000000)
	starts, stops := 0, 0
	tr := NewTrigger()
	tr.now = func() time.Time { return clock }
	tr.playStart = func() { starts++ }
	tr.playStop = func() { stops++ }
	t.Cleanup(tr.Close)
	return tr, &starts, &stops, &clock
}

func TestTriggerPlaysOnEvents(t *testing.T) {
	b := bus.New()
	tr, starts, stops, clock := newTestTrigger(t)
	tr.Attach(b)

	b.Publish(bus.EventDictationStart, bus.Payload{})
	*clock = clock.Add(time.Second)
	b.Publish(bus.EventDictationStop, bus.Payload{})

	if *starts != 1 || *stops != 1 {
		t.Errorf("starts = %d, stops = %d", *starts, *stops)
	}
}

func TestTriggerDebouncesRepeats(t *testing.T) {
	b := bus.New()
	tr, starts, stops, clock := newTestTrigger(t)
	tr.Attach(b)

	// A flapping engine fires the same signal back to back: only the
	// first of each kind inside the window plays.
	b.Publish(bus.EventDictationStart, bus.Payload{})
	*clock = clock.Add(50 * time.Millisecond)
	b.Publish(bus.EventDictationStart, bus.Payload{})
	b.Publish(bus.EventDictationStop, bus.Payload{})
	*clock = clock.Add(50 * time.Millisecond)
	b.Publish(bus.EventDictationStop, bus.Payload{})

	if *starts != 1 {
		t.Errorf("starts = %d, want 1", *starts)
	}
	if *stops != 1 {
		t.Errorf("stops = %d, want 1", *stops)
	}

	*clock = clock.Add(debounceWindow)
	b.Publish(bus.EventDictationStart, bus.Payload{})
	b.Publish(bus.EventDictationStop, bus.Payload{})
	if *starts != 2 || *stops != 2 {
		t.Errorf("starts = %d, stops = %d after window, want 2 and 2", *starts, *stops)
	}
}

// Start and stop debounce per kind: a dictation shorter than the
// window still gets its stop cue, so the pair always plays.
func TestShortDictationPlaysBothCues(t *testing.T) {
	b := bus.New()
	tr, starts, stops, clock := newTestTrigger(t)
	tr.Attach(b)

	b.Publish(bus.EventDictationStart, bus.Payload{})
	*clock = clock.Add(80 * time.Millisecond)
	b.Publish(bus.EventDictationStop, bus.Payload{})

	if *starts != 1 || *stops != 1 {
		t.Errorf("starts = %d, stops = %d, want both cues", *starts, *stops)
	}
}

func TestTriggerCloseDetaches(t *testing.T) {
	b := bus.New()
	tr, starts, _, clock := newTestTrigger(t)
	tr.Attach(b)

	b.Publish(bus.EventDictationStart, bus.Payload{})
	tr.Close()
	tr.Close() // idempotent
	*clock = clock.Add(time.Second)
	b.Publish(bus.EventDictationStart, bus.Payload{})

	if *starts != 1 {
		t.Errorf("starts = %d, want 1", *starts)
	}
}

func TestSynthToneEnvelope(t *testing.T) {
	tone := synthTone(startFreq, 0.1, 0.5, 60)
	if want := sampleRate / 10; len(tone) != want {
		t.Fatalf("len = %d, want %d", len(tone), want)
	}

	tenth := len(tone) / 10
	head, tail := peak(tone[:tenth]), peak(tone[len(tone)-tenth:])
	if head == 0 {
		t.Fatal("tone is silent")
	}
	if tail >= head/4 {
		t.Errorf("tail peak %d vs head peak %d; decay envelope missing", tail, head)
	}
}

func TestSynthDoubleBeepLength(t *testing.T) {
	got := synthDoubleBeep(errorFreq, 0.08, 0.05, 0.5, 30)
	beep := int(float64(sampleRate) * 0.08)
	gap := int(float64(sampleRate) * 0.05)
	if want := 2*beep + gap; len(got) != want {
		t.Errorf("len = %d, want %d", len(got), want)
	}
}

func peak(s []int16) int {
	max := 0
	for _, v := range s {
		a := int(v)
		if a < 0 {
			a = -a
		}
		if a > max {
			max = a
		}
	}
	return max
}
