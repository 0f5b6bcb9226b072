// Package cue plays the short audio ticks that confirm dictation start
// and stop. Triggering is debounced so a flapping engine cannot turn
// the cues into a stutter.
package cue

import (
	"math"
	"sync"
	"time"

	"jargon/bus"
)

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start cue: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop cue: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Error cue: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	// Repeats of the same signal inside this window are dropped. Start
	// and stop debounce independently, so a dictation shorter than the
	// window still gets its stop cue.
	debounceWindow = 200 * time.Millisecond
)

// Trigger binds the cues to the dictation start/stop events.
type Trigger struct {
	mu     sync.Mutex
	now    func() time.Time
	last   map[string]time.Time
	window time.Duration
	unsubs []func()

	playStart func()
	playStop  func()
}

func NewTrigger() *Trigger {
	return &Trigger{
		now:       time.Now,
		last:      make(map[string]time.Time),
		window:    debounceWindow,
		playStart: PlayStart,
		playStop:  PlayStop,
	}
}

func (t *Trigger) Attach(b *bus.Bus) {
	t.mu.Lock()
	attached := t.unsubs != nil
	t.mu.Unlock()
	if attached {
		return
	}

	unsubs := []func(){
		b.Subscribe(bus.EventDictationStart, func(bus.Payload) { t.fire("start", t.playStart) }),
		b.Subscribe(bus.EventDictationStop, func(bus.Payload) { t.fire("stop", t.playStop) }),
	}
	t.mu.Lock()
	t.unsubs = unsubs
	t.mu.Unlock()
}

func (t *Trigger) fire(kind string, play func()) {
	t.mu.Lock()
	now := t.now()
	if last, ok := t.last[kind]; ok && now.Sub(last) < t.window {
		t.mu.Unlock()
		return
	}
	t.last[kind] = now
	t.mu.Unlock()

	play()
}

// Close detaches the trigger from the bus. Idempotent.
func (t *Trigger) Close() {
	t.mu.Lock()
	unsubs := t.unsubs
	t.unsubs = nil
	t.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// synthTone renders a decaying sine at the package sample rate, mono.
// The platform playback files interleave or byte-pack it as their
// backend wants.
func synthTone(freq, duration, volume, decay float64) []int16 {
	out := make([]int16, int(float64(sampleRate)*duration))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = int16(math.Sin(2*math.Pi*freq*t) * math.Exp(-t*decay) * volume * 32767)
	}
	return out
}

// synthDoubleBeep is two tones separated by a short gap of silence.
func synthDoubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := synthTone(freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))

	out := make([]int16, 0, 2*len(beep)+len(gap))
	out = append(out, beep...)
	out = append(out, gap...)
	out = append(out, beep...)
	return out
}
