// Package overlay tracks the recording-overlay strip: shown while
// dictation runs, expanded under the pointer, collapsed again after a
// short dwell once the pointer leaves. All host-side effects go
// through the bridge.
package overlay

import (
	"sync"
	"time"

	"jargon/bridge"
	"jargon/bus"
	"jargon/log"
	"jargon/task"
)

// Host geometry for the strip. Tuning values carried over from the
// native overlay.
const (
	WidthPx          = 90
	HeightPx         = 5
	VerticalMarginPx = 16

	HoverScaleX = 1.15
	HoverScaleY = 5.0

	// Collapse waits this long after the pointer leaves; re-entering
	// within the window cancels the collapse.
	hoverDwell = 30 * time.Millisecond
)

type Controller struct {
	mu       sync.Mutex
	br       bridge.Bridge
	dwell    task.Delayed
	dwellDur time.Duration
	visible  bool
	hovered  bool
	unsubs   []func()

	onState func(visible, hovered bool)
}

func NewController(br bridge.Bridge) *Controller {
	return &Controller{br: br, dwellDur: hoverDwell}
}

// OnState registers the state-mirror callback used by the in-process
// overlay rendering. Set before Attach.
func (c *Controller) OnState(fn func(visible, hovered bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Attach shows the strip on dictation start and hides it on stop.
func (c *Controller) Attach(b *bus.Bus) {
	c.mu.Lock()
	attached := c.unsubs != nil
	c.mu.Unlock()
	if attached {
		return
	}

	unsubs := []func(){
		b.Subscribe(bus.EventDictationStart, func(bus.Payload) { c.SetVisible(true) }),
		b.Subscribe(bus.EventDictationStop, func(bus.Payload) { c.SetVisible(false) }),
	}
	c.mu.Lock()
	c.unsubs = unsubs
	c.mu.Unlock()
}

func (c *Controller) SetVisible(show bool) {
	c.mu.Lock()
	if c.visible == show {
		c.mu.Unlock()
		return
	}
	c.visible = show
	if !show {
		c.hovered = false
	}
	notify := c.stateLocked()
	c.mu.Unlock()

	if !show {
		c.dwell.Cancel()
	}
	if err := c.br.Invoke(bridge.CmdOverlayShow, map[string]bool{"show": show}); err != nil {
		log.Warnf("overlay: show(%v): %v", show, err)
	}
	notify()
}

// Hover expands the strip while the pointer is over it. Leaving arms
// the dwell collapse; re-entering first cancels it.
func (c *Controller) Hover(entered bool) {
	if entered {
		c.dwell.Cancel()
		c.mu.Lock()
		c.hovered = true
		notify := c.stateLocked()
		c.mu.Unlock()
		notify()
		return
	}
	c.dwell.Schedule(c.dwellDur, func() {
		c.mu.Lock()
		c.hovered = false
		notify := c.stateLocked()
		c.mu.Unlock()
		notify()
	})
}

func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *Controller) Hovered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hovered
}

// stateLocked snapshots the notify call while c.mu is held.
func (c *Controller) stateLocked() func() {
	fn, visible, hovered := c.onState, c.visible, c.hovered
	if fn == nil {
		return func() {}
	}
	return func() { fn(visible, hovered) }
}

// Close detaches from the bus and cancels a pending collapse.
// Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	c.dwell.Cancel()
}
