//go:build gui

package gui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

var (
	colorIdle  = color.RGBA{92, 92, 92, 255}
	colorHover = color.RGBA{150, 150, 150, 255}
	colorRec   = color.RGBA{255, 59, 48, 255}
)

// StripWidget is the thin dictation indicator drawn inside the
// frameless overlay window. It pulses while dictation is running.
type StripWidget struct {
	widget.BaseWidget
	mu        sync.Mutex
	frame     int
	recording bool
	hovered   bool
	stopCh    chan struct{}
}

func NewStripWidget() *StripWidget {
	s := &StripWidget{stopCh: make(chan struct{})}
	s.ExtendBaseWidget(s)
	go s.animate()
	return s
}

func (s *StripWidget) SetState(recording, hovered bool) {
	s.mu.Lock()
	s.recording = recording
	s.hovered = hovered
	s.mu.Unlock()
}

func (s *StripWidget) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

func (s *StripWidget) animate() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame++
			s.mu.Unlock()
			fyne.Do(func() {
				s.Refresh()
			})
		}
	}
}

func (s *StripWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &stripRenderer{strip: s, rect: canvas.NewRectangle(colorIdle)}
	r.rect.CornerRadius = 2
	return r
}

type stripRenderer struct {
	strip *StripWidget
	rect  *canvas.Rectangle
}

func (r *stripRenderer) Layout(size fyne.Size) {
	r.rect.Move(fyne.NewPos(0, 0))
	r.rect.Resize(size)
}

func (r *stripRenderer) MinSize() fyne.Size {
	return fyne.NewSize(1, 1)
}

func (r *stripRenderer) Refresh() {
	r.strip.mu.Lock()
	frame := r.strip.frame
	recording := r.strip.recording
	hovered := r.strip.hovered
	r.strip.mu.Unlock()

	c := colorIdle
	if hovered {
		c = colorHover
	}
	if recording {
		// Pulse between ~60% and 100% intensity
		pulse := 0.8 + 0.2*math.Sin(float64(frame)*0.25)
		c = color.RGBA{
			R: uint8(float64(colorRec.R) * pulse),
			G: uint8(float64(colorRec.G) * pulse),
			B: uint8(float64(colorRec.B) * pulse),
			A: 255,
		}
	}
	r.rect.FillColor = c
	r.rect.Refresh()
}

func (r *stripRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.rect}
}

func (r *stripRenderer) Destroy() {
	r.strip.Stop()
}
