//go:build gui

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"jargon/history"
	"jargon/overlay"
)

// App hosts the frameless dictation strip. Visibility and hover scale
// follow the overlay controller; the strip itself only animates.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	strip   *StripWidget
	onReady func()

	screenW   int
	recording bool
	hovered   bool
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.jargon.app")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	// Get primary monitor work area for positioning
	a.screenW = 1920
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, a.screenW, _ = monitor.GetWorkarea()
	}

	// Create frameless splash window on desktop
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("jargon")
	}

	a.strip = NewStripWidget()
	a.window.SetContent(a.strip)
	a.window.SetPadded(false)
	a.window.Resize(fyne.NewSize(overlay.WidthPx, overlay.HeightPx))

	go a.onReady()

	// Run event loop without showing window (stays hidden until the
	// host reports dictation activity)
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// applyGeometry sizes and positions the strip top-center, expanding
// it while hovered.
func (a *App) applyGeometry(hovered bool) {
	w := float32(overlay.WidthPx)
	h := float32(overlay.HeightPx)
	if hovered {
		w *= overlay.HoverScaleX
		h *= overlay.HoverScaleY
	}
	a.window.Resize(fyne.NewSize(w, h))

	if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
		glfwWin.SetPos((a.screenW-int(w))/2, overlay.VerticalMarginPx)
		glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
		glfwWin.SetAttrib(glfw.Floating, glfw.True)
	}
}

func (a *App) show(hovered bool) {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		a.applyGeometry(hovered)
		// Show without taking focus - use GLFW directly
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.Show()
		} else {
			a.window.Show()
		}
	})
}

func (a *App) hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
	})
}

// EventSink implementation

func (a *App) DictationStart() {
	a.recording = true
	a.strip.SetState(true, a.hovered)
}

func (a *App) DictationStop() {
	a.recording = false
	a.strip.SetState(false, a.hovered)
}

func (a *App) OverlayState(visible, hovered bool) {
	a.hovered = hovered
	a.strip.SetState(a.recording, hovered)
	if visible {
		a.show(hovered)
	} else {
		a.hide()
	}
}

func (a *App) HistoryChanged(entries []history.Entry) {}
func (a *App) CopyFeedback(copiedID string)           {}
func (a *App) EngineLine(stream, line string)         {}
