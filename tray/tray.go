// Package tray puts a status icon in the system tray with quick
// access to dictation controls and the most recent transcript.
package tray

import (
	"sync"
	"time"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu         sync.Mutex
	copyLastFn func()
	recordFn   func()
	stopFn     func()

	recording bool

	typeIntoOn bool
	typeIntoCb func(bool)

	loginOn bool
	loginCb func(bool) error
)

func OnCopyLast(fn func())        { mu.Lock(); copyLastFn = fn; mu.Unlock() }
func OnRecord(start, stop func()) { mu.Lock(); recordFn = start; stopFn = stop; mu.Unlock() }
func OnTypeInto(fn func(bool))    { mu.Lock(); typeIntoCb = fn; mu.Unlock() }
func OnLogin(fn func(bool) error) { mu.Lock(); loginCb = fn; mu.Unlock() }

func SetTypeInto(on bool) {
	mu.Lock()
	typeIntoOn = on
	mu.Unlock()
	updateTypeIntoItem(on)
}

func SetLogin(on bool) {
	mu.Lock()
	loginOn = on
	mu.Unlock()
	updateLoginItem(on)
}

func SetRecording(rec bool) {
	mu.Lock()
	recording = rec
	mu.Unlock()
	updateRecordingIcon(rec)
}

func SetError(msg string) {
	updateTooltip("jargon – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		updateTooltip(defaultTooltip)
	}()
}

// SetLastTranscript enables the copy item and shows a short preview
// of the newest transcript in its title.
func SetLastTranscript(text string) {
	updateCopyLastTitle("Copy Last Transcript: " + previewText(text, 36))
}

func SetUpdateAvailable(version string) {
	addUpdateMenuItem(version)
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

func previewText(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
