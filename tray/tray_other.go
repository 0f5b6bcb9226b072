//go:build !darwin

package tray

import "fyne.io/systray"

func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	start()
	return quitCh
}
