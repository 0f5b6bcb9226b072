//go:build gui

package main

import (
	"runtime"

	"jargon/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
}
