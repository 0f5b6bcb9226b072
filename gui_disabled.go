//go:build !gui

package main

// Stubs for non-GUI builds (these are never used since guiMode stays false)
var guiApp EventSink

func initGUI() {
	panic("jargon: built without GUI support (rebuild with -tags gui)")
}
