//go:build windows

package cue

// No audio playback on Windows - cues disabled.

func Init()      {}
func PlayStart() {}
func PlayStop()  {}
func PlayError() {}
