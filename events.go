package main

import "jargon/history"

// EventSink abstracts the display layer so both the Bubble Tea shell
// and the GUI overlay strip can receive the same dictation events.
type EventSink interface {
	DictationStart()
	DictationStop()
	HistoryChanged(entries []history.Entry)
	CopyFeedback(copiedID string)
	EngineLine(stream, line string)
	OverlayState(visible, hovered bool)
}

// multiSink fans events out to every registered sink.
type multiSink []EventSink

func (m multiSink) DictationStart() {
	for _, s := range m {
		s.DictationStart()
	}
}

func (m multiSink) DictationStop() {
	for _, s := range m {
		s.DictationStop()
	}
}

func (m multiSink) HistoryChanged(entries []history.Entry) {
	for _, s := range m {
		s.HistoryChanged(entries)
	}
}

func (m multiSink) CopyFeedback(copiedID string) {
	for _, s := range m {
		s.CopyFeedback(copiedID)
	}
}

func (m multiSink) EngineLine(stream, line string) {
	for _, s := range m {
		s.EngineLine(stream, line)
	}
}

func (m multiSink) OverlayState(visible, hovered bool) {
	for _, s := range m {
		s.OverlayState(visible, hovered)
	}
}
