//go:build linux

package clipboard

// Tried in order; Wayland first, then the X11 utilities.
var fallbackCommands = [][]string{
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
}
