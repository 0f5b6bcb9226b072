//go:build windows

package clipboard

var fallbackCommands = [][]string{
	{"clip.exe"},
}
