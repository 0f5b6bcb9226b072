//go:build darwin

package clipboard

var fallbackCommands = [][]string{
	{"pbcopy"},
}
