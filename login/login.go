// Package login manages the OS login item that keeps the app running
// in the background across sessions.
package login

// SetEnabled installs or removes the login item to match on.
func SetEnabled(on bool) error {
	if on {
		return Enable()
	}
	return Disable()
}
