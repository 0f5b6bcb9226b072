//go:build !darwin

package login

// Login items are only managed on macOS; elsewhere the host or the
// desktop session is expected to start the app.

func Enabled() bool { return false }

func Enable() error { return nil }

func Disable() error { return nil }
