//go:build windows

package paste

import "errors"

// No synthetic paste chord on Windows yet; typing degrades to
// clipboard-only.
func Send() error {
	return errors.New("paste chord not supported on windows")
}
