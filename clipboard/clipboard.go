// Package clipboard places text on the system clipboard. The primary
// mechanism is the native clipboard binding; when that fails the text
// buffer is flushed through an external copy utility instead.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// Indirection points for tests.
var (
	primaryCopy = nativeCopy
	runFallback = pipeToUtility
)

func Copy(text string) error {
	primaryErr := primaryCopy(text)
	if primaryErr == nil {
		return nil
	}
	if err := copyFallback(text); err != nil {
		return fmt.Errorf("%w: %v (fallback: %v)", ErrUnavailable, primaryErr, err)
	}
	return nil
}

func copyFallback(text string) error {
	lastErr := errors.New("no copy utility found")
	for _, argv := range fallbackCommands {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		if err := runFallback(argv, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

func pipeToUtility(argv []string, text string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
