package clipboard

import (
	"errors"
	"testing"
)

func swapMechanisms(t *testing.T, primary func(string) error, fallback func([]string, string) error) {
	t.Helper()
	origPrimary, origFallback := primaryCopy, runFallback
	primaryCopy, runFallback = primary, fallback
	t.Cleanup(func() {
		primaryCopy, runFallback = origPrimary, origFallback
	})
}

func TestCopyPrimarySucceeds(t *testing.T) {
	var got string
	swapMechanisms(t,
		func(text string) error { got = text; return nil },
		func([]string, string) error {
			t.Fatal("fallback invoked despite primary success")
			return nil
		},
	)

	if err := Copy("hello"); err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("primary received %q", got)
	}
}

func TestCopyFallsBack(t *testing.T) {
	var got string
	swapMechanisms(t,
		func(string) error { return errors.New("no display") },
		func(_ []string, text string) error { got = text; return nil },
	)

	err := Copy("hello")
	// The fallback only runs when a copy utility is installed; on a
	// bare machine both mechanisms fail and Copy reports that.
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if got != "hello" {
		t.Errorf("fallback received %q", got)
	}
}

func TestCopyBothFail(t *testing.T) {
	swapMechanisms(t,
		func(string) error { return errors.New("no display") },
		func([]string, string) error { return errors.New("utility exited 1") },
	)

	err := Copy("hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error %v does not wrap ErrUnavailable", err)
	}
}
