// Package doctor runs interactive system diagnostics covering the
// pieces that commonly break an install: directories, clipboard,
// hotkey access, and the host channels.
package doctor

import (
	"fmt"
	"os"
	"time"

	"jargon/bridge"
	"jargon/clipboard"
	"jargon/hotkey"
	"jargon/log"
	"jargon/settings"
	"jargon/store"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run() int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("jargon doctor - system diagnostics")
	fmt.Println("==================================")

	allPass := true

	if !checkLogDir() {
		allPass = false
	}
	if !checkStore() {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}
	if !checkHostChannels() {
		allPass = false
	}
	if !checkHotkey() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkLogDir() bool {
	fmt.Println()
	fmt.Println("[1/5] Log directory")

	dir, err := log.ResolveDir("")
	if err != nil {
		fmt.Printf("  FAIL: cannot resolve log directory: %v\n", err)
		return false
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("  FAIL: cannot create %s: %v\n", dir, err)
		return false
	}
	fmt.Printf("  PASS: %s\n", dir)
	return true
}

func checkStore() bool {
	fmt.Println()
	fmt.Println("[2/5] Data store")

	dir, err := store.ResolveDir()
	if err != nil {
		fmt.Printf("  FAIL: cannot resolve data directory: %v\n", err)
		return false
	}
	st, err := store.Open(dir)
	if err != nil {
		fmt.Printf("  FAIL: cannot open %s: %v\n", dir, err)
		return false
	}

	key := fmt.Sprintf("jargon:doctor:%d", os.Getpid())
	if err := st.Set(key, "ok"); err != nil {
		fmt.Printf("  FAIL: write failed: %v\n", err)
		return false
	}
	got, ok := st.Get(key)
	st.Delete(key)
	if !ok || got != "ok" {
		fmt.Printf("  FAIL: read back %q after write\n", got)
		return false
	}
	fmt.Printf("  PASS: %s\n", dir)
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[3/5] Clipboard")

	testStr := fmt.Sprintf("jargon-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (no display server?)")
		return false
	}
}

func checkHostChannels() bool {
	fmt.Println()
	fmt.Println("[4/5] Host channels")

	pass := true
	if _, err := bridge.Detect(); err != nil {
		fmt.Printf("  WARN: command channel: %v\n", err)
	} else {
		fmt.Println("  PASS: command channel open")
	}

	events := os.Getenv("JARGON_EVENTS")
	if events == "" {
		fmt.Println("  WARN: JARGON_EVENTS not set (no transcripts will arrive)")
	} else if _, err := os.Stat(events); err != nil {
		fmt.Printf("  FAIL: event stream %s: %v\n", events, err)
		pass = false
	} else {
		fmt.Println("  PASS: event stream present")
	}
	return pass
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[5/5] Hotkey detection")

	chord := settings.Default().Hotkey
	binding, err := hotkey.ParseBinding(chord)
	if err != nil {
		fmt.Printf("  FAIL: default chord %q: %v\n", chord, err)
		return false
	}

	hk := hotkey.New(binding)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	fmt.Printf("Press %s...\n", chord)
	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid leaving the chord half-pressed
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}
