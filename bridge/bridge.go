// Package bridge proxies invoke-style requests to the native host
// process. The host may be absent (plain terminal session), so the
// bridge is a capability: callers always hold a Bridge and the
// unavailable variant reports failure instead of branching on the
// environment at every call site.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Commands understood by the host.
const (
	CmdSTTStart       = "stt_start"
	CmdSTTStop        = "stt_stop"
	CmdSTTRestart     = "stt_restart"
	CmdSTTSetConfig   = "stt_set_config"
	CmdOverlayShow    = "overlay_show"
	CmdWindowMinimize = "window_minimize"
	CmdWindowMaximize = "window_maximize"
	CmdWindowClose    = "window_close"
)

var ErrUnavailable = errors.New("host bridge unavailable")

type Bridge interface {
	// Invoke sends one request to the host. args must be
	// JSON-encodable; nil means no arguments.
	Invoke(cmd string, args any) error
	Available() bool
}

type unavailable struct{}

func (unavailable) Invoke(string, any) error { return ErrUnavailable }
func (unavailable) Available() bool          { return false }

func Unavailable() Bridge { return unavailable{} }

type request struct {
	Cmd  string `json:"cmd"`
	Args any    `json:"args,omitempty"`
}

type pipeBridge struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// Pipe returns a Bridge that writes JSON-line requests to w, the
// host's command channel.
func Pipe(w io.Writer) Bridge {
	return &pipeBridge{enc: json.NewEncoder(w)}
}

func (b *pipeBridge) Invoke(cmd string, args any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enc.Encode(request{Cmd: cmd, Args: args}); err != nil {
		return fmt.Errorf("invoke %s: %w", cmd, err)
	}
	return nil
}

func (b *pipeBridge) Available() bool { return true }

// Detect opens the command channel advertised by the host through
// JARGON_IPC. The returned Bridge is always usable; a non-nil error
// explains why it degraded to the unavailable variant.
func Detect() (Bridge, error) {
	path := os.Getenv("JARGON_IPC")
	if path == "" {
		return Unavailable(), errors.New("JARGON_IPC not set")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return Unavailable(), fmt.Errorf("open host channel: %w", err)
	}
	return Pipe(f), nil
}
