package settings

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"jargon/bridge"
)

type fakeBlobs struct {
	data map[string]string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string]string{}} }

func (f *fakeBlobs) Get(key string) (string, bool) { v, ok := f.data[key]; return v, ok }
func (f *fakeBlobs) Set(key, value string) error   { f.data[key] = value; return nil }

func TestLoadMissingReturnsDefaults(t *testing.T) {
	got := Load(newFakeBlobs())
	want := Default()
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Hotkey != "Ctrl+Shift" || !got.RunInBackground || !got.TypeIntoActiveApp {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestLoadCorruptReturnsDefaults(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.data[StorageKey] = `{"hotkey": nonsense`

	if got := Load(blobs); got != Default() {
		t.Errorf("got %+v", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.data[StorageKey] = `{"hotkey":"Alt+Space"}`

	got := Load(blobs)
	if got.Hotkey != "Alt+Space" {
		t.Errorf("Hotkey = %q", got.Hotkey)
	}
	if !got.RunInBackground || !got.TypeIntoActiveApp {
		t.Errorf("missing fields should keep defaults: %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	blobs := newFakeBlobs()
	cfg := Config{Hotkey: "Ctrl+Alt", RunInBackground: false, TypeIntoActiveApp: true}

	if err := Save(blobs, cfg); err != nil {
		t.Fatal(err)
	}
	if got := Load(blobs); got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestSaveUsesWireNames(t *testing.T) {
	blobs := newFakeBlobs()
	if err := Save(blobs, Default()); err != nil {
		t.Fatal(err)
	}
	blob := blobs.data[StorageKey]
	for _, field := range []string{"hotkey", "runInBackground", "typeIntoActiveApp"} {
		if !strings.Contains(blob, field) {
			t.Errorf("blob missing %q: %s", field, blob)
		}
	}
}

func TestApplyInvokesHost(t *testing.T) {
	var buf bytes.Buffer
	b := bridge.Pipe(&buf)

	if err := Apply(b, Default()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), bridge.CmdSTTSetConfig) {
		t.Errorf("request missing command: %s", buf.String())
	}
}

func TestApplyUnavailableHost(t *testing.T) {
	err := Apply(bridge.Unavailable(), Default())
	if !errors.Is(err, bridge.ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
