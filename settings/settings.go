// Package settings holds the user-facing dictation configuration and
// its persistence, and pushes accepted changes to the native host.
package settings

import (
	"encoding/json"

	"jargon/bridge"
	"jargon/log"
)

// StorageKey is the persisted record holding the serialized config.
const StorageKey = "jargon:settings:v1"

// Config mirrors the host's dictation config. JSON field names are the
// host's wire names.
type Config struct {
	Hotkey            string `json:"hotkey"`
	RunInBackground   bool   `json:"runInBackground"`
	TypeIntoActiveApp bool   `json:"typeIntoActiveApp"`
}

func Default() Config {
	return Config{
		Hotkey:            "Ctrl+Shift",
		RunInBackground:   true,
		TypeIntoActiveApp: true,
	}
}

// Blobs is the slice of the key-value store settings need.
type Blobs interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Load returns the stored config, falling back to defaults when the
// record is absent or corrupt. Fields missing from the stored blob
// keep their default values.
func Load(blobs Blobs) Config {
	cfg := Default()
	blob, ok := blobs.Get(StorageKey)
	if !ok {
		return cfg
	}
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		log.Warnf("settings: discarding corrupt stored config: %v", err)
		return Default()
	}
	return cfg
}

func Save(blobs Blobs, cfg Config) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return blobs.Set(StorageKey, string(blob))
}

// Apply pushes the config to the host. With no host attached the
// change still persists locally; the caller decides whether the
// degradation is worth surfacing.
func Apply(b bridge.Bridge, cfg Config) error {
	return b.Invoke(bridge.CmdSTTSetConfig, cfg)
}
