package store

import (
	"os"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)

	if v, ok := s.Get("jargon:nothing:v1"); ok {
		t.Errorf("expected miss, got %q", v)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openStore(t)

	if err := s.Set("jargon:transcriptHistory:v1", `[{"id":"a"}]`); err != nil {
		t.Fatal(err)
	}
	v, ok := s.Get("jargon:transcriptHistory:v1")
	if !ok {
		t.Fatal("expected hit")
	}
	if v != `[{"id":"a"}]` {
		t.Errorf("got %q", v)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openStore(t)

	if err := s.Set("k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", "two"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get("k"); v != "two" {
		t.Errorf("got %q, want two", v)
	}
}

func TestKeyFlattening(t *testing.T) {
	s := openStore(t)

	if err := s.Set("jargon:settings:v1", "{}"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(s.Dir(), "jargon_settings_v1.json")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected flattened file %s: %v", want, err)
	}
}

func TestSetLeavesNoTempFile(t *testing.T) {
	s := openStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := openStore(t)

	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "jargon")
	if _, err := Open(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("store directory not created: %v", err)
	}
}
