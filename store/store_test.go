package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dexpatch.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOutputsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := map[string][]byte{
		"classes.dexc":  {0x01, 0x02, 0x03},
		"classes2.dexc": {0x04, 0x05},
	}
	if err := s.PutOutputs("abc123", want); err != nil {
		t.Fatalf("PutOutputs() error = %v", err)
	}

	got, err := s.GetOutputs("abc123")
	if err != nil {
		t.Fatalf("GetOutputs() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("GetOutputs() returned %d entries, want %d", len(got), len(want))
	}
	for name, data := range want {
		if string(got[name]) != string(data) {
			t.Errorf("output %s = %v, want %v", name, got[name], data)
		}
	}
}

func TestGetOutputsNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetOutputs("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOutputs() error = %v, want ErrNotFound", err)
	}
}

func TestPutOutputsReplaces(t *testing.T) {
	s := openTestStore(t)

	first := map[string][]byte{
		"classes.dexc": {0x01},
		"old.dexc":     {0x02},
	}
	if err := s.PutOutputs("h1", first); err != nil {
		t.Fatalf("PutOutputs() error = %v", err)
	}

	second := map[string][]byte{"classes.dexc": {0xFF}}
	if err := s.PutOutputs("h1", second); err != nil {
		t.Fatalf("PutOutputs() error = %v", err)
	}

	got, err := s.GetOutputs("h1")
	if err != nil {
		t.Fatalf("GetOutputs() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("GetOutputs() returned %d entries, want 1", len(got))
	}
	if string(got["classes.dexc"]) != "\xff" {
		t.Errorf("output data = %v, want [255]", got["classes.dexc"])
	}
}

func TestOutputsKeyedByHash(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutOutputs("h1", map[string][]byte{"a": {1}}); err != nil {
		t.Fatalf("PutOutputs(h1) error = %v", err)
	}
	if err := s.PutOutputs("h2", map[string][]byte{"b": {2}}); err != nil {
		t.Fatalf("PutOutputs(h2) error = %v", err)
	}

	got, err := s.GetOutputs("h1")
	if err != nil {
		t.Fatalf("GetOutputs(h1) error = %v", err)
	}
	if _, ok := got["b"]; ok {
		t.Error("outputs for h1 contain entry stored under h2")
	}
}

func TestOutcomesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := []Outcome{
		{Patch: "disable-ads", OK: true},
		{Patch: "unlock-premium", OK: false, Message: "signature not resolved"},
	}
	if err := s.PutOutcomes("h1", want); err != nil {
		t.Fatalf("PutOutcomes() error = %v", err)
	}

	got, err := s.GetOutcomes("h1")
	if err != nil {
		t.Fatalf("GetOutcomes() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetOutcomes() returned %d entries, want 2", len(got))
	}
	// Rows come back ordered by patch name.
	if got[0].Patch != "disable-ads" || !got[0].OK {
		t.Errorf("outcome[0] = %+v, want disable-ads ok", got[0])
	}
	if got[1].Patch != "unlock-premium" || got[1].OK || got[1].Message != "signature not resolved" {
		t.Errorf("outcome[1] = %+v, want failed unlock-premium with message", got[1])
	}
}

func TestGetOutcomesEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetOutcomes("missing")
	if err != nil {
		t.Fatalf("GetOutcomes() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetOutcomes() returned %d entries, want 0", len(got))
	}
}

func TestHashInputs(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.dexc")
	p2 := filepath.Join(dir, "b.dexc")
	if err := os.WriteFile(p1, []byte("alpha"), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	if err := os.WriteFile(p2, []byte("beta"), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	h1, err := HashInputs([]string{p1, p2})
	if err != nil {
		t.Fatalf("HashInputs() error = %v", err)
	}
	h2, err := HashInputs([]string{p1, p2})
	if err != nil {
		t.Fatalf("HashInputs() error = %v", err)
	}
	if h1 != h2 {
		t.Error("HashInputs() is not deterministic for identical inputs")
	}

	reversed, err := HashInputs([]string{p2, p1})
	if err != nil {
		t.Fatalf("HashInputs() error = %v", err)
	}
	if reversed == h1 {
		t.Error("HashInputs() should depend on path order")
	}
}

func TestHashInputsMissingFile(t *testing.T) {
	_, err := HashInputs([]string{filepath.Join(t.TempDir(), "nope.dexc")})
	if err == nil {
		t.Error("HashInputs() expected error for missing file")
	}
}
